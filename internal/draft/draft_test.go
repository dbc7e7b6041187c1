package draft

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/validation"
)

func defaultsAt(now time.Time) validation.InvoiceInput {
	return validation.InputFromInvoice(model.DefaultInvoice(now, 42))
}

func TestSlot_MirrorAndRestore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	slot := Acquire(store, "session-1")

	date := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	in := validation.InvoiceInput{
		InvoiceNumber: "INV-900",
		Date:          validation.DateOf(date),
		DueDate:       validation.DateOf(date.AddDate(0, 0, 14)),
		ToName:        "Acme",
		Items: []validation.LineItemInput{
			{Description: "Audit", Quantity: validation.NumberOf(3), Price: validation.NumberOf(40)},
		},
		TaxRate: validation.NumberOf(5),
	}
	require.NoError(t, slot.Mirror(ctx, in))

	restored, ok, err := Acquire(store, "session-1").Restore(ctx, defaultsAt(time.Now()), false)
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, restored.Date.Valid)
	assert.True(t, date.Equal(restored.Date.Time))
	assert.True(t, date.AddDate(0, 0, 14).Equal(restored.DueDate.Time))
	assert.Equal(t, "INV-900", restored.InvoiceNumber)
	assert.Equal(t, "Acme", restored.ToName)
	require.Len(t, restored.Items, 1)
	assert.Equal(t, 3.0, restored.Items[0].Quantity.Float())
}

func TestMerge_AbsentFieldsFallBackToDefaults(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	defaults := defaultsAt(now)

	snapshot := []byte(`{"toName":"Globex","date":"2024-03-05T00:00:00.000Z","discount":null}`)

	merged, err := Merge(defaults, snapshot)
	require.NoError(t, err)

	assert.Equal(t, "Globex", merged.ToName)
	assert.True(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC).Equal(merged.Date.Time))

	assert.Equal(t, "INV-42", merged.InvoiceNumber)
	assert.Equal(t, defaults.DueDate, merged.DueDate)
	assert.Equal(t, model.DefaultCurrency, merged.Currency)
	assert.Equal(t, "draft", merged.Status)
	assert.Equal(t, defaults.Discount, merged.Discount)
	assert.Equal(t, defaults.Items, merged.Items)
}

func TestMerge_DoesNotMutateDefaults(t *testing.T) {
	defaults := defaultsAt(time.Now())
	before := defaults.Items[0]

	_, err := Merge(defaults, []byte(`{"items":[{"description":"Other","quantity":9,"price":1}]}`))
	require.NoError(t, err)

	assert.Equal(t, before, defaults.Items[0])
}

func TestMerge_EpochMillisDate(t *testing.T) {
	merged, err := Merge(defaultsAt(time.Now()), []byte(`{"dueDate":1709596800000}`))
	require.NoError(t, err)

	assert.True(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC).Equal(merged.DueDate.Time))
}

func TestSlot_RestoreSkippedWhenPrefilled(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	slot := Acquire(store, "s")

	require.NoError(t, slot.Mirror(ctx, validation.InvoiceInput{InvoiceNumber: "INV-snap"}))

	prefilled := validation.InvoiceInput{ID: "abc", InvoiceNumber: "INV-edit"}
	got, ok, err := slot.Restore(ctx, prefilled, true)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "INV-edit", got.InvoiceNumber)
}

func TestSlot_MirrorSkipsPersistedInvoice(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	slot := Acquire(store, "s")

	require.NoError(t, slot.Mirror(ctx, validation.InvoiceInput{ID: "persisted", InvoiceNumber: "INV-1"}))

	_, err := store.Load(ctx, slot.Key())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSlot_Release(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	slot := Acquire(store, "s")

	require.NoError(t, slot.Mirror(ctx, validation.InvoiceInput{InvoiceNumber: "INV-1"}))
	require.NoError(t, slot.Release(ctx))

	defaults := defaultsAt(time.Now())
	got, ok, err := slot.Restore(ctx, defaults, false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, defaults.InvoiceNumber, got.InvoiceNumber)
}

func TestSlot_RestoreCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	slot := Acquire(store, "s")
	require.NoError(t, store.Save(ctx, slot.Key(), []byte("{not json")))

	defaults := defaultsAt(time.Now())
	got, ok, err := slot.Restore(ctx, defaults, false)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, defaults.InvoiceNumber, got.InvoiceNumber)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "k", []byte("v")))

	now = now.Add(2 * time.Minute)
	_, err := store.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SaveDropsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := range 1000 {
		require.NoError(t, store.Save(ctx, fmt.Sprintf("scope-%d", i), []byte("{}")))
	}
	require.Equal(t, 1000, store.Len())

	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Save(ctx, "fresh", []byte("{}")))

	assert.Equal(t, 1, store.Len())
	_, err := store.Load(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemoryStore_CapacityEvictsOldest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	store.capacity = 2
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "a", []byte("1")))
	now = now.Add(time.Second)
	require.NoError(t, store.Save(ctx, "b", []byte("2")))
	now = now.Add(time.Second)
	require.NoError(t, store.Save(ctx, "c", []byte("3")))

	assert.Equal(t, 2, store.Len())
	_, err := store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	// Перезапись существующего ключа ничего не вытесняет.
	require.NoError(t, store.Save(ctx, "c", []byte("4")))
	assert.Equal(t, 2, store.Len())
}
