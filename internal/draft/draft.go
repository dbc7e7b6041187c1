// Package draft хранит снимок нового, ещё не сохранённого счёта, чтобы
// введённые данные пережили переход на страницу входа.
//
// Для каждой области (сессии черновика) существует ровно один слот.
// Версий и истории изменений нет.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmeshcher/invoice-system/internal/validation"
)

// SlotName задаёт фиксированное имя слота черновика.
const SlotName = "pendingInvoice"

// ErrNotFound возвращается хранилищем, если снимок отсутствует.
var ErrNotFound = errors.New("draft not found")

// Store хранит снимки черновиков по ключу.
type Store interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Slot представляет слот черновика одной области. Захватывается при открытии формы нового
// счёта и освобождается (очищается) после успешного сохранения.
type Slot struct {
	store Store
	key   string
}

// Acquire возвращает слот черновика для указанной области.
func Acquire(store Store, scope string) *Slot {
	return &Slot{
		store: store,
		key:   SlotName + ":" + scope,
	}
}

// Key возвращает ключ слота в хранилище.
func (s *Slot) Key() string {
	return s.key
}

// Mirror сохраняет текущее состояние формы. Для уже сохранённого счёта
// (с идентификатором) снимок не ведётся.
func (s *Slot) Mirror(ctx context.Context, in validation.InvoiceInput) error {
	if in.ID != "" {
		return nil
	}

	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	if err := s.store.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Restore загружает снимок поверх значений по умолчанию. Поля снимка имеют
// приоритет, отсутствующие поля берутся из defaults. Если форма открыта с
// заполненными данными (редактирование существующего счёта), снимок не
// применяется. Второе возвращаемое значение сообщает, был ли применён снимок.
//
// При ошибке чтения или разбора возвращаются значения по умолчанию вместе с ошибкой.
func (s *Slot) Restore(ctx context.Context, defaults validation.InvoiceInput, prefilled bool) (validation.InvoiceInput, bool, error) {
	if prefilled {
		return defaults, false, nil
	}

	data, err := s.store.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return defaults, false, nil
		}
		return defaults, false, fmt.Errorf("load draft: %w", err)
	}

	restored, err := Merge(defaults, data)
	if err != nil {
		return defaults, false, err
	}

	return restored, true, nil
}

// Release очищает слот.
func (s *Slot) Release(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// Merge разбирает снимок поверх значений по умолчанию. Даты восстанавливаются
// в значения времени при разборе validation.Date.
func Merge(defaults validation.InvoiceInput, snapshot []byte) (validation.InvoiceInput, error) {
	merged := defaults
	merged.Items = nil

	if err := json.Unmarshal(snapshot, &merged); err != nil {
		return defaults, fmt.Errorf("decode draft: %w", err)
	}

	if merged.Items == nil {
		merged.Items = defaults.Items
	}

	return merged, nil
}
