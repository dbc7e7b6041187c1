package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/invoice-system/internal/draft"
	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/repository"
	"github.com/mmeshcher/invoice-system/internal/validation"
)

type stubRepo struct {
	clients         []model.Client
	createClientErr error
	createClientN   int

	invoices         map[string]model.InvoiceRecord
	createInvoiceErr error
	updateInvoiceErr error
	statusUpdates    map[string]model.InvoiceStatus

	countsErr  error
	lastQuery  model.ClientQuery
	plainCalls int

	user       *model.User
	createdPwd []byte
	accountPwd []byte
	closeErr   error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		invoices:      make(map[string]model.InvoiceRecord),
		statusUpdates: make(map[string]model.InvoiceStatus),
	}
}

func (s *stubRepo) Close() error { return s.closeErr }

func (s *stubRepo) CreateUser(ctx context.Context, email string, passwordHash []byte) (string, error) {
	if s.user != nil && s.user.Email == email {
		return "", repository.ErrUserExists
	}
	s.createdPwd = passwordHash
	return "user-1", nil
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, repository.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubRepo) GetUser(ctx context.Context, id string) (*model.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, repository.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubRepo) UpdateCompanyDetails(ctx context.Context, userID string, details model.CompanyDetails) error {
	return nil
}

func (s *stubRepo) UpdateAccount(ctx context.Context, userID, fullName string, passwordHash []byte) error {
	s.accountPwd = passwordHash
	return nil
}

func (s *stubRepo) CreateClient(ctx context.Context, ownerID string, f model.ClientFields) (model.Client, error) {
	if s.createClientErr != nil {
		return model.Client{}, s.createClientErr
	}
	s.createClientN++
	c := model.Client{ClientFields: f, ID: "client-" + f.Name, OwnerID: ownerID}
	s.clients = append(s.clients, c)
	return c, nil
}

func (s *stubRepo) FindClientByName(ctx context.Context, ownerID, name string) (*model.Client, error) {
	for _, c := range s.clients {
		if c.OwnerID == ownerID && strings.EqualFold(c.Name, name) {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubRepo) GetClient(ctx context.Context, ownerID, id string) (*model.Client, error) {
	for _, c := range s.clients {
		if c.OwnerID == ownerID && c.ID == id {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubRepo) UpdateClient(ctx context.Context, ownerID, id string, f model.ClientFields) (model.Client, error) {
	return model.Client{ClientFields: f, ID: id, OwnerID: ownerID}, nil
}

func (s *stubRepo) DeleteClient(ctx context.Context, ownerID, id string) error {
	return nil
}

func (s *stubRepo) AllClients(ctx context.Context, ownerID string) ([]model.Client, error) {
	return nil, nil
}

func (s *stubRepo) ListClientsWithCounts(ctx context.Context, q model.ClientQuery) ([]model.ClientWithCount, int, error) {
	s.lastQuery = q
	if s.countsErr != nil {
		return nil, 0, s.countsErr
	}
	res := make([]model.ClientWithCount, 0, len(s.clients))
	for _, c := range s.clients {
		res = append(res, model.ClientWithCount{Client: c, InvoiceCount: 3})
	}
	return res, len(s.clients), nil
}

func (s *stubRepo) ListClients(ctx context.Context, q model.ClientQuery) ([]model.Client, int, error) {
	s.plainCalls++
	return s.clients, len(s.clients), nil
}

func (s *stubRepo) CreateInvoice(ctx context.Context, rec model.InvoiceRecord) (string, error) {
	if s.createInvoiceErr != nil {
		return "", s.createInvoiceErr
	}
	id := "inv-" + rec.Data.InvoiceNumber
	rec.ID = id
	s.invoices[id] = rec
	return id, nil
}

func (s *stubRepo) UpdateInvoice(ctx context.Context, rec model.InvoiceRecord) error {
	if s.updateInvoiceErr != nil {
		return s.updateInvoiceErr
	}
	s.invoices[rec.ID] = rec
	return nil
}

func (s *stubRepo) UpdateInvoiceStatus(ctx context.Context, ownerID, id string, status model.InvoiceStatus) error {
	s.statusUpdates[id] = status
	return nil
}

func (s *stubRepo) DeleteInvoice(ctx context.Context, ownerID, id string) error {
	return nil
}

func (s *stubRepo) GetInvoice(ctx context.Context, ownerID, id string) (*model.InvoiceRecord, error) {
	rec, ok := s.invoices[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (s *stubRepo) ListInvoices(ctx context.Context, ownerID string, f model.InvoiceFilter) ([]model.InvoiceRecord, error) {
	var res []model.InvoiceRecord
	for _, rec := range s.invoices {
		if rec.OwnerID == ownerID {
			res = append(res, rec)
		}
	}
	return res, nil
}

var session = model.Session{UserID: "user-1", Email: "jane@example.test"}

func invoiceInput(number, toName string) validation.InvoiceInput {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return validation.InvoiceInput{
		InvoiceNumber: number,
		Date:          validation.DateOf(date),
		DueDate:       validation.DateOf(date.AddDate(0, 0, 7)),
		FromName:      "Me Ltd",
		ToName:        toName,
		ToEmail:       "billing@acme.test",
		Items: []validation.LineItemInput{
			{Description: "Work", Quantity: validation.NumberOf(2), Price: validation.NumberOf(100)},
		},
		TaxRate:  validation.NumberOf(10),
		Discount: validation.NumberOf(20),
	}
}

func TestCreateInvoice_CreatesClientOnceAndReusesIt(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	first, err := svc.CreateInvoice(ctx, session, invoiceInput("INV-1", "Acme"), "")
	require.NoError(t, err)
	assert.Equal(t, Saved, first.Outcome)
	assert.Equal(t, "client-Acme", first.ClientID)
	assert.InDelta(t, 200.0, first.Amount, 1e-9)

	second, err := svc.CreateInvoice(ctx, session, invoiceInput("INV-2", "acme"), "")
	require.NoError(t, err)
	assert.Equal(t, Saved, second.Outcome)
	assert.Equal(t, first.ClientID, second.ClientID)

	assert.Equal(t, 1, repo.createClientN)
	require.Len(t, repo.clients, 1)
	assert.Equal(t, "billing@acme.test", repo.clients[0].Email)

	rec := repo.invoices[second.InvoiceID]
	require.NotNil(t, rec.ClientID)
	assert.Equal(t, first.ClientID, *rec.ClientID)
	assert.Equal(t, "acme", rec.ClientName)
	assert.Equal(t, model.DefaultCurrency, rec.Currency)
	assert.Equal(t, model.InvoiceStatusDraft, rec.Status)
	assert.Equal(t, first.ClientID, rec.Data.ClientID)
}

func TestCreateInvoice_ClientCreationFailureStillSaves(t *testing.T) {
	repo := newStubRepo()
	repo.createClientErr = errors.New("insert failed")
	svc := NewService(repo, nil, nil)

	res, err := svc.CreateInvoice(context.Background(), session, invoiceInput("INV-1", "Acme"), "")
	require.NoError(t, err)
	assert.Equal(t, SavedWithoutClientLink, res.Outcome)
	assert.Empty(t, res.ClientID)

	rec, ok := repo.invoices[res.InvoiceID]
	require.True(t, ok)
	assert.Nil(t, rec.ClientID)
}

func TestCreateInvoice_ValidationErrorPersistsNothing(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)

	in := invoiceInput("INV-1", "Acme")
	in.Discount = validation.NumberOf(221)

	res, err := svc.CreateInvoice(context.Background(), session, in, "")
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	msg, _ := verrs.Message("discount")
	assert.Equal(t, validation.MsgDiscountExceedsTotal, msg)
	assert.Equal(t, Failed, res.Outcome)
	assert.Empty(t, repo.invoices)
	assert.Zero(t, repo.createClientN)
}

func TestCreateInvoice_ReleasesDraftOnSuccessOnly(t *testing.T) {
	ctx := context.Background()
	store := draft.NewMemoryStore(0)
	repo := newStubRepo()
	svc := NewService(repo, store, nil)

	in := invoiceInput("INV-1", "Acme")
	require.NoError(t, svc.MirrorDraft(ctx, "scope", in))

	repo.createInvoiceErr = errors.New("db down")
	_, err := svc.CreateInvoice(ctx, session, in, "scope")
	require.Error(t, err)

	_, err = store.Load(ctx, draft.Acquire(store, "scope").Key())
	require.NoError(t, err)

	repo.createInvoiceErr = nil
	_, err = svc.CreateInvoice(ctx, session, in, "scope")
	require.NoError(t, err)

	_, err = store.Load(ctx, draft.Acquire(store, "scope").Key())
	assert.ErrorIs(t, err, draft.ErrNotFound)
}

func TestCreateInvoice_SurvivesCancelledRequest(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.CreateInvoice(ctx, session, invoiceInput("INV-1", "Acme"), "")
	require.NoError(t, err)
	assert.Equal(t, Saved, res.Outcome)
}

func TestUpdateInvoice(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.UpdateInvoice(ctx, session, invoiceInput("INV-1", "Acme"))
	assert.ErrorIs(t, err, ErrMissingInvoiceID)

	in := invoiceInput("INV-1", "Acme")
	in.ID = "inv-1"
	in.Status = "paid"
	res, err := svc.UpdateInvoice(ctx, session, in)
	require.NoError(t, err)
	assert.Equal(t, "inv-1", res.InvoiceID)
	assert.Equal(t, model.InvoiceStatusPaid, repo.invoices["inv-1"].Status)

	repo.updateInvoiceErr = repository.ErrNotFound
	_, err = svc.UpdateInvoice(ctx, session, in)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetInvoice(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	res, err := svc.CreateInvoice(ctx, session, invoiceInput("INV-7", "Acme"), "")
	require.NoError(t, err)

	inv, err := svc.GetInvoice(ctx, session, res.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, res.InvoiceID, inv.ID)
	assert.Equal(t, "INV-7", inv.InvoiceNumber)
	assert.True(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC).Equal(inv.DueDate))

	created := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	repo.invoices["legacy"] = model.InvoiceRecord{
		ID: "legacy", OwnerID: session.UserID, ClientName: "Old Co",
		Status: model.InvoiceStatusPaid, Currency: "EUR", CreatedAt: created,
	}

	legacy, err := svc.GetInvoice(ctx, session, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "legacy", legacy.InvoiceNumber)
	assert.Equal(t, created, legacy.Date)
	assert.Equal(t, now, legacy.DueDate)
	assert.Equal(t, "Old Co", legacy.ToName)
	assert.Empty(t, legacy.Items)
	assert.Zero(t, legacy.TaxRate)

	_, err = svc.GetInvoice(ctx, model.Session{UserID: "someone-else"}, "legacy")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateInvoiceStatus(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.UpdateInvoiceStatus(context.Background(), session, "inv-1", "overdue"))
	assert.Equal(t, model.InvoiceStatusOverdue, repo.statusUpdates["inv-1"])

	err := svc.UpdateInvoiceStatus(context.Background(), session, "inv-1", "archived")
	var verrs validation.Errors
	assert.ErrorAs(t, err, &verrs)
}

func TestListClients(t *testing.T) {
	repo := newStubRepo()
	repo.clients = []model.Client{{ClientFields: model.ClientFields{Name: "Acme"}, ID: "c1", OwnerID: session.UserID}}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	page, err := svc.ListClients(ctx, session, model.ClientQuery{Page: 2, Limit: 20, Sort: model.ClientSortEmail})
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastQuery.Offset())
	assert.Equal(t, 20, repo.lastQuery.Limit)
	assert.Equal(t, model.ClientSortEmail, repo.lastQuery.Sort)
	assert.Equal(t, session.UserID, repo.lastQuery.OwnerID)
	assert.Equal(t, model.PageMetadata{Total: 1, Page: 2, Limit: 20, TotalPages: 1}, page.Metadata)
	assert.Equal(t, 3, page.Data[0].InvoiceCount)

	_, err = svc.ListClients(ctx, session, model.ClientQuery{OwnerID: "other", Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListClients(ctx, session, model.ClientQuery{Page: 0, Limit: 1000, Sort: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lastQuery.Page)
	assert.Equal(t, MaxLimit, repo.lastQuery.Limit)
	assert.Equal(t, model.ClientSortName, repo.lastQuery.Sort)
	assert.True(t, repo.lastQuery.Ascending)
}

func TestListClients_HugePageDoesNotOverflowOffset(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)

	for _, p := range []int{92233720368547760, math.MaxInt} {
		page, err := svc.ListClients(context.Background(), session, model.ClientQuery{Page: p, Limit: MaxLimit})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, repo.lastQuery.Offset(), 0)
		assert.Equal(t, MaxPage, page.Metadata.Page)
		assert.Empty(t, page.Data)
	}
}

func TestListClients_FallsBackToZeroCounts(t *testing.T) {
	repo := newStubRepo()
	repo.clients = []model.Client{
		{ClientFields: model.ClientFields{Name: "Acme"}, ID: "c1", OwnerID: session.UserID},
		{ClientFields: model.ClientFields{Name: "Globex"}, ID: "c2", OwnerID: session.UserID},
	}
	repo.countsErr = errors.New("join failed")
	svc := NewService(repo, nil, nil)

	page, err := svc.ListClients(context.Background(), session, model.ClientQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.plainCalls)
	require.Len(t, page.Data, 2)
	for _, c := range page.Data {
		assert.Zero(t, c.InvoiceCount)
	}
	assert.Equal(t, 2, page.Metadata.Total)
}

func TestSignUpAndSignIn(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	s, err := svc.SignUp(ctx, " Jane@Example.test ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.test", s.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword(repo.createdPwd, []byte("secret1")))

	_, err = svc.SignUp(ctx, "jane@example.test", "123")
	var verrs validation.Errors
	assert.ErrorAs(t, err, &verrs)

	repo.user = &model.User{ID: "user-1", Email: "jane@example.test", PasswordHash: repo.createdPwd}

	got, err := svc.SignIn(ctx, "JANE@example.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	_, err = svc.SignIn(ctx, "jane@example.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "nobody@example.test", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateAccount_EmptyPasswordKeepsHash(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.UpdateAccount(context.Background(), session, validation.AccountInput{FullName: "Jane"}))
	assert.Nil(t, repo.accountPwd)

	require.NoError(t, svc.UpdateAccount(context.Background(), session, validation.AccountInput{FullName: "Jane", Password: "newsecret"}))
	assert.NoError(t, bcrypt.CompareHashAndPassword(repo.accountPwd, []byte("newsecret")))
}

func TestSummarize(t *testing.T) {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	invoices := []model.InvoiceRecord{
		{ID: "6", ClientName: "Acme", Amount: 100, Status: model.InvoiceStatusPaid, CreatedAt: day(3, 20)},
		{ID: "5", ClientName: "Globex", Amount: 50, Status: model.InvoiceStatusPending, CreatedAt: day(3, 2)},
		{ID: "4", ClientName: "Acme", Amount: 25, Status: model.InvoiceStatusPending, CreatedAt: day(2, 10)},
		{ID: "3", ClientName: "Initech", Amount: 10, Status: model.InvoiceStatusDraft, CreatedAt: day(1, 5)},
		{ID: "2", ClientName: "Acme", Amount: 5, Status: model.InvoiceStatusOverdue, CreatedAt: day(1, 4)},
		{ID: "1", ClientName: "Acme", Amount: 1, Status: model.InvoiceStatusPaid, CreatedAt: day(1, 3)},
	}

	d := summarize(invoices)

	assert.InDelta(t, 191.0, d.TotalRevenue, 1e-9)
	assert.Equal(t, 6, d.TotalInvoices)
	assert.Equal(t, 2, d.Pending)
	assert.Equal(t, 2, d.Paid)
	assert.Equal(t, 3, d.ActiveClients)
	require.Len(t, d.Recent, 5)
	assert.Equal(t, "6", d.Recent[0].ID)
	assert.Equal(t, []model.MonthlyRevenue{
		{Month: "Jan 2024", Total: 16},
		{Month: "Feb 2024", Total: 25},
		{Month: "Mar 2024", Total: 150},
	}, d.Revenue)

	empty := summarize(nil)
	assert.Empty(t, empty.Recent)
	assert.NotNil(t, empty.Revenue)
}

func TestNewDraft(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStubRepo(), draft.NewMemoryStore(0), nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	in, restored := svc.NewDraft(ctx, "scope")
	assert.False(t, restored)
	assert.True(t, strings.HasPrefix(in.InvoiceNumber, "INV-"))
	assert.Equal(t, now.AddDate(0, 0, 7), in.DueDate.Time)
	require.Len(t, in.Items, 1)
	assert.Equal(t, "Service", in.Items[0].Description)

	require.NoError(t, svc.MirrorDraft(ctx, "scope", validation.InvoiceInput{ToName: "Acme"}))

	in, restored = svc.NewDraft(ctx, "scope")
	assert.True(t, restored)
	assert.Equal(t, "Acme", in.ToName)

	require.NoError(t, svc.DiscardDraft(ctx, "scope"))
	_, restored = svc.NewDraft(ctx, "scope")
	assert.False(t, restored)

	noStore := NewService(newStubRepo(), nil, nil)
	assert.ErrorIs(t, noStore.MirrorDraft(ctx, "scope", validation.InvoiceInput{}), ErrDraftsDisabled)
}

func TestClose_AggregatesErrors(t *testing.T) {
	repo := newStubRepo()
	repo.closeErr = errors.New("pool close failed")
	svc := NewService(repo, draft.NewMemoryStore(0), nil)

	err := svc.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool close failed")
}
