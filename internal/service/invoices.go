package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/invoice-system/internal/draft"
	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/totals"
	"github.com/mmeshcher/invoice-system/internal/validation"
)

// ErrMissingInvoiceID возвращается при обновлении счёта без идентификатора.
var ErrMissingInvoiceID = errors.New("invoice ID is missing")

// SaveOutcome описывает результат сохранения счёта.
type SaveOutcome string

const (
	// Saved — счёт сохранён и связан с клиентом.
	Saved SaveOutcome = "saved"
	// SavedWithoutClientLink — счёт сохранён, но клиента создать не удалось.
	SavedWithoutClientLink SaveOutcome = "saved_without_client_link"
	// Failed — счёт не сохранён.
	Failed SaveOutcome = "failed"
)

// SaveResult описывает итог сохранения счёта.
type SaveResult struct {
	Outcome   SaveOutcome `json:"outcome"`
	InvoiceID string      `json:"invoiceId,omitempty"`
	ClientID  string      `json:"clientId,omitempty"`
	Amount    float64     `json:"amount"`
}

// CreateInvoice проверяет и сохраняет новый счёт. После успешного сохранения
// слот черновика области draftScope очищается.
func (s *Service) CreateInvoice(ctx context.Context, session model.Session, in validation.InvoiceInput, draftScope string) (SaveResult, error) {
	inv, err := validation.ValidateInvoice(in)
	if err != nil {
		return SaveResult{Outcome: Failed}, err
	}

	// Сохранение не прерывается, если клиент ушёл со страницы.
	ctx = context.WithoutCancel(ctx)

	rec, linked := s.record(ctx, session, inv)

	id, err := s.repo.CreateInvoice(ctx, rec)
	if err != nil {
		return SaveResult{Outcome: Failed}, fmt.Errorf("create invoice: %w", err)
	}

	s.releaseDraft(ctx, draftScope)

	return saveResult(id, rec, linked), nil
}

// UpdateInvoice проверяет и заменяет сохранённый счёт с тем же идентификатором.
func (s *Service) UpdateInvoice(ctx context.Context, session model.Session, in validation.InvoiceInput) (SaveResult, error) {
	inv, err := validation.ValidateInvoice(in)
	if err != nil {
		return SaveResult{Outcome: Failed}, err
	}
	if inv.ID == "" {
		return SaveResult{Outcome: Failed}, ErrMissingInvoiceID
	}

	ctx = context.WithoutCancel(ctx)

	rec, linked := s.record(ctx, session, inv)
	rec.ID = inv.ID

	if err := s.repo.UpdateInvoice(ctx, rec); err != nil {
		return SaveResult{Outcome: Failed}, fmt.Errorf("update invoice: %w", err)
	}

	return saveResult(inv.ID, rec, linked), nil
}

func (s *Service) record(ctx context.Context, session model.Session, inv model.Invoice) (model.InvoiceRecord, bool) {
	clientID, linked := s.ensureClient(ctx, session, inv)
	inv.ClientID = clientID

	rec := model.InvoiceRecord{
		OwnerID:    session.UserID,
		ClientName: inv.ToName,
		Amount:     totals.ForInvoice(inv).Total,
		Status:     inv.Status,
		Currency:   inv.Currency,
		CreatedAt:  inv.Date,
		Data:       &inv,
	}
	if linked {
		rec.ClientID = &clientID
	}
	return rec, linked
}

func saveResult(id string, rec model.InvoiceRecord, linked bool) SaveResult {
	res := SaveResult{
		Outcome:   Saved,
		InvoiceID: id,
		Amount:    rec.Amount,
	}
	if linked {
		res.ClientID = *rec.ClientID
	} else {
		res.Outcome = SavedWithoutClientLink
	}
	return res
}

func (s *Service) releaseDraft(ctx context.Context, scope string) {
	if scope == "" || s.drafts == nil {
		return
	}
	if err := draft.Acquire(s.drafts, scope).Release(ctx); err != nil {
		s.logger.Warn("failed to release draft", zap.String("scope", scope), zap.Error(err))
	}
}

// UpdateInvoiceStatus меняет только статус счёта.
func (s *Service) UpdateInvoiceStatus(ctx context.Context, session model.Session, id string, status string) error {
	st := model.InvoiceStatus(status)
	if !st.Valid() {
		return validation.Errors{{Field: "status", Message: "Invalid status"}}
	}
	return s.repo.UpdateInvoiceStatus(ctx, session.UserID, id, st)
}

// DeleteInvoice удаляет счёт пользователя.
func (s *Service) DeleteInvoice(ctx context.Context, session model.Session, id string) error {
	return s.repo.DeleteInvoice(ctx, session.UserID, id)
}

// GetInvoice возвращает сохранённый счёт. Для старых записей без снимка
// счёт собирается из колонок таблицы.
func (s *Service) GetInvoice(ctx context.Context, session model.Session, id string) (model.Invoice, error) {
	rec, err := s.repo.GetInvoice(ctx, session.UserID, id)
	if err != nil {
		return model.Invoice{}, err
	}

	if rec.Data != nil {
		inv := *rec.Data
		inv.ID = rec.ID
		if inv.Currency == "" {
			inv.Currency = model.DefaultCurrency
		}
		if !inv.Status.Valid() {
			inv.Status = model.InvoiceStatusDraft
		}
		return inv, nil
	}

	inv := model.Invoice{
		ID:            rec.ID,
		InvoiceNumber: rec.ID,
		Date:          rec.CreatedAt,
		DueDate:       s.now(),
		ToName:        rec.ClientName,
		Items:         []model.LineItem{},
		Currency:      rec.Currency,
		Status:        rec.Status,
	}
	if rec.ClientID != nil {
		inv.ClientID = *rec.ClientID
	}
	return inv, nil
}

// ListInvoices возвращает счета пользователя, начиная с самых новых.
func (s *Service) ListInvoices(ctx context.Context, session model.Session, f model.InvoiceFilter) ([]model.InvoiceRecord, error) {
	return s.repo.ListInvoices(ctx, session.UserID, f)
}
