// Package handler содержит HTTP-обработчики API сервиса счетов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/invoice-system/internal/middleware"
	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/repository"
	"github.com/mmeshcher/invoice-system/internal/service"
	"github.com/mmeshcher/invoice-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	SignUp(ctx context.Context, email, password string) (model.Session, error)
	SignIn(ctx context.Context, email, password string) (model.Session, error)
	Profile(ctx context.Context, session model.Session) (*model.User, error)
	UpdateCompanyDetails(ctx context.Context, session model.Session, in validation.CompanyInput) (model.CompanyDetails, error)
	UpdateAccount(ctx context.Context, session model.Session, in validation.AccountInput) error

	NewDraft(ctx context.Context, scope string) (validation.InvoiceInput, bool)
	MirrorDraft(ctx context.Context, scope string, in validation.InvoiceInput) error
	DiscardDraft(ctx context.Context, scope string) error

	CreateInvoice(ctx context.Context, session model.Session, in validation.InvoiceInput, draftScope string) (service.SaveResult, error)
	UpdateInvoice(ctx context.Context, session model.Session, in validation.InvoiceInput) (service.SaveResult, error)
	UpdateInvoiceStatus(ctx context.Context, session model.Session, id string, status string) error
	DeleteInvoice(ctx context.Context, session model.Session, id string) error
	GetInvoice(ctx context.Context, session model.Session, id string) (model.Invoice, error)
	ListInvoices(ctx context.Context, session model.Session, f model.InvoiceFilter) ([]model.InvoiceRecord, error)
	Dashboard(ctx context.Context, session model.Session) (model.Dashboard, error)

	CreateClient(ctx context.Context, session model.Session, in validation.ClientInput) (model.Client, error)
	UpdateClient(ctx context.Context, session model.Session, id string, in validation.ClientInput) (model.Client, error)
	DeleteClient(ctx context.Context, session model.Session, id string) error
	GetClient(ctx context.Context, session model.Session, id string) (*model.Client, error)
	AllClients(ctx context.Context, session model.Session) ([]model.Client, error)
	ListClients(ctx context.Context, session model.Session, q model.ClientQuery) (model.ClientPage, error)
}

// Handler реализует HTTP-обработчики API сервиса счетов.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	rateLimiter    *middleware.RateLimiter
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, limiter *middleware.RateLimiter) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		rateLimiter:    limiter,
	}
}

type errorResponse struct {
	Error    string                  `json:"error"`
	Fields   []validation.FieldError `json:"fields,omitempty"`
	Redirect string                  `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// maxBodyBytes ограничивает размер тела запроса после распаковки.
const maxBodyBytes = 256 << 10

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeDecodeError отвечает 413 на слишком большое тело и 400 на некорректный JSON.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, http.StatusText(http.StatusRequestEntityTooLarge))
		return
	}
	writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
}

// fail переводит ошибку сервиса в ответ. Ошибки проверки возвращаются со
// списком полей и не логируются.
func (h *Handler) fail(w http.ResponseWriter, err error, invalidTitle string, fields ...zap.Field) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: invalidTitle, Fields: verrs})
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
	case errors.Is(err, service.ErrMissingInvoiceID):
		writeError(w, http.StatusBadRequest, "Invoice ID is missing")
	default:
		h.logger.Error("request failed", append(fields, zap.Error(err))...)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func sessionFrom(w http.ResponseWriter, r *http.Request) (model.Session, bool) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return session, ok
}

// invoiceSummary описывает строку списка счетов.
type invoiceSummary struct {
	ID            string              `json:"id"`
	InvoiceNumber string              `json:"invoiceNumber"`
	ClientID      *string             `json:"client_id"`
	ClientName    string              `json:"client_name"`
	Amount        float64             `json:"amount"`
	Status        model.InvoiceStatus `json:"status"`
	Currency      string              `json:"currency"`
	CreatedAt     string              `json:"created_at"`
}

func summarize(records []model.InvoiceRecord) []invoiceSummary {
	res := make([]invoiceSummary, 0, len(records))
	for _, rec := range records {
		res = append(res, invoiceSummary{
			ID:            rec.ID,
			InvoiceNumber: rec.InvoiceNumber(),
			ClientID:      rec.ClientID,
			ClientName:    rec.ClientName,
			Amount:        rec.Amount,
			Status:        rec.Status,
			Currency:      rec.Currency,
			CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
		})
	}
	return res
}
