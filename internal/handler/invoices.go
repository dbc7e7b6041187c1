package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/invoice-system/internal/middleware"
	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/render"
	"github.com/mmeshcher/invoice-system/internal/totals"
	"github.com/mmeshcher/invoice-system/internal/validation"
)

const invalidInvoiceTitle = "Invalid invoice data"

// loginRedirect указывает страницу входа с возвратом к форме счёта.
const loginRedirect = "/login?redirect=/"

// Totals пересчитывает суммы незавершённой формы. Некорректные и пустые
// числа считаются нулём.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	var in validation.InvoiceInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, totals.ForInvoice(in.Loose()))
}

// Preview возвращает HTML-предпросмотр незавершённой формы.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var in validation.InvoiceInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	html, err := render.Preview(in.Loose())
	if err != nil {
		h.logger.Error("render preview error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// CandidatePDF возвращает PDF для проверенных данных формы без сохранения.
func (h *Handler) CandidatePDF(w http.ResponseWriter, r *http.Request) {
	var in validation.InvoiceInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	inv, err := validation.ValidateInvoice(in)
	if err != nil {
		h.fail(w, err, invalidInvoiceTitle)
		return
	}

	h.writePDF(w, inv)
}

// InvoicePDF возвращает PDF сохранённого счёта.
func (h *Handler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	inv, err := h.service.GetInvoice(r.Context(), session, id)
	if err != nil {
		h.fail(w, err, "", zap.String("invoiceID", id))
		return
	}

	h.writePDF(w, inv)
}

func (h *Handler) writePDF(w http.ResponseWriter, inv model.Invoice) {
	data, err := render.PDF(inv)
	if err != nil {
		h.logger.Error("render pdf error", zap.Error(err), zap.String("invoiceNumber", inv.InvoiceNumber))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	name := inv.InvoiceNumber
	if name == "" {
		name = "invoice"
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(name+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// CreateInvoice сохраняет новый счёт. Если пользователь не вошёл в систему,
// проверенные данные формы сохраняются в черновик, а клиент получает 401
// с адресом страницы входа.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var in validation.InvoiceInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	scope := middleware.DraftScopeFromContext(r.Context())

	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		if _, err := validation.ValidateInvoice(in); err != nil {
			h.fail(w, err, invalidInvoiceTitle)
			return
		}

		in.ID = ""
		if err := h.service.MirrorDraft(r.Context(), scope, in); err != nil {
			h.logger.Warn("failed to preserve draft before login", zap.Error(err))
		}

		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error:    "authentication required",
			Redirect: loginRedirect,
		})
		return
	}

	res, err := h.service.CreateInvoice(r.Context(), session, in, scope)
	if err != nil {
		h.fail(w, err, invalidInvoiceTitle, zap.String("userID", session.UserID))
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// UpdateInvoice заменяет сохранённый счёт.
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var in validation.InvoiceInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}
	in.ID = chi.URLParam(r, "id")

	res, err := h.service.UpdateInvoice(r.Context(), session, in)
	if err != nil {
		h.fail(w, err, invalidInvoiceTitle, zap.String("invoiceID", in.ID))
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateInvoiceStatus меняет статус счёта.
func (h *Handler) UpdateInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.UpdateInvoiceStatus(r.Context(), session, id, req.Status); err != nil {
		h.fail(w, err, "Invalid status", zap.String("invoiceID", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteInvoice удаляет счёт.
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.DeleteInvoice(r.Context(), session, id); err != nil {
		h.fail(w, err, "", zap.String("invoiceID", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type invoiceResponse struct {
	model.Invoice
	Totals totals.Totals `json:"totals"`
}

// GetInvoice возвращает сохранённый счёт для редактирования.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	inv, err := h.service.GetInvoice(r.Context(), session, id)
	if err != nil {
		h.fail(w, err, "", zap.String("invoiceID", id))
		return
	}

	writeJSON(w, http.StatusOK, invoiceResponse{Invoice: inv, Totals: totals.ForInvoice(inv)})
}

// ListInvoices возвращает счета пользователя, начиная с самых новых.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	f := model.InvoiceFilter{
		Status:     model.InvoiceStatus(r.URL.Query().Get("status")),
		ClientName: r.URL.Query().Get("client"),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	records, err := h.service.ListInvoices(r.Context(), session, f)
	if err != nil {
		h.fail(w, err, "", zap.String("userID", session.UserID))
		return
	}

	writeJSON(w, http.StatusOK, summarize(records))
}

type dashboardResponse struct {
	model.Dashboard
	Recent []invoiceSummary `json:"recentInvoices"`
}

// Dashboard возвращает сводку по счетам пользователя.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	d, err := h.service.Dashboard(r.Context(), session)
	if err != nil {
		h.fail(w, err, "", zap.String("userID", session.UserID))
		return
	}

	writeJSON(w, http.StatusOK, dashboardResponse{Dashboard: d, Recent: summarize(d.Recent)})
}
