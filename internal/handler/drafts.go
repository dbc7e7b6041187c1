package handler

import (
	"net/http"

	"github.com/mmeshcher/invoice-system/internal/middleware"
	"github.com/mmeshcher/invoice-system/internal/totals"
	"github.com/mmeshcher/invoice-system/internal/validation"
)

type draftResponse struct {
	Invoice  validation.InvoiceInput `json:"invoice"`
	Totals   totals.Totals           `json:"totals"`
	Restored bool                    `json:"restored"`
}

// NewDraft возвращает значения новой формы счёта вместе с сохранённым черновиком.
func (h *Handler) NewDraft(w http.ResponseWriter, r *http.Request) {
	in, restored := h.service.NewDraft(r.Context(), middleware.DraftScopeFromContext(r.Context()))

	writeJSON(w, http.StatusOK, draftResponse{
		Invoice:  in,
		Totals:   totals.ForInvoice(in.Loose()),
		Restored: restored,
	})
}

// MirrorDraft сохраняет текущее состояние формы нового счёта.
func (h *Handler) MirrorDraft(w http.ResponseWriter, r *http.Request) {
	var in validation.InvoiceInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := h.service.MirrorDraft(r.Context(), middleware.DraftScopeFromContext(r.Context()), in); err != nil {
		h.fail(w, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DiscardDraft очищает черновик.
func (h *Handler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DiscardDraft(r.Context(), middleware.DraftScopeFromContext(r.Context())); err != nil {
		h.fail(w, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
