package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/service"
	"github.com/mmeshcher/invoice-system/internal/validation"
)

const invalidClientTitle = "Invalid client data"

// positiveInt возвращает значение параметра или def, если параметр пуст, не число или меньше единицы.
func positiveInt(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// ListClients возвращает страницу клиентов с количеством счетов.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	order := query.Get("order")
	if order == "" {
		order = "asc"
	}

	q := model.ClientQuery{
		OwnerID:   query.Get("user_id"),
		Search:    query.Get("search"),
		Sort:      model.ClientSort(query.Get("sort")),
		Ascending: order == "asc",
		Page:      positiveInt(query.Get("page"), service.DefaultPage),
		Limit:     positiveInt(query.Get("limit"), service.DefaultLimit),
	}
	if q.Sort == "" {
		q.Sort = model.ClientSortName
	}

	page, err := h.service.ListClients(r.Context(), session, q)
	if err != nil {
		h.fail(w, err, "", zap.String("userID", session.UserID))
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// AllClients возвращает всех клиентов пользователя по алфавиту.
func (h *Handler) AllClients(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	clients, err := h.service.AllClients(r.Context(), session)
	if err != nil {
		h.fail(w, err, "", zap.String("userID", session.UserID))
		return
	}

	writeJSON(w, http.StatusOK, clients)
}

// CreateClient создаёт клиента.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var in validation.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	c, err := h.service.CreateClient(r.Context(), session, in)
	if err != nil {
		h.fail(w, err, invalidClientTitle, zap.String("userID", session.UserID))
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// GetClient возвращает клиента.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	c, err := h.service.GetClient(r.Context(), session, id)
	if err != nil {
		h.fail(w, err, "", zap.String("clientID", id))
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// UpdateClient обновляет клиента.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var in validation.ClientInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	c, err := h.service.UpdateClient(r.Context(), session, id, in)
	if err != nil {
		h.fail(w, err, invalidClientTitle, zap.String("clientID", id))
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// DeleteClient удаляет клиента; его счета сохраняются.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.DeleteClient(r.Context(), session, id); err != nil {
		h.fail(w, err, "", zap.String("clientID", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
