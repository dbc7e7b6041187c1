package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/repository"
	"github.com/mmeshcher/invoice-system/internal/service"
	"github.com/mmeshcher/invoice-system/internal/validation"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	session, err := h.service.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			writeError(w, http.StatusConflict, "User already registered")
			return
		}
		h.fail(w, err, "Invalid credentials", zap.String("op", "register"))
		return
	}

	h.startSession(w, session)
}

// Login выполняет аутентификацию пользователя и устанавливает cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid login credentials")
			return
		}
		h.fail(w, err, "Invalid credentials", zap.String("op", "login"))
		return
	}

	h.startSession(w, session)
}

func (h *Handler) startSession(w http.ResponseWriter, session model.Session) {
	if err := h.authMiddleware.SetAuthCookie(w, session); err != nil {
		h.logger.Error("sign session token error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: session.UserID, Email: session.Email})
}

// Logout удаляет cookie авторизации.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type profileResponse struct {
	ID       string               `json:"id"`
	Email    string               `json:"email"`
	FullName string               `json:"fullName"`
	Company  model.CompanyDetails `json:"company"`
}

// Me возвращает данные текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	u, err := h.service.Profile(r.Context(), session)
	if err != nil {
		h.fail(w, err, "", zap.String("userID", session.UserID))
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Company:  u.Company,
	})
}

// GetCompany возвращает реквизиты компании пользователя.
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	u, err := h.service.Profile(r.Context(), session)
	if err != nil {
		h.fail(w, err, "", zap.String("userID", session.UserID))
		return
	}

	writeJSON(w, http.StatusOK, u.Company)
}

// UpdateCompany сохраняет реквизиты компании пользователя.
func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var in validation.CompanyInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	details, err := h.service.UpdateCompanyDetails(r.Context(), session, in)
	if err != nil {
		h.fail(w, err, "Invalid company details", zap.String("userID", session.UserID))
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// UpdateAccount обновляет имя и пароль пользователя.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var in validation.AccountInput
	if err := decodeJSON(r, &in); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := h.service.UpdateAccount(r.Context(), session, in); err != nil {
		h.fail(w, err, "Invalid account data", zap.String("userID", session.UserID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
