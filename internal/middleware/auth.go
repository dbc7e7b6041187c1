// Package middleware содержит HTTP middleware для сервиса счетов.
package middleware

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/mmeshcher/invoice-system/internal/model"
)

type contextKey string

const sessionKey contextKey = "session"

const (
	authCookieName = "auth_token"
	authCookieTTL  = 365 * 24 * time.Hour
)

var errInvalidToken = errors.New("invalid token")

// AuthMiddleware выполняет проверку аутентификации пользователя по JWT в cookie.
type AuthMiddleware struct {
	secretKey []byte
	now       func() time.Time
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным секретным ключом.
// Пустой ключ заменяется случайным: сессии тогда не переживают перезапуск.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
		now:       time.Now,
	}
}

// Middleware пропускает только аутентифицированные запросы и добавляет сессию в контекст.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := a.sessionFromRequest(r)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// Optional добавляет сессию в контекст, если cookie корректен, и пропускает запрос в любом случае.
func (a *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session, ok := a.sessionFromRequest(r); ok {
			r = r.WithContext(WithSession(r.Context(), session))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *AuthMiddleware) sessionFromRequest(r *http.Request) (model.Session, bool) {
	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		return model.Session{}, false
	}

	session, err := a.parseToken(cookie.Value)
	if err != nil {
		return model.Session{}, false
	}
	return session, true
}

// SetAuthCookie устанавливает cookie авторизации для указанной сессии.
func (a *AuthMiddleware) SetAuthCookie(w http.ResponseWriter, session model.Session) error {
	value, err := a.signToken(session)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    value,
		Path:     "/",
		Expires:  a.now().Add(authCookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearAuthCookie удаляет cookie авторизации.
func (a *AuthMiddleware) ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *AuthMiddleware) signToken(session model.Session) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"sub":   session.UserID,
		"email": session.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(authCookieTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secretKey)
}

func (a *AuthMiddleware) parseToken(value string) (model.Session, error) {
	token, err := jwt.Parse(value, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return a.secretKey, nil
	})
	if err != nil {
		return model.Session{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.Session{}, errInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return model.Session{}, errInvalidToken
	}
	email, _ := claims["email"].(string)

	return model.Session{UserID: sub, Email: email}, nil
}

// WithSession возвращает контекст с сессией пользователя.
func WithSession(ctx context.Context, session model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext извлекает сессию пользователя из контекста запроса.
func SessionFromContext(ctx context.Context) (model.Session, bool) {
	session, ok := ctx.Value(sessionKey).(model.Session)
	return session, ok
}
