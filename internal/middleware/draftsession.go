package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	draftCookieName = "draft_session"
	draftCookieTTL  = 30 * 24 * time.Hour
)

const draftScopeKey contextKey = "draftScope"

// DraftSession выдаёт анонимный идентификатор области черновика в cookie.
// Идентификатор не зависит от входа в систему, поэтому черновик переживает
// переход на страницу входа и обратно.
func DraftSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := ""
		if c, err := r.Cookie(draftCookieName); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				scope = id.String()
			}
		}

		if scope == "" {
			scope = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     draftCookieName,
				Value:    scope,
				Path:     "/",
				Expires:  time.Now().Add(draftCookieTTL),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), draftScopeKey, scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DraftScopeFromContext возвращает идентификатор области черновика.
func DraftScopeFromContext(ctx context.Context) string {
	scope, _ := ctx.Value(draftScopeKey).(string)
	return scope
}
