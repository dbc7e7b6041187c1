package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/invoice-system/internal/model"
)

func authCookie(t *testing.T, m *AuthMiddleware, session model.Session) *http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	require.NoError(t, m.SetAuthCookie(w, session))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "no cookies set by SetAuthCookie")
	return cookies[0]
}

func TestAuthMiddleware_WithValidCookie(t *testing.T) {
	m := NewAuthMiddleware("test-secret")
	want := model.Session{UserID: "user-42", Email: "jane@example.test"}

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		got, ok := SessionFromContext(r.Context())
		require.True(t, ok, "session not in context")
		assert.Equal(t, want, got)
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(authCookie(t, m, want))

	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	assert.True(t, nextCalled, "next handler was not called")
}

func TestAuthMiddleware_WithoutCookie(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)

	m.Middleware(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
}

func TestAuthMiddleware_RejectsForeignSignature(t *testing.T) {
	issuer := NewAuthMiddleware("other-secret")
	m := NewAuthMiddleware("test-secret")

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(authCookie(t, issuer, model.Session{UserID: "user-1"}))

	w := httptest.NewRecorder()
	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})).ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
}

func TestAuthMiddleware_RejectsExpiredToken(t *testing.T) {
	m := NewAuthMiddleware("test-secret")
	m.now = func() time.Time { return time.Now().Add(-2 * authCookieTTL) }
	cookie := authCookie(t, m, model.Session{UserID: "user-1"})
	m.now = time.Now

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(cookie)

	w := httptest.NewRecorder()
	m.Middleware(http.NotFoundHandler()).ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Result().StatusCode)
}

func TestAuthMiddleware_Optional(t *testing.T) {
	m := NewAuthMiddleware("test-secret")

	var gotSession bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, gotSession = SessionFromContext(r.Context())
	})

	m.Optional(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	assert.False(t, gotSession)

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.AddCookie(authCookie(t, m, model.Session{UserID: "user-1"}))
	m.Optional(next).ServeHTTP(httptest.NewRecorder(), r)
	assert.True(t, gotSession)
}

func TestClearAuthCookie(t *testing.T) {
	w := httptest.NewRecorder()
	NewAuthMiddleware("s").ClearAuthCookie(w)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authCookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
