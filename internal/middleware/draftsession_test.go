package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftSession_IssuesAndReusesScope(t *testing.T) {
	var scope string
	h := DraftSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope = DraftScopeFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/drafts/new", nil))

	_, err := uuid.Parse(scope)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, draftCookieName, cookies[0].Name)
	assert.Equal(t, scope, cookies[0].Value)

	first := scope
	r := httptest.NewRequest(http.MethodPut, "/api/drafts/pending", nil)
	r.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, first, scope)
	assert.Empty(t, w.Result().Cookies())
}

func TestDraftSession_ReplacesMalformedCookie(t *testing.T) {
	var scope string
	h := DraftSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope = DraftScopeFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: draftCookieName, Value: "../../etc"})
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.NotEqual(t, "../../etc", scope)
	_, err := uuid.Parse(scope)
	assert.NoError(t, err)
}
