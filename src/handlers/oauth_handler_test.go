package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/stockfolio/backend/src/config"
	"github.com/username/stockfolio/backend/src/logger"
	"github.com/username/stockfolio/backend/src/security"
)

func newOAuthTestHandler(t *testing.T) *UserHandler {
	t.Helper()
	logger.InitLogger("error")
	config.Cfg = &config.AppConfig{
		GoogleClientID:     "test-client-id",
		GoogleClientSecret: "test-client-secret",
		GoogleRedirectURL:  "http://localhost:8080/api/auth/google/callback",
		FrontendBaseURL:    "http://localhost:3000",
	}
	InitializeGoogleOAuthConfig()
	return NewUserHandler(security.NewAuthService("test-secret"), nil)
}

func stateCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == oauthStateCookieName {
			return c
		}
	}
	return nil
}

func TestHandleGoogleLoginMintsPerRequestState(t *testing.T) {
	h := newOAuthTestHandler(t)

	firstRec := httptest.NewRecorder()
	h.HandleGoogleLogin(firstRec, httptest.NewRequest(http.MethodGet, "/api/auth/google/login", nil))
	require.Equal(t, http.StatusTemporaryRedirect, firstRec.Code)

	cookie := stateCookie(t, firstRec)
	require.NotNil(t, cookie, "login must set the state cookie")
	require.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	// The redirect carries the same state the cookie does.
	location, err := url.Parse(firstRec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, cookie.Value, location.Query().Get("state"))

	// A second login gets its own state; nothing is shared across requests.
	secondRec := httptest.NewRecorder()
	h.HandleGoogleLogin(secondRec, httptest.NewRequest(http.MethodGet, "/api/auth/google/login", nil))
	secondCookie := stateCookie(t, secondRec)
	require.NotNil(t, secondCookie)
	assert.NotEqual(t, cookie.Value, secondCookie.Value)
}

func TestHandleGoogleCallbackRejectsBadState(t *testing.T) {
	h := newOAuthTestHandler(t)

	t.Run("missing state cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=whatever&code=abc", nil)
		h.HandleGoogleCallback(rec, req)
		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "error=invalid_state")
	})

	t.Run("state does not match cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=forged&code=abc", nil)
		req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: "expected"})
		h.HandleGoogleCallback(rec, req)
		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "error=invalid_state")
	})
}
