package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/token"
)

type stubVerifier struct {
	issuer *token.Issuer
}

func (s stubVerifier) VerifySession(t string) (*token.Session, error) {
	return s.issuer.VerifyUser(t)
}

func (s stubVerifier) VerifyOAuthGrant(t string) (*token.OAuthGrant, error) {
	return s.issuer.VerifyOAuth(t)
}

func testServer(issuer *token.Issuer) *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	verifier := stubVerifier{issuer: issuer}
	e.GET("/private", func(c echo.Context) error {
		return respond(c, sessionFrom(c).Username)
	}, RequireUser(verifier))
	e.GET("/admin-only", func(c echo.Context) error {
		return respondMessage(c, "ok")
	}, RequireUser(verifier), RequireAdmin())
	e.GET("/grant-only", func(c echo.Context) error {
		return respond(c, grantFrom(c).Name)
	}, RequireOAuthGrant(verifier))
	return e
}

func doRequest(e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, Envelope) {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func issueSession(t *testing.T, issuer *token.Issuer, role domain.Role) string {
	t.Helper()
	signed, err := issuer.IssueUser(&domain.User{ID: 1, Username: "alice", Role: role})
	require.NoError(t, err)
	return signed
}

func TestRequireUserAcceptsCookieAndBearer(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Hour)
	e := testServer(issuer)
	sessionToken := issueSession(t, issuer, domain.RoleUser)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sessionToken})
		rec, env := doRequest(e, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.CodeOK, env.Code)
		assert.Equal(t, "alice", env.Data)
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+sessionToken)
		rec, env := doRequest(e, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.CodeOK, env.Code)
	})
}

// Business failures ride an HTTP 200 with the error in the envelope.
func TestAuthFailuresUseEnvelope(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Hour)
	e := testServer(issuer)

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		rec, env := doRequest(e, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.CodeAuthentication, env.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer junk")
		rec, env := doRequest(e, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.CodeAuthentication, env.Code)
	})

	t.Run("non-admin on admin route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+issueSession(t, issuer, domain.RoleUser))
		rec, env := doRequest(e, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.CodePermissionDenied, env.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+issueSession(t, issuer, domain.RoleAdmin))
		_, env := doRequest(e, req)
		assert.Equal(t, domain.CodeOK, env.Code)
	})
}

// A session token must never open a grant-guarded route, and vice versa.
func TestTokenShapesSegregatedAtTransport(t *testing.T) {
	issuer := token.NewIssuer("test-secret", time.Hour)
	e := testServer(issuer)

	grantToken, err := issuer.IssueOAuth(domain.PlatformGitee, 777, "octo")
	require.NoError(t, err)

	t.Run("session token on grant route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/grant-only", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+issueSession(t, issuer, domain.RoleUser))
		_, env := doRequest(e, req)
		assert.Equal(t, domain.CodeAuthentication, env.Code)
	})

	t.Run("grant token on session route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+grantToken)
		_, env := doRequest(e, req)
		assert.Equal(t, domain.CodeAuthentication, env.Code)
	})

	t.Run("grant token accepted where it belongs", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/grant-only", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+grantToken)
		_, env := doRequest(e, req)
		assert.Equal(t, domain.CodeOK, env.Code)
		assert.Equal(t, "octo", env.Data)
	})
}

// Transport-level failures keep their real HTTP status.
func TestUnknownRouteKeepsTransportStatus(t *testing.T) {
	e := testServer(token.NewIssuer("test-secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/no-such-route", nil)
	rec, env := doRequest(e, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.Code)
}
