package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/token"
)

const (
	sessionCookie   = "user_token"
	oauthCookie     = "oauth_token"
	sessionCtxKey   = "session"
	oauthGrantKey   = "oauth_grant"
	bearerPrefixLen = len("Bearer ")
)

// TokenVerifier validates the two bearer token shapes.
type TokenVerifier interface {
	VerifySession(tokenString string) (*token.Session, error)
	VerifyOAuthGrant(tokenString string) (*token.OAuthGrant, error)
}

// RequireUser authenticates a session token from the auth cookie or the
// Authorization header and stores the session on the request context.
func RequireUser(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFromRequest(c)
			if raw == "" {
				return domain.AuthenticationError("not authenticated")
			}
			session, err := verifier.VerifySession(raw)
			if err != nil {
				return err
			}
			c.Set(sessionCtxKey, session)
			return next(c)
		}
	}
}

// RequireAdmin rejects non-admin sessions. Must run after RequireUser.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !sessionFrom(c).IsAdmin() {
				return domain.PermissionDenied("administrator access required")
			}
			return next(c)
		}
	}
}

// RequireOAuthGrant authenticates a deferred-registration token. Grants
// are only ever presented as a bearer header; they never live in cookies.
func RequireOAuthGrant(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return domain.AuthenticationError("missing oauth registration token")
			}
			grant, err := verifier.VerifyOAuthGrant(raw)
			if err != nil {
				return err
			}
			c.Set(oauthGrantKey, grant)
			return next(c)
		}
	}
}

func sessionFrom(c echo.Context) *token.Session {
	return c.Get(sessionCtxKey).(*token.Session)
}

func grantFrom(c echo.Context) *token.OAuthGrant {
	return c.Get(oauthGrantKey).(*token.OAuthGrant)
}

func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return bearerToken(c)
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > bearerPrefixLen && strings.EqualFold(header[:bearerPrefixLen], "Bearer ") {
		return header[bearerPrefixLen:]
	}
	return ""
}

func setSessionCookie(c echo.Context, value string, ttl time.Duration) {
	setAuthCookie(c, sessionCookie, value, ttl)
}

// The oauth cookie mirrors the deferred-registration token for the browser;
// the grant itself is still only accepted as a bearer header.
func setOAuthCookie(c echo.Context, value string, ttl time.Duration) {
	setAuthCookie(c, oauthCookie, value, ttl)
}

func setAuthCookie(c echo.Context, name, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookies(c echo.Context) {
	for _, name := range []string{sessionCookie, oauthCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
