package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/service"
)

// AuthHandler exposes login, registration, and the OAuth flow.
type AuthHandler struct {
	auth        *service.AuthService
	users       *service.UserService
	frontendURL string
}

// NewAuthHandler creates a new AuthHandler. frontendURL is where OAuth
// callbacks send the browser back to.
func NewAuthHandler(auth *service.AuthService, users *service.UserService, frontendURL string) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, frontendURL: frontendURL}
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, sessionToken, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	setSessionCookie(c, sessionToken, h.auth.TokenTTL())
	return respond(c, authResponse{Token: sessionToken, User: user})
}

// LoginForm handles POST /auth/login_form, the OAuth2 password-grant shape
// kept for API tooling. Unlike the rest of the API it reports failures
// with real HTTP statuses.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	_, sessionToken, err := h.auth.Login(c.Request().Context(), username, password)
	if err != nil {
		var appErr *domain.Error
		if errors.As(err, &appErr) &&
			(appErr.Code == domain.CodeAuthentication || appErr.Code == domain.CodePermissionDenied) {
			return echo.NewHTTPError(appErr.Code, appErr.Message)
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"access_token": sessionToken,
		"token_type":   "bearer",
	})
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, sessionToken, err := h.auth.Register(c.Request().Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	setSessionCookie(c, sessionToken, h.auth.TokenTTL())
	return respond(c, authResponse{Token: sessionToken, User: user})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c echo.Context) error {
	clearAuthCookies(c)
	return respondMessage(c, "logged out")
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), sessionFrom(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, user)
}

// Authorize handles GET /auth/:platform/authorize by sending the browser
// to the provider's consent page.
func (h *AuthHandler) Authorize(c echo.Context) error {
	platform, err := platformFromParam(c)
	if err != nil {
		return err
	}
	authorizeURL, err := h.auth.AuthorizeURL(platform)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, authorizeURL)
}

// Callback handles GET /auth/:platform/callback. The outcome always ends
// in a browser redirect: to the success page with a session token, to the
// registration page with a deferred-registration token, or to the failure
// page with a message.
func (h *AuthHandler) Callback(c echo.Context) error {
	platform, err := platformFromParam(c)
	if err != nil {
		return h.failureRedirect(c, "unknown platform")
	}
	code := c.QueryParam("code")
	if code == "" {
		return h.failureRedirect(c, "missing authorization code")
	}

	outcome, err := h.auth.OAuthLogin(c.Request().Context(), platform, code)
	if err != nil {
		var appErr *domain.Error
		if errors.As(err, &appErr) {
			return h.failureRedirect(c, appErr.Message)
		}
		return h.failureRedirect(c, "login failed")
	}

	if outcome.Login {
		setSessionCookie(c, outcome.Token, h.auth.TokenTTL())
		return h.frontendRedirect(c, "/oauth-success", url.Values{"token": {outcome.Token}})
	}
	setOAuthCookie(c, outcome.Token, h.auth.TokenTTL())
	return h.frontendRedirect(c, "/oauth-register", url.Values{
		"token": {outcome.Token},
		"email": {outcome.Email},
	})
}

// OAuthRegister handles POST /auth/oauth/register, guarded by
// RequireOAuthGrant.
func (h *AuthHandler) OAuthRegister(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, sessionToken, err := h.auth.CompleteOAuthRegistration(c.Request().Context(), grantFrom(c), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	setSessionCookie(c, sessionToken, h.auth.TokenTTL())
	return respond(c, authResponse{Token: sessionToken, User: user})
}

func (h *AuthHandler) failureRedirect(c echo.Context, message string) error {
	return h.frontendRedirect(c, "/oauth-failure", url.Values{"message": {message}})
}

func (h *AuthHandler) frontendRedirect(c echo.Context, path string, query url.Values) error {
	return c.Redirect(http.StatusFound, h.frontendURL+path+"?"+query.Encode())
}

func platformFromParam(c echo.Context) (domain.Platform, error) {
	switch strings.ToLower(c.Param("platform")) {
	case "github":
		return domain.PlatformGitHub, nil
	case "gitee":
		return domain.PlatformGitee, nil
	default:
		return "", domain.NotFound("platform " + c.Param("platform"))
	}
}
