// Package token mints and verifies the two bearer token shapes the API
// accepts: full user sessions and deferred OAuth registration grants.
// The shapes are discriminated by a "typ" claim so one can never be
// presented where the other is required.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/opensharing/showcase/internal/domain"
)

const (
	typUser  = "user"
	typOAuth = "oauth"
)

// Session is the verified payload of a user session token.
type Session struct {
	UserID   int64
	Username string
	Role     domain.Role
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool {
	return s.Role == domain.RoleAdmin
}

// OAuthGrant is the verified payload of a deferred-registration token. It
// proves the holder completed an OAuth code exchange for this external
// identity but has no local account yet.
type OAuthGrant struct {
	Platform   domain.Platform
	PlatformID int64
	Name       string
}

type userClaims struct {
	Typ      string      `json:"typ"`
	Username string      `json:"name"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type oauthClaims struct {
	Typ        string          `json:"typ"`
	Platform   domain.Platform `json:"platform"`
	PlatformID int64           `json:"platform_id"`
	Name       string          `json:"name"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with a fixed expiry.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer. ttl applies to every issued token.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// IssueUser mints a session token for the given user.
func (i *Issuer) IssueUser(user *domain.User) (string, error) {
	now := time.Now()
	claims := userClaims{
		Typ:      typUser,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign user token: %w", err)
	}
	return signed, nil
}

// IssueOAuth mints a deferred-registration token for an external identity
// that has no local account yet.
func (i *Issuer) IssueOAuth(platform domain.Platform, platformID int64, name string) (string, error) {
	now := time.Now()
	claims := oauthClaims{
		Typ:        typOAuth,
		Platform:   platform,
		PlatformID: platformID,
		Name:       name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign oauth token: %w", err)
	}
	return signed, nil
}

// VerifyUser validates a session token. Malformed, forged, expired, or
// wrong-shape tokens all yield an authentication error.
func (i *Issuer) VerifyUser(tokenString string) (*Session, error) {
	var claims userClaims
	if err := i.parse(tokenString, &claims); err != nil {
		return nil, err
	}
	if claims.Typ != typUser {
		return nil, domain.AuthenticationError("not a session token")
	}
	var userID int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil {
		return nil, domain.AuthenticationError("invalid token subject")
	}
	return &Session{UserID: userID, Username: claims.Username, Role: claims.Role}, nil
}

// VerifyOAuth validates a deferred-registration token.
func (i *Issuer) VerifyOAuth(tokenString string) (*OAuthGrant, error) {
	var claims oauthClaims
	if err := i.parse(tokenString, &claims); err != nil {
		return nil, err
	}
	if claims.Typ != typOAuth {
		return nil, domain.AuthenticationError("not an oauth registration token")
	}
	return &OAuthGrant{
		Platform:   claims.Platform,
		PlatformID: claims.PlatformID,
		Name:       claims.Name,
	}, nil
}

func (i *Issuer) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.AuthenticationError("invalid token")
	}
	return nil
}
