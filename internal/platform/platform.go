// Package platform talks to the external repository hosting platforms:
// OAuth code exchange, identity and verified-email lookup, and repository
// metadata fetches. Responses are validated into typed records at this
// boundary so provider schema drift fails fast in one place.
package platform

import (
	"context"

	"github.com/opensharing/showcase/internal/domain"
)

// Token is the result of an authorization-code exchange. RefreshToken is
// empty for providers that do not issue one.
type Token struct {
	AccessToken  string
	RefreshToken string
}

// Identity is the external user behind an access token.
type Identity struct {
	ID        int64
	Login     string
	AvatarURL string
	Email     string
}

// Client is implemented once per hosting platform.
type Client interface {
	Platform() domain.Platform

	// AuthorizeURL is where the browser is sent to start the OAuth flow.
	AuthorizeURL() string

	// Exchange trades an authorization code for provider tokens. A failed
	// exchange is terminal for the request; there is no retry.
	Exchange(ctx context.Context, code string) (Token, error)

	// CurrentUser fetches the identity behind the access token.
	CurrentUser(ctx context.Context, accessToken string) (*Identity, error)

	// VerifiedPrimaryEmail resolves the identity's verified primary email,
	// or "" when the provider reports none. Implementations may skip the
	// email-list call entirely when the profile already signals that no
	// usable email exists.
	VerifiedPrimaryEmail(ctx context.Context, accessToken string, user *Identity) (string, error)

	// RepoDetail fetches repository metadata and contributor count for a
	// repo identified as "owner/name".
	RepoDetail(ctx context.Context, repoID string) (*domain.RepoDetail, error)
}
