package service

import (
	"context"
	"errors"
	"time"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/password"
	"github.com/opensharing/showcase/internal/platform"
	"github.com/opensharing/showcase/internal/token"
)

// UserStore is the user data access interface consumed by AuthService.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByPlatformID(ctx context.Context, platform domain.Platform, platformID int64) (*domain.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user domain.User) (*domain.User, error)
	TouchLogin(ctx context.Context, id int64) error
	RefreshOAuthProfile(ctx context.Context, userID int64, platform domain.Platform, name, avatar string) (*domain.User, error)
	LinkOAuthIdentity(ctx context.Context, userID int64, platform domain.Platform, platformID int64, name, avatar string) (*domain.User, error)
}

// OAuthAccountStore persists provider tokens per external identity.
type OAuthAccountStore interface {
	Upsert(ctx context.Context, platform domain.Platform, platformID int64, userID *int64, accessToken string, refreshToken *string) error
	AccessToken(ctx context.Context, platform domain.Platform, platformID int64) (string, error)
	AttachUser(ctx context.Context, platform domain.Platform, platformID, userID int64) error
}

// AuthService handles password login, registration, and the OAuth
// account-linking flow.
type AuthService struct {
	users     UserStore
	accounts  OAuthAccountStore
	clients   map[domain.Platform]platform.Client
	tokens    *token.Issuer
	passwords *password.Hasher
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, accounts OAuthAccountStore, clients []platform.Client, tokens *token.Issuer, passwords *password.Hasher) *AuthService {
	byPlatform := make(map[domain.Platform]platform.Client, len(clients))
	for _, c := range clients {
		byPlatform[c.Platform()] = c
	}
	return &AuthService{
		users:     users,
		accounts:  accounts,
		clients:   byPlatform,
		tokens:    tokens,
		passwords: passwords,
	}
}

// TokenTTL returns the session token lifetime, for cookie expiry.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// VerifySession validates a session token.
func (s *AuthService) VerifySession(tokenString string) (*token.Session, error) {
	return s.tokens.VerifyUser(tokenString)
}

// VerifyOAuthGrant validates a deferred-registration token.
func (s *AuthService) VerifyOAuthGrant(tokenString string) (*token.OAuthGrant, error) {
	return s.tokens.VerifyOAuth(tokenString)
}

// Login authenticates a local account with username and password.
func (s *AuthService) Login(ctx context.Context, username, plaintext string) (*domain.User, string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return nil, "", domain.AuthenticationError("incorrect username or password")
		}
		return nil, "", err
	}
	if !s.passwords.Verify(user.PasswordHash, plaintext) {
		return nil, "", domain.AuthenticationError("incorrect username or password")
	}
	if !user.InUse {
		return nil, "", domain.PermissionDenied("account is deactivated or banned")
	}

	if err := s.users.TouchLogin(ctx, user.ID); err != nil {
		return nil, "", err
	}
	sessionToken, err := s.tokens.IssueUser(user)
	if err != nil {
		return nil, "", err
	}
	return user, sessionToken, nil
}

// RegisterInput is the payload for local and deferred-OAuth registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a local account and logs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	if err := s.checkAvailability(ctx, input); err != nil {
		return nil, "", err
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.Create(ctx, domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		LastLogin:    time.Now(),
	})
	if err != nil {
		return nil, "", err
	}

	sessionToken, err := s.tokens.IssueUser(user)
	if err != nil {
		return nil, "", err
	}
	return user, sessionToken, nil
}

// AuthorizeURL returns the provider's consent page URL.
func (s *AuthService) AuthorizeURL(p domain.Platform) (string, error) {
	client, ok := s.clients[p]
	if !ok {
		return "", domain.NotFound("platform " + string(p))
	}
	return client.AuthorizeURL(), nil
}

// OAuthOutcome is the result of an OAuth callback. Either an existing
// user was logged in (Login true, Token is a session token) or the
// identity is new and Token is a deferred-registration token with Email
// carrying the candidate address for pre-fill (possibly empty).
type OAuthOutcome struct {
	Login bool
	User  *domain.User
	Token string
	Email string
}

// OAuthLogin runs the account-linking decision tree for an authorization
// code. Resolution order is strict: linked account first, then verified
// email, then deferred registration. The provider tokens are upserted
// exactly once whichever branch is taken.
func (s *AuthService) OAuthLogin(ctx context.Context, p domain.Platform, code string) (*OAuthOutcome, error) {
	client, ok := s.clients[p]
	if !ok {
		return nil, domain.NotFound("platform " + string(p))
	}

	providerToken, err := client.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	identity, err := client.CurrentUser(ctx, providerToken.AccessToken)
	if err != nil {
		return nil, err
	}

	// Linked-account match: this identity already belongs to a user.
	user, err := s.users.FindByPlatformID(ctx, p, identity.ID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if user != nil {
		if !user.InUse {
			return nil, domain.PermissionDenied("account is deactivated or banned")
		}
		user, err = s.users.RefreshOAuthProfile(ctx, user.ID, p, identity.Login, identity.AvatarURL)
		if err != nil {
			return nil, err
		}
		return s.loginOutcome(ctx, p, identity.ID, user, providerToken)
	}

	// Email match: the provider's verified primary email belongs to an
	// existing local account. The client returns "" when the provider
	// reports no usable email, which skips this branch entirely.
	email, err := client.VerifiedPrimaryEmail(ctx, providerToken.AccessToken, identity)
	if err != nil {
		return nil, err
	}
	if email != "" {
		user, err = s.users.FindByEmail(ctx, email)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		if user != nil {
			if !user.InUse {
				return nil, domain.PermissionDenied("account matched by email is deactivated or banned")
			}
			user, err = s.users.LinkOAuthIdentity(ctx, user.ID, p, identity.ID, identity.Login, identity.AvatarURL)
			if err != nil {
				return nil, err
			}
			return s.loginOutcome(ctx, p, identity.ID, user, providerToken)
		}
	}

	// No match: hand out a deferred-registration token and park the
	// provider tokens on an unowned OAuthAccount row.
	grantToken, err := s.tokens.IssueOAuth(p, identity.ID, identity.Login)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Upsert(ctx, p, identity.ID, nil, providerToken.AccessToken, optional(providerToken.RefreshToken)); err != nil {
		return nil, err
	}
	return &OAuthOutcome{Token: grantToken, Email: email}, nil
}

func (s *AuthService) loginOutcome(ctx context.Context, p domain.Platform, platformID int64, user *domain.User, providerToken platform.Token) (*OAuthOutcome, error) {
	sessionToken, err := s.tokens.IssueUser(user)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Upsert(ctx, p, platformID, &user.ID, providerToken.AccessToken, optional(providerToken.RefreshToken)); err != nil {
		return nil, err
	}
	return &OAuthOutcome{Login: true, User: user, Token: sessionToken}, nil
}

// CompleteOAuthRegistration finishes a deferred registration. The external
// profile is re-fetched with the access token stored at callback time;
// client-supplied profile data is never trusted. The attach of the new
// user onto the pending OAuthAccount row is guarded to fire once, so a
// replayed grant fails with a conflict instead of relinking the identity.
func (s *AuthService) CompleteOAuthRegistration(ctx context.Context, grant *token.OAuthGrant, input RegisterInput) (*domain.User, string, error) {
	client, ok := s.clients[grant.Platform]
	if !ok {
		return nil, "", domain.NotFound("platform " + string(grant.Platform))
	}
	if err := s.checkAvailability(ctx, input); err != nil {
		return nil, "", err
	}

	accessToken, err := s.accounts.AccessToken(ctx, grant.Platform, grant.PlatformID)
	if err != nil {
		return nil, "", err
	}
	identity, err := client.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, "", err
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, "", err
	}

	user := domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		LastLogin:    time.Now(),
		Avatar:       optional(identity.AvatarURL),
	}
	if grant.Platform == domain.PlatformGitHub {
		user.GithubID = &identity.ID
		user.GithubName = &identity.Login
	} else {
		user.GiteeID = &identity.ID
		user.GiteeName = &identity.Login
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}
	if err := s.accounts.AttachUser(ctx, grant.Platform, identity.ID, created.ID); err != nil {
		return nil, "", err
	}

	sessionToken, err := s.tokens.IssueUser(created)
	if err != nil {
		return nil, "", err
	}
	return created, sessionToken, nil
}

func (s *AuthService) checkAvailability(ctx context.Context, input RegisterInput) error {
	taken, err := s.users.UsernameExists(ctx, input.Username)
	if err != nil {
		return err
	}
	if taken {
		return domain.Conflict("username")
	}
	taken, err = s.users.EmailExists(ctx, input.Email)
	if err != nil {
		return err
	}
	if taken {
		return domain.Conflict("email")
	}
	return nil
}

func isNotFound(err error) bool {
	var appErr *domain.Error
	return errors.As(err, &appErr) && appErr.Code == domain.CodeNotFound
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
