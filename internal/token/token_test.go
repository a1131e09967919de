package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensharing/showcase/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{ID: 42, Username: "alice", Role: domain.RoleAdmin}
}

func TestUserTokenRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	signed, err := issuer.IssueUser(testUser())
	require.NoError(t, err)

	session, err := issuer.VerifyUser(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), session.UserID)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, domain.RoleAdmin, session.Role)
	assert.True(t, session.IsAdmin())
}

func TestOAuthTokenRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	signed, err := issuer.IssueOAuth(domain.PlatformGitee, 777, "bob")
	require.NoError(t, err)

	grant, err := issuer.VerifyOAuth(signed)
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformGitee, grant.Platform)
	assert.Equal(t, int64(777), grant.PlatformID)
	assert.Equal(t, "bob", grant.Name)
}

// A token of one shape must never pass verification as the other.
func TestTokenShapesAreNotInterchangeable(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	userToken, err := issuer.IssueUser(testUser())
	require.NoError(t, err)
	oauthToken, err := issuer.IssueOAuth(domain.PlatformGitHub, 1, "carol")
	require.NoError(t, err)

	_, err = issuer.VerifyOAuth(userToken)
	assertAuthError(t, err)

	_, err = issuer.VerifyUser(oauthToken)
	assertAuthError(t, err)
}

func TestVerifyUserRejections(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "garbage",
			token: func(t *testing.T) string { return "not.a.token" },
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				other := NewIssuer("other-secret", time.Hour)
				signed, err := other.IssueUser(testUser())
				require.NoError(t, err)
				return signed
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				expired := NewIssuer("test-secret", -time.Minute)
				signed, err := expired.IssueUser(testUser())
				require.NoError(t, err)
				return signed
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.VerifyUser(tt.token(t))
			assertAuthError(t, err)
		})
	}
}

func assertAuthError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*domain.Error)
	require.True(t, ok, "expected *domain.Error, got %T", err)
	assert.Equal(t, domain.CodeAuthentication, appErr.Code)
}
