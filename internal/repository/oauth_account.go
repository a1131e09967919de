package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opensharing/showcase/internal/domain"
)

// OAuthAccountRepository stores provider tokens per external identity.
type OAuthAccountRepository struct {
	db *sqlx.DB
}

// NewOAuthAccountRepository creates a new OAuthAccountRepository.
func NewOAuthAccountRepository(db *sqlx.DB) *OAuthAccountRepository {
	return &OAuthAccountRepository{db: db}
}

// Upsert writes the latest provider tokens for (platform, platform_id),
// creating the row if needed. userID is set when the owning user is known
// at callback time; a nil userID never clears an existing link. A stored
// refresh token survives upserts that carry none.
func (r *OAuthAccountRepository) Upsert(ctx context.Context, platform domain.Platform, platformID int64, userID *int64, accessToken string, refreshToken *string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO oauth_accounts (platform, platform_id, user_id, access_token, refresh_token)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (platform, platform_id)
		 DO UPDATE SET access_token = EXCLUDED.access_token,
		               refresh_token = COALESCE(EXCLUDED.refresh_token, oauth_accounts.refresh_token),
		               user_id = COALESCE(EXCLUDED.user_id, oauth_accounts.user_id),
		               updated_at = NOW()`,
		platform, platformID, userID, accessToken, refreshToken)
	if err != nil {
		return fmt.Errorf("upsert oauth account %s/%d: %w", platform, platformID, err)
	}
	return nil
}

// AccessToken returns the stored provider access token for an identity.
func (r *OAuthAccountRepository) AccessToken(ctx context.Context, platform domain.Platform, platformID int64) (string, error) {
	var token string
	err := r.db.GetContext(ctx, &token,
		`SELECT access_token FROM oauth_accounts WHERE platform = $1 AND platform_id = $2`,
		platform, platformID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.AuthenticationError("no pending OAuth account")
		}
		return "", fmt.Errorf("load oauth token %s/%d: %w", platform, platformID, err)
	}
	return token, nil
}

// AttachUser sets the owning user on a still-unlinked account. The
// user_id IS NULL guard makes the attach the consumption point of a
// deferred registration: the first writer wins and any later attempt
// against the same identity is a conflict.
func (r *OAuthAccountRepository) AttachUser(ctx context.Context, platform domain.Platform, platformID, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE oauth_accounts SET user_id = $3, updated_at = NOW()
		 WHERE platform = $1 AND platform_id = $2 AND user_id IS NULL`,
		platform, platformID, userID)
	if err != nil {
		return fmt.Errorf("attach user to oauth account %s/%d: %w", platform, platformID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Conflict("OAuth registration")
	}
	return nil
}
