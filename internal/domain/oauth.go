package domain

import "time"

// OAuthAccount stores provider tokens for an external identity. UserID is
// null between the OAuth callback and deferred-registration completion;
// it transitions from null to set exactly once.
type OAuthAccount struct {
	ID           int64     `json:"id" db:"id"`
	UserID       *int64    `json:"user_id,omitempty" db:"user_id"`
	Platform     Platform  `json:"platform" db:"platform"`
	PlatformID   int64     `json:"platform_id" db:"platform_id"`
	AccessToken  string    `json:"-" db:"access_token"`
	RefreshToken *string   `json:"-" db:"refresh_token"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
