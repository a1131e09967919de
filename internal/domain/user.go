package domain

import "time"

// Role controls access to administrative operations.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Platform identifies an external repository hosting platform.
type Platform string

const (
	PlatformGitHub Platform = "GitHub"
	PlatformGitee  Platform = "Gitee"
)

// User represents a registered account. A user may additionally carry a
// linked identity per platform (GithubID / GiteeID); at most one user
// exists per (platform, platform id) pair.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Email        string    `json:"email" db:"email"`
	Avatar       *string   `json:"avatar,omitempty" db:"avatar"`
	Bio          string    `json:"bio" db:"bio"`
	Role         Role      `json:"role" db:"role"`
	LastLogin    time.Time `json:"last_login" db:"last_login"`
	GithubID     *int64    `json:"github_id,omitempty" db:"github_id"`
	GiteeID      *int64    `json:"gitee_id,omitempty" db:"gitee_id"`
	GithubName   *string   `json:"github_name,omitempty" db:"github_name"`
	GiteeName    *string   `json:"gitee_name,omitempty" db:"gitee_name"`
	InUse        bool      `json:"in_use" db:"in_use"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PlatformID returns the linked identity for the given platform, if any.
func (u *User) PlatformID(platform Platform) *int64 {
	if platform == PlatformGitHub {
		return u.GithubID
	}
	return u.GiteeID
}
