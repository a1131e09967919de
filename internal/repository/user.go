package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/opensharing/showcase/internal/domain"
)

const userColumns = `id, username, password_hash, email, avatar, bio, role, last_login,
	github_id, gitee_id, github_name, gitee_name, in_use, created_at, updated_at`

// UserRepository handles user data access.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(fmt.Sprintf("user %d", id))
		}
		return nil, fmt.Errorf("find user by id %d: %w", id, err)
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user " + username)
		}
		return nil, fmt.Errorf("find user by username %s: %w", username, err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user")
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByPlatformID retrieves the user linked to an external identity.
func (r *UserRepository) FindByPlatformID(ctx context.Context, platform domain.Platform, platformID int64) (*domain.User, error) {
	col, _ := platformColumns(platform)
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE `+col+` = $1`, platformID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("user")
		}
		return nil, fmt.Errorf("find user by %s %d: %w", col, platformID, err)
	}
	return &user, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new user. u.LastLogin should already be set by the caller.
func (r *UserRepository) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	var created domain.User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, password_hash, email, avatar, bio, role, last_login,
		                    github_id, gitee_id, github_name, gitee_name, in_use, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, NOW())
		 RETURNING `+userColumns,
		u.Username, u.PasswordHash, u.Email, u.Avatar, u.Bio, u.Role, u.LastLogin,
		u.GithubID, u.GiteeID, u.GithubName, u.GiteeName,
	).StructScan(&created)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("user")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

// TouchLogin updates the last-login timestamp.
func (r *UserRepository) TouchLogin(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch login for user %d: %w", id, err)
	}
	return nil
}

// RefreshOAuthProfile updates the cached platform display name and
// last-login for an already linked user. The avatar is only filled when
// previously unset; a stored avatar is never overwritten.
func (r *UserRepository) RefreshOAuthProfile(ctx context.Context, userID int64, platform domain.Platform, name, avatar string) (*domain.User, error) {
	_, nameCol := platformColumns(platform)
	var user domain.User
	err := r.db.QueryRowxContext(ctx,
		`UPDATE users
		 SET `+nameCol+` = $2,
		     avatar = COALESCE(avatar, $3),
		     last_login = NOW(),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		userID, name, avatar,
	).StructScan(&user)
	if err != nil {
		return nil, fmt.Errorf("refresh oauth profile for user %d: %w", userID, err)
	}
	return &user, nil
}

// LinkOAuthIdentity writes the platform id and display name onto a user
// matched by verified email (first-time silent link). Avatar fills only
// when unset, same as RefreshOAuthProfile.
func (r *UserRepository) LinkOAuthIdentity(ctx context.Context, userID int64, platform domain.Platform, platformID int64, name, avatar string) (*domain.User, error) {
	idCol, nameCol := platformColumns(platform)
	var user domain.User
	err := r.db.QueryRowxContext(ctx,
		`UPDATE users
		 SET `+idCol+` = $2,
		     `+nameCol+` = $3,
		     avatar = COALESCE(avatar, $4),
		     last_login = NOW(),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		userID, platformID, name, avatar,
	).StructScan(&user)
	if err != nil {
		return nil, fmt.Errorf("link %s identity to user %d: %w", platform, userID, err)
	}
	return &user, nil
}

var userOrderColumns = map[string]bool{
	"id": true, "username": true, "email": true, "role": true,
	"last_login": true, "in_use": true, "created_at": true, "updated_at": true,
}

// List returns a page of users plus the total count.
func (r *UserRepository) List(ctx context.Context, p ListParams) ([]domain.User, int, error) {
	order, err := p.orderClause(userOrderColumns, "id")
	if err != nil {
		return nil, 0, err
	}

	users := []domain.User{}
	err = r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users ORDER BY `+order+` OFFSET $1 LIMIT $2`,
		p.Offset(), p.PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// UserPatch is a partial user update; nil fields are left untouched.
type UserPatch struct {
	Email  *string
	Avatar *string
	Bio    *string
	Role   *domain.Role
	InUse  *bool
}

// Update applies a partial update and returns the updated user.
func (r *UserRepository) Update(ctx context.Context, id int64, patch UserPatch) (*domain.User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Avatar != nil {
		add("avatar", *patch.Avatar)
	}
	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	if patch.Role != nil {
		add("role", *patch.Role)
	}
	if patch.InUse != nil {
		add("in_use", *patch.InUse)
	}

	var user domain.User
	err := r.db.QueryRowxContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+userColumns,
		args...,
	).StructScan(&user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(fmt.Sprintf("user %d", id))
		}
		if isUniqueViolation(err) {
			return nil, domain.Conflict("email")
		}
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return &user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password for user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound(fmt.Sprintf("user %d", id))
	}
	return nil
}

func platformColumns(p domain.Platform) (idCol, nameCol string) {
	if p == domain.PlatformGitHub {
		return "github_id", "github_name"
	}
	return "gitee_id", "gitee_name"
}
