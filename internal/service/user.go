package service

import (
	"context"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/password"
	"github.com/opensharing/showcase/internal/repository"
	"github.com/opensharing/showcase/internal/token"
)

// UserDirectory is the user management interface consumed by UserService.
type UserDirectory interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, p repository.ListParams) ([]domain.User, int, error)
	Update(ctx context.Context, id int64, patch repository.UserPatch) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// UserService handles profile reads and updates.
type UserService struct {
	users     UserDirectory
	passwords *password.Hasher
}

// NewUserService creates a new UserService.
func NewUserService(users UserDirectory, passwords *password.Hasher) *UserService {
	return &UserService{users: users, passwords: passwords}
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// List returns a page of users plus the total. Admin only.
func (s *UserService) List(ctx context.Context, p repository.ListParams) ([]domain.User, int, error) {
	return s.users.List(ctx, p)
}

// UpdateProfileInput is the self-service editable part of a profile plus
// the admin-only moderation fields.
type UpdateProfileInput struct {
	Email  *string
	Avatar *string
	Bio    *string
	Role   *domain.Role
	InUse  *bool
}

// Update edits a profile. Users may only edit themselves; the role and
// in-use flags are reserved to administrators, who may also edit anyone.
func (s *UserService) Update(ctx context.Context, session *token.Session, targetID int64, input UpdateProfileInput) (*domain.User, error) {
	if targetID != session.UserID && !session.IsAdmin() {
		return nil, domain.PermissionDenied("not allowed to modify this user")
	}
	if (input.Role != nil || input.InUse != nil) && !session.IsAdmin() {
		return nil, domain.PermissionDenied("only administrators can change role or account status")
	}
	return s.users.Update(ctx, targetID, repository.UserPatch{
		Email:  input.Email,
		Avatar: input.Avatar,
		Bio:    input.Bio,
		Role:   input.Role,
		InUse:  input.InUse,
	})
}

// ResetPassword sets a user's password without a current-password check.
// Reserved to administrators.
func (s *UserService) ResetPassword(ctx context.Context, userID int64, replacement string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	hash, err := s.passwords.Hash(replacement)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// ChangePassword replaces the user's password after verifying the current
// one.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, replacement string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.passwords.Verify(user.PasswordHash, current) {
		return domain.AuthenticationError("current password is incorrect")
	}
	hash, err := s.passwords.Hash(replacement)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}
