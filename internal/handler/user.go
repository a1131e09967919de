package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/service"
)

// UserHandler exposes profile reads and updates.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, user)
}

// List handles GET /admin/users.
func (h *UserHandler) List(c echo.Context) error {
	p := listParams(c)
	users, total, err := h.users.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return respondPage(c, users, total, p)
}

type updateUserRequest struct {
	Email  *string `json:"email" validate:"omitempty,email"`
	Avatar *string `json:"avatar" validate:"omitempty,url"`
	Bio    *string `json:"bio" validate:"omitempty,max=500"`
	Role   *string `json:"role" validate:"omitempty,oneof=user admin"`
	InUse  *bool   `json:"in_use"`
}

// Update handles PUT /users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	return h.update(c, id)
}

// UpdateMe handles PUT /users/me.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	return h.update(c, sessionFrom(c).UserID)
}

func (h *UserHandler) update(c echo.Context, id int64) error {
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	input := service.UpdateProfileInput{
		Email:  req.Email,
		Avatar: req.Avatar,
		Bio:    req.Bio,
		InUse:  req.InUse,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		input.Role = &role
	}
	user, err := h.users.Update(c.Request().Context(), sessionFrom(c), id, input)
	if err != nil {
		return err
	}
	return respond(c, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// ChangePassword handles PUT /users/me/password.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.users.ChangePassword(c.Request().Context(), sessionFrom(c).UserID,
		req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return respondMessage(c, "password updated")
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// ResetPassword handles PUT /admin/users/:id/password.
func (h *UserHandler) ResetPassword(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.users.ResetPassword(c.Request().Context(), id, req.NewPassword); err != nil {
		return err
	}
	return respondMessage(c, "password updated")
}
