package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/repository"
	"github.com/opensharing/showcase/internal/service"
)

// TagHandler exposes the tag catalog.
type TagHandler struct {
	tags *service.TagService
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

// List handles GET /tags.
func (h *TagHandler) List(c echo.Context) error {
	tags, err := h.tags.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, tags)
}

// Get handles GET /tags/:id.
func (h *TagHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	tag, err := h.tags.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, tag)
}

type createTagRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Category    string `json:"category" validate:"required,max=50"`
	Description string `json:"description" validate:"max=500"`
}

// Create handles POST /admin/tags.
func (h *TagHandler) Create(c echo.Context) error {
	var req createTagRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tag, err := h.tags.Create(c.Request().Context(), domain.Tag{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return respond(c, tag)
}

type updateTagRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=50"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// Update handles PUT /admin/tags/:id.
func (h *TagHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateTagRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tag, err := h.tags.Update(c.Request().Context(), id, repository.TagPatch{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return respond(c, tag)
}

// Delete handles DELETE /admin/tags/:id.
func (h *TagHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.tags.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return respondMessage(c, "tag deleted")
}
