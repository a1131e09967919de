package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/service"
)

// FavoriteHandler exposes project bookmarks.
type FavoriteHandler struct {
	favorites *service.FavoriteService
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// Add handles POST /projects/:id/favorites.
func (h *FavoriteHandler) Add(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	fav, err := h.favorites.Add(c.Request().Context(), projectID, sessionFrom(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, fav)
}

// Remove handles DELETE /projects/:id/favorites.
func (h *FavoriteHandler) Remove(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.favorites.Remove(c.Request().Context(), projectID, sessionFrom(c).UserID); err != nil {
		return err
	}
	return respondMessage(c, "favorite removed")
}

// Mine handles GET /favorites.
func (h *FavoriteHandler) Mine(c echo.Context) error {
	favorites, err := h.favorites.ListForUser(c.Request().Context(), sessionFrom(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, favorites)
}

// Fans handles GET /projects/:id/favorites.
func (h *FavoriteHandler) Fans(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	users, err := h.favorites.FansOfProject(c.Request().Context(), projectID)
	if err != nil {
		return err
	}
	return respond(c, users)
}
