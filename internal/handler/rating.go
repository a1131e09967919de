package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/service"
)

// RatingHandler exposes project ratings.
type RatingHandler struct {
	ratings *service.RatingService
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(ratings *service.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

type rateRequest struct {
	Score *int `json:"score" validate:"required,min=0,max=10"`
}

// Rate handles POST /projects/:id/ratings.
func (h *RatingHandler) Rate(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req rateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	agg, err := h.ratings.Rate(c.Request().Context(), projectID, sessionFrom(c).UserID, *req.Score)
	if err != nil {
		return err
	}
	return respond(c, agg)
}

// Mine handles GET /projects/:id/ratings/me.
func (h *RatingHandler) Mine(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rating, err := h.ratings.MyRating(c.Request().Context(), projectID, sessionFrom(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, rating)
}

// Distribution handles GET /projects/:id/ratings.
func (h *RatingHandler) Distribution(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	buckets, err := h.ratings.Distribution(c.Request().Context(), projectID)
	if err != nil {
		return err
	}
	return respond(c, buckets)
}

// Resync handles POST /admin/ratings/resync.
func (h *RatingHandler) Resync(c echo.Context) error {
	if err := h.ratings.Resync(c.Request().Context()); err != nil {
		return err
	}
	return respondMessage(c, "rating aggregates resynced")
}
