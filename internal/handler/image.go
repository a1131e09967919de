package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/service"
)

// ImageHandler exposes screenshot uploads.
type ImageHandler struct {
	images *service.ImageService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images *service.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// Upload handles POST /images (multipart, field "file").
func (h *ImageHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return domain.ValidationError(map[string]string{"file": "is required"})
	}
	f, err := fileHeader.Open()
	if err != nil {
		return domain.Internal(err)
	}
	defer f.Close()

	img, err := h.images.Upload(c.Request().Context(), sessionFrom(c).UserID,
		fileHeader.Filename, fileHeader.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		return err
	}
	return respond(c, img)
}

// Serve handles GET /images/:file_name, streaming the file from disk.
func (h *ImageHandler) Serve(c echo.Context) error {
	return c.File(h.images.FilePath(c.Param("file_name")))
}

// Unattached handles GET /images/unattached.
func (h *ImageHandler) Unattached(c echo.Context) error {
	images, err := h.images.ListUnattached(c.Request().Context(), sessionFrom(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, images)
}

// Delete handles DELETE /images/:id.
func (h *ImageHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.images.Delete(c.Request().Context(), sessionFrom(c), id); err != nil {
		return err
	}
	return respondMessage(c, "image deleted")
}

// CleanUnattached handles DELETE /images/unattached.
func (h *ImageHandler) CleanUnattached(c echo.Context) error {
	if err := h.images.CleanUnattached(c.Request().Context(), sessionFrom(c).UserID); err != nil {
		return err
	}
	return respondMessage(c, "unattached images removed")
}
