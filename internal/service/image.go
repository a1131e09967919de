package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/token"
)

// ImageStore is the image metadata interface; file bytes live on disk.
type ImageStore interface {
	Create(ctx context.Context, img domain.Image) (*domain.Image, error)
	FindByID(ctx context.Context, id int64) (*domain.Image, error)
	UnattachedByUser(ctx context.Context, userID int64) ([]domain.Image, error)
	Delete(ctx context.Context, id int64) error
	DeleteUnattachedByUser(ctx context.Context, userID int64) error
}

// ImageService stores uploaded screenshots under generated file names.
// File names are UUIDs, so stored paths never derive from user input.
type ImageService struct {
	store  ImageStore
	dir    string
	logger *slog.Logger
}

// NewImageService creates an ImageService writing into dir. The directory
// is created if missing.
func NewImageService(store ImageStore, dir string) (*ImageService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &ImageService{store: store, dir: dir, logger: slog.With("component", "images")}, nil
}

// Upload saves an image file and records its metadata. Only image/* MIME
// types are accepted.
func (s *ImageService) Upload(ctx context.Context, userID int64, originalName, mimeType string, r io.Reader) (*domain.Image, error) {
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, domain.ValidationError(map[string]string{"file": "only image uploads are accepted"})
	}

	fileName := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(s.dir, fileName)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close image file: %w", err)
	}

	img, err := s.store.Create(ctx, domain.Image{
		FileName:     fileName,
		UserID:       userID,
		OriginalName: originalName,
		MimeType:     mimeType,
	})
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	return img, nil
}

// FilePath resolves a stored file name to its on-disk path. The name is
// reduced to its base so traversal segments cannot escape the upload dir.
func (s *ImageService) FilePath(fileName string) string {
	return filepath.Join(s.dir, filepath.Base(fileName))
}

// Get returns image metadata by id.
func (s *ImageService) Get(ctx context.Context, id int64) (*domain.Image, error) {
	return s.store.FindByID(ctx, id)
}

// ListUnattached returns the user's uploads not yet bound to a project.
func (s *ImageService) ListUnattached(ctx context.Context, userID int64) ([]domain.Image, error) {
	return s.store.UnattachedByUser(ctx, userID)
}

// Delete removes an image's metadata and file. Only the uploader or an
// administrator may. A missing file is not an error; the metadata row is
// authoritative.
func (s *ImageService) Delete(ctx context.Context, session *token.Session, id int64) error {
	img, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if img.UserID != session.UserID && !session.IsAdmin() {
		return domain.PermissionDenied("not allowed to delete this image")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.removeFile(img.FileName)
	return nil
}

// CleanUnattached discards the user's project-less uploads, typically
// after an abandoned submission form.
func (s *ImageService) CleanUnattached(ctx context.Context, userID int64) error {
	images, err := s.store.UnattachedByUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUnattachedByUser(ctx, userID); err != nil {
		return err
	}
	for _, img := range images {
		s.removeFile(img.FileName)
	}
	return nil
}

func (s *ImageService) removeFile(fileName string) {
	if err := os.Remove(s.FilePath(fileName)); err != nil && !os.IsNotExist(err) {
		s.logger.Error("remove image file failed", "file", fileName, "error", err)
	}
}
