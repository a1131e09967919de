package service

import (
	"context"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/repository"
)

// TagStore is the tag data access interface.
type TagStore interface {
	List(ctx context.Context) ([]domain.Tag, error)
	FindByID(ctx context.Context, id int64) (*domain.Tag, error)
	Create(ctx context.Context, tag domain.Tag) (*domain.Tag, error)
	Update(ctx context.Context, id int64, patch repository.TagPatch) (*domain.Tag, error)
	Delete(ctx context.Context, id int64) error
}

// TagService handles the tag catalog. Reads are public; writes are
// restricted to administrators at the transport layer.
type TagService struct {
	tags TagStore
}

// NewTagService creates a new TagService.
func NewTagService(tags TagStore) *TagService {
	return &TagService{tags: tags}
}

func (s *TagService) List(ctx context.Context) ([]domain.Tag, error) {
	return s.tags.List(ctx)
}

func (s *TagService) Get(ctx context.Context, id int64) (*domain.Tag, error) {
	return s.tags.FindByID(ctx, id)
}

func (s *TagService) Create(ctx context.Context, tag domain.Tag) (*domain.Tag, error) {
	return s.tags.Create(ctx, tag)
}

func (s *TagService) Update(ctx context.Context, id int64, patch repository.TagPatch) (*domain.Tag, error) {
	return s.tags.Update(ctx, id, patch)
}

func (s *TagService) Delete(ctx context.Context, id int64) error {
	return s.tags.Delete(ctx, id)
}
