package service

import (
	"context"
	"fmt"

	"github.com/designstudio/portfolio-backend/internal/logging"
	"github.com/designstudio/portfolio-backend/internal/projects/domain"
	"github.com/designstudio/portfolio-backend/internal/projects/events"
)

// Store is the persistence the service needs. It is satisfied by
// repository.ProjectRepository.
type Store interface {
	List(ctx context.Context) ([]domain.Project, error)
	Get(ctx context.Context, id string) (domain.Project, error)
	Create(ctx context.Context, p domain.Project) (domain.Project, error)
	Update(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error)
	Delete(ctx context.Context, id string) error
}

// Publisher broadcasts confirmed changes.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// ProjectService validates project mutations, persists them and announces
// them to live subscribers.
type ProjectService struct {
	store     Store
	publisher Publisher
}

// NewProjectService creates a project service. A nil publisher disables
// change events.
func NewProjectService(store Store, publisher Publisher) *ProjectService {
	return &ProjectService{store: store, publisher: publisher}
}

// List returns all projects, most recent first.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.store.List(ctx)
}

// Get returns a single project.
func (s *ProjectService) Get(ctx context.Context, id string) (domain.Project, error) {
	return s.store.Get(ctx, id)
}

// Create validates and persists a new project.
func (s *ProjectService) Create(ctx context.Context, p domain.Project) (domain.Project, error) {
	if !p.IsNew() {
		return domain.Project{}, domain.NewValidationError("must be empty for new projects", "id")
	}
	if err := p.Validate(); err != nil {
		return domain.Project{}, err
	}
	if !p.HasExclusiveMedia() {
		return domain.Project{}, domain.NewValidationError("only one media reference allowed", "image", "video")
	}

	created, err := s.store.Create(ctx, p)
	if err != nil {
		return domain.Project{}, fmt.Errorf("create project: %w", err)
	}
	s.publish(ctx, events.Created(created))
	return created, nil
}

// Update applies a partial update to an existing project.
func (s *ProjectService) Update(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	if id == "" {
		return domain.Project{}, domain.NewValidationError("required", "id")
	}
	if err := patch.Validate(); err != nil {
		return domain.Project{}, err
	}
	if patch.Image != nil && patch.Video != nil && *patch.Image != "" && *patch.Video != "" {
		return domain.Project{}, domain.NewValidationError("only one media reference allowed", "image", "video")
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return domain.Project{}, fmt.Errorf("update project: %w", err)
	}
	s.publish(ctx, events.Updated(updated))
	return updated, nil
}

// Delete removes a project permanently.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.publish(ctx, events.Deleted(id))
	return nil
}

func (s *ProjectService) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warnf("projects.publish", "type=%s id=%s error=%v", ev.Type, ev.ID, err)
	}
}
