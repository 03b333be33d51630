package http

import (
	"context"

	"github.com/designstudio/portfolio-backend/internal/media"
	"github.com/designstudio/portfolio-backend/internal/projects/domain"
	"github.com/designstudio/portfolio-backend/internal/projects/events"
)

// ProjectService is the business API behind the project endpoints.
type ProjectService interface {
	List(ctx context.Context) ([]domain.Project, error)
	Get(ctx context.Context, id string) (domain.Project, error)
	Create(ctx context.Context, p domain.Project) (domain.Project, error)
	Update(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error)
	Delete(ctx context.Context, id string) error
}

// Uploader stores an uploaded media file.
type Uploader interface {
	Upload(ctx context.Context, f media.File) (media.Ref, error)
}

// Subscriber delivers confirmed project changes.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan events.Event, func(), error)
}

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	svc      ProjectService
	uploader Uploader
	sub      Subscriber
}

// New creates the handler. sub may be nil, which disables the live stream.
func New(svc ProjectService, uploader Uploader, sub Subscriber) *Handler {
	return &Handler{svc: svc, uploader: uploader, sub: sub}
}

type projectReq struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Video       string `json:"video"`
}

func (r projectReq) toProject() domain.Project {
	return domain.Project{
		Title:       r.Title,
		Category:    r.Category,
		Description: r.Description,
		Image:       r.Image,
		Video:       r.Video,
	}
}
