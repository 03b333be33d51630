package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

// invalid_text_representation, raised for malformed uuid ids
const pqInvalidTextRepresentation = "22P02"

const projectColumns = `id, title, category, description, image, video, created_at, updated_at`

// ProjectRepository provides persistence operations for projects
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (domain.Project, error) {
	var p domain.Project
	err := s.Scan(&p.ID, &p.Title, &p.Category, &p.Description, &p.Image, &p.Video, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns every project, most recently created first.
func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	const q = `
SELECT ` + projectColumns + `
FROM projects
ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a single project.
func (r *ProjectRepository) Get(ctx context.Context, id string) (domain.Project, error) {
	const q = `
SELECT ` + projectColumns + `
FROM projects
WHERE id = $1;
`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return domain.Project{}, mapNotFound(err)
	}
	return p, nil
}

// Create inserts p and returns it with its assigned id and timestamps.
func (r *ProjectRepository) Create(ctx context.Context, p domain.Project) (domain.Project, error) {
	if !p.IsNew() {
		return domain.Project{}, domain.NewValidationError("must be empty on create", "id")
	}

	const q = `
INSERT INTO projects (id, title, category, description, image, video)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + projectColumns + `;
`
	created, err := scanProject(r.db.QueryRowContext(ctx, q,
		uuid.NewString(), p.Title, p.Category, p.Description, p.Image, p.Video))
	if err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return created, nil
}

// Update applies a partial update and returns the stored record.
func (r *ProjectRepository) Update(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Project, error) {
	const q = `
UPDATE projects
SET title = COALESCE($2, title),
    category = COALESCE($3, category),
    description = COALESCE($4, description),
    image = COALESCE($5, image),
    video = COALESCE($6, video),
    updated_at = now()
WHERE id = $1
RETURNING ` + projectColumns + `;
`
	p, err := scanProject(r.db.QueryRowContext(ctx, q,
		id, patch.Title, patch.Category, patch.Description, patch.Image, patch.Video))
	if err != nil {
		return domain.Project{}, mapNotFound(err)
	}
	return p, nil
}

// Delete removes a project, failing with domain.ErrNotFound if it is absent.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM projects WHERE id = $1;`

	result, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return mapNotFound(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepresentation {
		return domain.ErrNotFound
	}
	return err
}
