package domain

import (
	"strings"
	"time"
)

// Project is a single portfolio entry. An empty ID means the project has not
// been persisted yet.
type Project struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Video       string    `json:"video"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// IsNew reports whether the project still needs to be created.
func (p Project) IsNew() bool {
	return strings.TrimSpace(p.ID) == ""
}

// Validate checks the required display fields and reports every missing one.
func (p Project) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(p.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Reason: "required"}
	}
	return nil
}

// SetImage attaches a static image and detaches any video/audio reference.
func (p *Project) SetImage(url string) {
	p.Image = url
	p.Video = ""
}

// SetVideo attaches a video or audio reference and detaches any image.
func (p *Project) SetVideo(url string) {
	p.Video = url
	p.Image = ""
}

// ClearMedia removes both media references.
func (p *Project) ClearMedia() {
	p.Image = ""
	p.Video = ""
}

// HasExclusiveMedia reports whether at most one media slot is populated.
func (p Project) HasExclusiveMedia() bool {
	return p.Image == "" || p.Video == ""
}

// ProjectPatch is a partial update. Nil fields are left untouched.
type ProjectPatch struct {
	Title       *string `json:"title,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
	Video       *string `json:"video,omitempty"`
}

// PatchFrom builds a patch that overwrites every editable field of p.
func PatchFrom(p Project) ProjectPatch {
	return ProjectPatch{
		Title:       &p.Title,
		Category:    &p.Category,
		Description: &p.Description,
		Image:       &p.Image,
		Video:       &p.Video,
	}
}

// Validate rejects patches that would blank a required field.
func (pp ProjectPatch) Validate() error {
	var missing []string
	if pp.Title != nil && strings.TrimSpace(*pp.Title) == "" {
		missing = append(missing, "title")
	}
	if pp.Category != nil && strings.TrimSpace(*pp.Category) == "" {
		missing = append(missing, "category")
	}
	if pp.Description != nil && strings.TrimSpace(*pp.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Reason: "must not be empty"}
	}
	return nil
}

// Apply returns a copy of p with the patch applied.
func (pp ProjectPatch) Apply(p Project) Project {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Image != nil {
		p.Image = *pp.Image
	}
	if pp.Video != nil {
		p.Video = *pp.Video
	}
	return p
}
