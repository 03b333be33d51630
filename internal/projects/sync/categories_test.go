package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

func TestCategories(t *testing.T) {
	projects := SampleProjects()
	projects = append(projects, domain.Project{Title: "Rebrand", Category: "branding"}, domain.Project{Title: "x", Category: "Branding"})

	assert.Equal(t, []string{"branding", "packaging", "print", "ui", "Branding"}, Categories(projects))
	assert.Empty(t, Categories(nil))
}

func TestFilterByCategory(t *testing.T) {
	projects := SampleProjects()

	assert.Len(t, FilterByCategory(projects, AllCategories), 4)
	assert.Len(t, FilterByCategory(projects, ""), 4)

	got := FilterByCategory(projects, "print")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "Editorial Design", got[0].Title)
	}
	assert.Empty(t, FilterByCategory(projects, "Print"))
}
