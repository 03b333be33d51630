package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_Validate(t *testing.T) {
	t.Run("reports every missing field", func(t *testing.T) {
		err := Project{Title: "  "}.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Equal(t, []string{"title", "category", "description"}, ValidationFields(err))
	})

	t.Run("accepts a complete project", func(t *testing.T) {
		p := Project{Title: "Logo", Category: "branding", Description: "New mark"}
		assert.NoError(t, p.Validate())
	})
}

func TestProject_MediaSlotsAreExclusive(t *testing.T) {
	p := Project{}
	p.SetVideo("/uploads/a.mp4")
	p.SetImage("/uploads/b.jpg")
	assert.Equal(t, "/uploads/b.jpg", p.Image)
	assert.Empty(t, p.Video)
	assert.True(t, p.HasExclusiveMedia())

	p.SetVideo("/uploads/c.mp3")
	assert.Empty(t, p.Image)
	assert.Equal(t, "/uploads/c.mp3", p.Video)

	p.ClearMedia()
	assert.Empty(t, p.Image)
	assert.Empty(t, p.Video)
}

func TestProjectPatch(t *testing.T) {
	base := Project{ID: "p1", Title: "Old", Category: "print", Description: "d", Image: "/i.png"}

	t.Run("apply only touches set fields", func(t *testing.T) {
		title := "New"
		got := ProjectPatch{Title: &title}.Apply(base)
		assert.Equal(t, "New", got.Title)
		assert.Equal(t, "print", got.Category)
		assert.Equal(t, "/i.png", got.Image)
	})

	t.Run("full patch round trips the project", func(t *testing.T) {
		assert.Equal(t, base, PatchFrom(base).Apply(Project{ID: "p1"}))
	})

	t.Run("blank required field is rejected", func(t *testing.T) {
		empty := ""
		err := ProjectPatch{Category: &empty}.Validate()
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Equal(t, []string{"category"}, ValidationFields(err))
	})
}
