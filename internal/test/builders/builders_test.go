package builders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

func TestPresentationBuilder(t *testing.T) {
	t.Run("builds presentation with defaults", func(t *testing.T) {
		presentation := NewPresentationBuilder().Build()

		assert.Equal(t, "pres-1", presentation.ID)
		assert.Equal(t, "Test Presentation", presentation.Title)
		assert.Equal(t, entities.DefaultThemeID, presentation.Theme)
		assert.Empty(t, presentation.Slides)
		assert.NotNil(t, presentation.Slides)
		require.NoError(t, presentation.Validate())
	})

	t.Run("builds presentation with custom values", func(t *testing.T) {
		updated := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

		presentation := NewPresentationBuilder().
			WithID("deck").
			WithTitle("Custom Title").
			WithTheme("dark").
			WithUpdatedAt(updated).
			WithSlideCount(3).
			Build()

		assert.Equal(t, "deck", presentation.ID)
		assert.Equal(t, "Custom Title", presentation.Title)
		assert.Equal(t, "dark", presentation.Theme)
		assert.Equal(t, updated, presentation.UpdatedAt)
		require.Len(t, presentation.Slides, 3)
		assert.Equal(t, "slide-3", presentation.Slides[2].ID)
		assert.Equal(t, "Slide 3", presentation.Slides[2].Title)
		require.NoError(t, presentation.Validate())
	})

	t.Run("build returns independent copies", func(t *testing.T) {
		builder := NewPresentationBuilder().WithSlideCount(1)
		first := builder.Build()
		first.Slides[0].Title = "changed"

		second := builder.Build()
		assert.Equal(t, "Slide 1", second.Slides[0].Title)
	})

	t.Run("helpers", func(t *testing.T) {
		assert.Len(t, MinimalPresentation().Slides, 1)
		assert.Len(t, LargePresentation().Slides, 50)
	})
}

func TestSlideBuilder(t *testing.T) {
	t.Run("builds slide with defaults", func(t *testing.T) {
		slide := NewSlideBuilder().Build()

		assert.Equal(t, "slide-1", slide.ID)
		assert.Equal(t, "Test Slide", slide.Title)
		assert.Equal(t, []string{"- First point", "- Second point"}, slide.Lines())
		assert.Equal(t, entities.LayoutLeft, slide.Layout)
	})

	t.Run("builds slide with custom values", func(t *testing.T) {
		slide := NewSlideBuilder().
			WithID(5).
			WithTitle("Custom").
			WithContent("Body").
			WithLayout(entities.LayoutSplit).
			WithColors("#000000", "#ffffff").
			WithImage("https://example.com/a.png").
			WithChart("data:image/png;base64,AA==").
			WithAlign(entities.AlignRight).
			Build()

		assert.Equal(t, "slide-5", slide.ID)
		assert.Equal(t, "Body", slide.Content)
		assert.Equal(t, entities.LayoutSplit, slide.Layout)
		assert.Equal(t, "#000000", slide.BackgroundColor)
		assert.Equal(t, "#ffffff", slide.TextColor)
		assert.Equal(t, "data:image/png;base64,AA==", slide.Visual())
		assert.Equal(t, entities.AlignRight, slide.TextAlign)
	})
}
