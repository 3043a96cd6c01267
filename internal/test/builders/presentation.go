package builders

import (
	"strconv"
	"time"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

// PresentationBuilder helps build Presentation entities for testing
type PresentationBuilder struct {
	presentation *entities.Presentation
}

// NewPresentationBuilder creates a new presentation builder with sensible defaults
func NewPresentationBuilder() *PresentationBuilder {
	created := time.Date(2024, 6, 30, 10, 0, 0, 0, time.UTC)
	return &PresentationBuilder{
		presentation: &entities.Presentation{
			ID:        "pres-1",
			Title:     "Test Presentation",
			Theme:     entities.DefaultThemeID,
			Slides:    []entities.Slide{},
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
}

// WithID sets the presentation id
func (b *PresentationBuilder) WithID(id string) *PresentationBuilder {
	b.presentation.ID = id
	return b
}

// WithTitle sets the presentation title
func (b *PresentationBuilder) WithTitle(title string) *PresentationBuilder {
	b.presentation.Title = title
	return b
}

// WithDescription sets the presentation description
func (b *PresentationBuilder) WithDescription(description string) *PresentationBuilder {
	b.presentation.Description = description
	return b
}

// WithUpdatedAt sets the last modification time
func (b *PresentationBuilder) WithUpdatedAt(at time.Time) *PresentationBuilder {
	b.presentation.UpdatedAt = at
	return b
}

// WithTheme sets the presentation theme
func (b *PresentationBuilder) WithTheme(theme string) *PresentationBuilder {
	b.presentation.Theme = theme
	return b
}

// WithSlides sets the presentation slides
func (b *PresentationBuilder) WithSlides(slides []entities.Slide) *PresentationBuilder {
	b.presentation.Slides = slides
	return b
}

// WithSlide adds a single slide to the presentation
func (b *PresentationBuilder) WithSlide(slide entities.Slide) *PresentationBuilder {
	b.presentation.Slides = append(b.presentation.Slides, slide)
	return b
}

// WithSlideCount adds the specified number of default slides
func (b *PresentationBuilder) WithSlideCount(count int) *PresentationBuilder {
	start := len(b.presentation.Slides)
	for i := 0; i < count; i++ {
		n := start + i + 1
		slide := NewSlideBuilder().
			WithID(n).
			WithTitle("Slide " + strconv.Itoa(n)).
			Build()
		b.presentation.Slides = append(b.presentation.Slides, slide)
	}
	return b
}

// Build creates the final Presentation entity
func (b *PresentationBuilder) Build() *entities.Presentation {
	// Deep copy to prevent mutation
	p := b.presentation.Clone()
	if p.Slides == nil {
		p.Slides = []entities.Slide{}
	}
	return &p
}

// SlideBuilder helps build Slide entities for testing
type SlideBuilder struct {
	slide entities.Slide
}

// NewSlideBuilder creates a new slide builder with sensible defaults
func NewSlideBuilder() *SlideBuilder {
	return &SlideBuilder{
		slide: entities.Slide{
			ID:      "slide-1",
			Title:   "Test Slide",
			Content: "- First point\n- Second point",
			Layout:  entities.LayoutLeft,
			Type:    entities.SlideTypeContent,
		},
	}
}

// WithID sets the slide ID to slide-<id>
func (b *SlideBuilder) WithID(id int) *SlideBuilder {
	b.slide.ID = "slide-" + strconv.Itoa(id)
	return b
}

// WithTitle sets the slide title
func (b *SlideBuilder) WithTitle(title string) *SlideBuilder {
	b.slide.Title = title
	return b
}

// WithContent sets the slide body
func (b *SlideBuilder) WithContent(content string) *SlideBuilder {
	b.slide.Content = content
	return b
}

// WithLayout sets the slide layout
func (b *SlideBuilder) WithLayout(layout entities.Layout) *SlideBuilder {
	b.slide.Layout = layout
	return b
}

// WithColors sets background and text colors
func (b *SlideBuilder) WithColors(background, text string) *SlideBuilder {
	b.slide.BackgroundColor = background
	b.slide.TextColor = text
	return b
}

// WithImage sets the image URL
func (b *SlideBuilder) WithImage(url string) *SlideBuilder {
	b.slide.ImageURL = url
	return b
}

// WithChart sets the chart URL
func (b *SlideBuilder) WithChart(url string) *SlideBuilder {
	b.slide.ChartURL = url
	return b
}

// WithAlign sets the text alignment
func (b *SlideBuilder) WithAlign(align entities.TextAlign) *SlideBuilder {
	b.slide.TextAlign = align
	return b
}

// Build creates the final Slide entity
func (b *SlideBuilder) Build() entities.Slide {
	return b.slide
}

// Common presentation types for testing

// MinimalPresentation creates a minimal presentation for basic tests
func MinimalPresentation() *entities.Presentation {
	return NewPresentationBuilder().
		WithTitle("Minimal").
		WithSlideCount(1).
		Build()
}

// LargePresentation creates a presentation with many slides for performance tests
func LargePresentation() *entities.Presentation {
	return NewPresentationBuilder().
		WithTitle("Large Presentation").
		WithSlideCount(50).
		Build()
}
