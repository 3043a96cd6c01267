package entities

import (
	"fmt"
	"time"
)

// Presentation is an ordered deck of slides with metadata. Slide order is the
// only ordering signal; there is no separate order field.
type Presentation struct {
	ID          string    `json:"id" yaml:"id,omitempty"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Slides      []Slide   `json:"slides" yaml:"slides"`
	Theme       string    `json:"theme,omitempty" yaml:"theme,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt,omitempty"`
}

// PresentationData is the caller-supplied part of a new presentation.
type PresentationData struct {
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Slides      []Slide `json:"slides,omitempty" yaml:"slides,omitempty"`
	Theme       string  `json:"theme,omitempty" yaml:"theme,omitempty"`
}

// Validate checks structural invariants that hold for every stored presentation.
func (p *Presentation) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("presentation id is required")
	}

	seen := make(map[string]struct{}, len(p.Slides))
	for i, slide := range p.Slides {
		if slide.ID == "" {
			return fmt.Errorf("slide %d has no id", i+1)
		}
		if _, dup := seen[slide.ID]; dup {
			return fmt.Errorf("duplicate slide id %q", slide.ID)
		}
		seen[slide.ID] = struct{}{}
	}

	return nil
}

// Clone returns a deep copy so callers never share the slide slice with the store.
func (p Presentation) Clone() Presentation {
	if p.Slides != nil {
		slides := make([]Slide, len(p.Slides))
		copy(slides, p.Slides)
		p.Slides = slides
	}
	return p
}

// SlideIndex returns the position of the slide with the given id, or -1.
func (p *Presentation) SlideIndex(id string) int {
	for i := range p.Slides {
		if p.Slides[i].ID == id {
			return i
		}
	}
	return -1
}

// Slide looks up a slide by id.
func (p *Presentation) Slide(id string) (Slide, bool) {
	if i := p.SlideIndex(id); i >= 0 {
		return p.Slides[i], true
	}
	return Slide{}, false
}

// SlideCount returns the total number of slides
func (p *Presentation) SlideCount() int {
	return len(p.Slides)
}

// DisplayTitle returns the title or a generic name for untitled decks.
func (p *Presentation) DisplayTitle() string {
	if p.Title == "" {
		return "presentation"
	}
	return p.Title
}
