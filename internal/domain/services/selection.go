package services

import "github.com/fredcamaral/slidecraft/internal/domain/entities"

// Selection tracks the selected slide of one view. The selected slide itself
// is always derived from the slide list; only its id and last known position
// are kept here.
type Selection struct {
	selectedID string
	lastIndex  int
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{lastIndex: -1}
}

// SelectedID returns the selected slide id or "".
func (s *Selection) SelectedID() string {
	return s.selectedID
}

// Select marks id as selected. It reports false if id is not in slides.
func (s *Selection) Select(id string, slides []entities.Slide) bool {
	for i := range slides {
		if slides[i].ID == id {
			s.selectedID = id
			s.lastIndex = i
			return true
		}
	}
	return false
}

// Clear drops the selection.
func (s *Selection) Clear() {
	s.selectedID = ""
	s.lastIndex = -1
}

// Reconcile re-derives the selection against slides. When the selected slide
// is gone the slide now at the same position is selected, else the last
// slide, else nothing.
func (s *Selection) Reconcile(slides []entities.Slide) {
	if s.selectedID == "" {
		return
	}
	if s.Select(s.selectedID, slides) {
		return
	}
	if len(slides) == 0 {
		s.Clear()
		return
	}

	idx := s.lastIndex
	if idx < 0 {
		idx = 0
	}
	if idx >= len(slides) {
		idx = len(slides) - 1
	}
	s.selectedID = slides[idx].ID
	s.lastIndex = idx
}

// Current returns the selected slide within slides.
func (s *Selection) Current(slides []entities.Slide) (entities.Slide, int, bool) {
	for i := range slides {
		if slides[i].ID == s.selectedID && s.selectedID != "" {
			return slides[i], i, true
		}
	}
	return entities.Slide{}, -1, false
}
