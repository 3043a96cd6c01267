package services

import (
	"fmt"
	"sync"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

// EditingSession is one view's editing context over a presentation. All
// writes go through the store; the session only owns the selection.
type EditingSession struct {
	mu             sync.Mutex
	store          *Store
	presentationID string
	selection      *Selection
}

// NewEditingSession opens a session on a stored presentation and selects its
// first slide.
func NewEditingSession(store *Store, presentationID string) (*EditingSession, error) {
	p, ok := store.Presentation(presentationID)
	if !ok {
		return nil, fmt.Errorf("opening editor for %s: %w", presentationID, entities.ErrPresentationNotFound)
	}

	es := &EditingSession{store: store, presentationID: presentationID, selection: NewSelection()}
	if len(p.Slides) > 0 {
		es.selection.Select(p.Slides[0].ID, p.Slides)
	}
	return es, nil
}

// PresentationID returns the id of the edited presentation.
func (es *EditingSession) PresentationID() string {
	return es.presentationID
}

func (es *EditingSession) slides() ([]entities.Slide, error) {
	p, ok := es.store.Presentation(es.presentationID)
	if !ok {
		return nil, entities.ErrPresentationNotFound
	}
	return p.Slides, nil
}

// Refresh re-derives the selection after changes made elsewhere.
func (es *EditingSession) Refresh() error {
	es.mu.Lock()
	defer es.mu.Unlock()

	slides, err := es.slides()
	if err != nil {
		es.selection.Clear()
		return err
	}
	es.selection.Reconcile(slides)
	return nil
}

// CurrentSlide returns the selected slide as currently stored.
func (es *EditingSession) CurrentSlide() (entities.Slide, bool) {
	es.mu.Lock()
	defer es.mu.Unlock()

	slides, err := es.slides()
	if err != nil {
		return entities.Slide{}, false
	}
	es.selection.Reconcile(slides)
	s, _, ok := es.selection.Current(slides)
	return s, ok
}

// Select selects a slide by id.
func (es *EditingSession) Select(id string) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	slides, err := es.slides()
	if err != nil {
		return err
	}
	if !es.selection.Select(id, slides) {
		return fmt.Errorf("selecting %s: %w", id, entities.ErrSlideNotFound)
	}
	return nil
}

// SelectIndex selects the slide at position i.
func (es *EditingSession) SelectIndex(i int) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	slides, err := es.slides()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(slides) {
		return fmt.Errorf("slide index %d out of range: %w", i, entities.ErrSlideNotFound)
	}
	es.selection.Select(slides[i].ID, slides)
	return nil
}

// AddSlide appends a slide and selects it.
func (es *EditingSession) AddSlide(partial entities.Slide) (entities.Slide, error) {
	es.mu.Lock()
	defer es.mu.Unlock()

	created, ok := es.store.AddSlide(es.presentationID, partial)
	if !ok {
		return entities.Slide{}, entities.ErrPresentationNotFound
	}
	slides, err := es.slides()
	if err != nil {
		return entities.Slide{}, err
	}
	es.selection.Select(created.ID, slides)
	return created, nil
}

// UpdateSlide applies edit to the selected slide and writes it back through
// the store.
func (es *EditingSession) UpdateSlide(edit func(*entities.Slide)) (entities.Slide, error) {
	es.mu.Lock()
	defer es.mu.Unlock()

	slides, err := es.slides()
	if err != nil {
		return entities.Slide{}, err
	}
	es.selection.Reconcile(slides)
	current, _, ok := es.selection.Current(slides)
	if !ok {
		return entities.Slide{}, entities.ErrSlideNotFound
	}

	edit(&current)
	current.ID = es.selection.SelectedID()
	es.store.Dispatch(UpdateSlide{PresentationID: es.presentationID, Slide: current})
	return current, nil
}

// DeleteSelected removes the selected slide and moves the selection in the
// same step. It returns the newly selected slide, if any.
func (es *EditingSession) DeleteSelected() (entities.Slide, bool, error) {
	es.mu.Lock()
	defer es.mu.Unlock()

	slides, err := es.slides()
	if err != nil {
		return entities.Slide{}, false, err
	}
	es.selection.Reconcile(slides)
	target, _, ok := es.selection.Current(slides)
	if !ok {
		return entities.Slide{}, false, entities.ErrSlideNotFound
	}

	state := es.store.Dispatch(DeleteSlide{PresentationID: es.presentationID, SlideID: target.ID})
	p, _ := state.Find(es.presentationID)
	es.selection.Reconcile(p.Slides)
	next, _, ok := es.selection.Current(p.Slides)
	return next, ok, nil
}

// MoveSlide moves the slide at from to position to.
func (es *EditingSession) MoveSlide(from, to int) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	slides, err := es.slides()
	if err != nil {
		return err
	}
	if from < 0 || from >= len(slides) || to < 0 || to >= len(slides) {
		return fmt.Errorf("move %d to %d out of range: %w", from, to, entities.ErrSlideNotFound)
	}
	if from == to {
		return nil
	}

	moved := slides[from]
	reordered := make([]entities.Slide, 0, len(slides))
	reordered = append(reordered, slides[:from]...)
	reordered = append(reordered, slides[from+1:]...)
	reordered = append(reordered[:to], append([]entities.Slide{moved}, reordered[to:]...)...)

	es.store.Dispatch(ReorderSlides{PresentationID: es.presentationID, Slides: reordered})
	es.selection.Reconcile(reordered)
	return nil
}
