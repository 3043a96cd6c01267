package services

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// StoreState is the full state owned by a Store. Values handed out by the
// store are copies; mutating them has no effect on the store.
type StoreState struct {
	Presentations []entities.Presentation `json:"presentations"`
	Current       *entities.Presentation  `json:"currentPresentation"`
	IsLoading     bool                    `json:"isLoading"`
	Error         string                  `json:"error,omitempty"`
}

// Clone returns a deep copy of the state.
func (s StoreState) Clone() StoreState {
	out := StoreState{IsLoading: s.IsLoading, Error: s.Error}
	if s.Presentations != nil {
		out.Presentations = make([]entities.Presentation, len(s.Presentations))
		for i := range s.Presentations {
			out.Presentations[i] = s.Presentations[i].Clone()
		}
	}
	if s.Current != nil {
		c := s.Current.Clone()
		out.Current = &c
	}
	return out
}

// Find returns the stored presentation with the given id.
func (s StoreState) Find(id string) (entities.Presentation, bool) {
	if i := s.index(id); i >= 0 {
		return s.Presentations[i], true
	}
	return entities.Presentation{}, false
}

func (s StoreState) index(id string) int {
	for i := range s.Presentations {
		if s.Presentations[i].ID == id {
			return i
		}
	}
	return -1
}

// ReduceEnv supplies the non-deterministic inputs of a transition.
type ReduceEnv interface {
	Now() time.Time
	NewID() string
}

// Action is a state transition understood by Reduce.
type Action interface {
	Type() string
}

// CreatePresentation appends a new presentation and makes it current.
type CreatePresentation struct {
	Data entities.PresentationData
}

// UpdatePresentation replaces the stored presentation with the same id.
// Empty or repeated slide ids are reissued.
type UpdatePresentation struct {
	Presentation entities.Presentation
}

// DeletePresentation removes a presentation.
type DeletePresentation struct {
	ID string
}

// SetCurrentPresentation points the current presentation at p. p does not
// have to be part of the stored set (detached preview).
type SetCurrentPresentation struct {
	Presentation *entities.Presentation
}

// AdoptPresentation inserts a presentation under its existing id, replacing
// the content of a stored one with the same id. A replaced presentation
// keeps its CreatedAt and its UpdatedAt is bumped like any other edit.
type AdoptPresentation struct {
	Presentation entities.Presentation
}

// AddSlide appends a slide under a fresh id.
type AddSlide struct {
	PresentationID string
	Slide          entities.Slide
}

// UpdateSlide replaces the slide with the same id.
type UpdateSlide struct {
	PresentationID string
	Slide          entities.Slide
}

// DeleteSlide removes exactly one slide.
type DeleteSlide struct {
	PresentationID string
	SlideID        string
}

// ReorderSlides replaces the slide list wholesale.
type ReorderSlides struct {
	PresentationID string
	Slides         []entities.Slide
}

// SetLoading toggles the loading flag.
type SetLoading struct {
	Loading bool
}

// SetError sets or clears the error message.
type SetError struct {
	Message string
}

func (CreatePresentation) Type() string     { return "create_presentation" }
func (UpdatePresentation) Type() string     { return "update_presentation" }
func (DeletePresentation) Type() string     { return "delete_presentation" }
func (SetCurrentPresentation) Type() string { return "set_current_presentation" }
func (AdoptPresentation) Type() string      { return "adopt_presentation" }
func (AddSlide) Type() string               { return "add_slide" }
func (UpdateSlide) Type() string            { return "update_slide" }
func (DeleteSlide) Type() string            { return "delete_slide" }
func (ReorderSlides) Type() string          { return "reorder_slides" }
func (SetLoading) Type() string             { return "set_loading" }
func (SetError) Type() string               { return "set_error" }

// presentationID returns the presentation an action targets, if any.
func presentationID(a Action) string {
	switch a := a.(type) {
	case UpdatePresentation:
		return a.Presentation.ID
	case DeletePresentation:
		return a.ID
	case SetCurrentPresentation:
		if a.Presentation != nil {
			return a.Presentation.ID
		}
	case AdoptPresentation:
		return a.Presentation.ID
	case AddSlide:
		return a.PresentationID
	case UpdateSlide:
		return a.PresentationID
	case DeleteSlide:
		return a.PresentationID
	case ReorderSlides:
		return a.PresentationID
	}
	return ""
}

// Reduce applies one action to state and returns the next state. It never
// mutates its input. Actions that reference an unknown presentation or slide
// leave the state unchanged.
func Reduce(state StoreState, action Action, env ReduceEnv) StoreState {
	next := state.Clone()

	switch a := action.(type) {
	case CreatePresentation:
		now := env.Now()
		p := entities.Presentation{
			ID:          env.NewID(),
			Title:       a.Data.Title,
			Description: a.Data.Description,
			Theme:       a.Data.Theme,
			Slides:      assignSlideIDs(a.Data.Slides, env),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		next.Presentations = append(next.Presentations, p)
		current := p.Clone()
		next.Current = &current

	case UpdatePresentation:
		i := next.index(a.Presentation.ID)
		if i < 0 {
			return state
		}
		p := a.Presentation.Clone()
		p.Slides = assignSlideIDs(p.Slides, env)
		p.CreatedAt = next.Presentations[i].CreatedAt
		p.UpdatedAt = bump(next.Presentations[i].UpdatedAt, env.Now())
		next.Presentations[i] = p
		next.syncCurrent(p)

	case DeletePresentation:
		i := next.index(a.ID)
		if i < 0 {
			return state
		}
		next.Presentations = append(next.Presentations[:i], next.Presentations[i+1:]...)
		if next.Current != nil && next.Current.ID == a.ID {
			next.Current = nil
		}

	case SetCurrentPresentation:
		if a.Presentation == nil {
			next.Current = nil
		} else {
			current := a.Presentation.Clone()
			next.Current = &current
		}

	case AdoptPresentation:
		p := a.Presentation.Clone()
		if p.ID == "" {
			return state
		}
		p.Slides = assignSlideIDs(p.Slides, env)
		if i := next.index(p.ID); i >= 0 {
			prev := next.Presentations[i]
			p.CreatedAt = prev.CreatedAt
			p.UpdatedAt = bump(prev.UpdatedAt, env.Now())
			next.Presentations[i] = p
		} else {
			if p.CreatedAt.IsZero() {
				p.CreatedAt = env.Now()
			}
			if p.UpdatedAt.Before(p.CreatedAt) {
				p.UpdatedAt = p.CreatedAt
			}
			next.Presentations = append(next.Presentations, p)
		}
		next.syncCurrent(p)

	case AddSlide:
		return next.mutateSlides(state, a.PresentationID, env, func(slides []entities.Slide) ([]entities.Slide, bool) {
			s := a.Slide
			s.ID = env.NewID()
			return append(slides, s), true
		})

	case UpdateSlide:
		return next.mutateSlides(state, a.PresentationID, env, func(slides []entities.Slide) ([]entities.Slide, bool) {
			for i := range slides {
				if slides[i].ID == a.Slide.ID {
					slides[i] = a.Slide
					return slides, true
				}
			}
			return slides, false
		})

	case DeleteSlide:
		return next.mutateSlides(state, a.PresentationID, env, func(slides []entities.Slide) ([]entities.Slide, bool) {
			for i := range slides {
				if slides[i].ID == a.SlideID {
					return append(slides[:i], slides[i+1:]...), true
				}
			}
			return slides, false
		})

	case ReorderSlides:
		return next.mutateSlides(state, a.PresentationID, env, func([]entities.Slide) ([]entities.Slide, bool) {
			slides := make([]entities.Slide, len(a.Slides))
			copy(slides, a.Slides)
			return slides, true
		})

	case SetLoading:
		next.IsLoading = a.Loading

	case SetError:
		next.Error = a.Message

	default:
		return state
	}

	return next
}

// mutateSlides applies fn to the slides of one presentation and bumps its
// UpdatedAt when fn reports a change. On no change the original state is
// returned.
func (s *StoreState) mutateSlides(original StoreState, id string, env ReduceEnv, fn func([]entities.Slide) ([]entities.Slide, bool)) StoreState {
	i := s.index(id)
	if i < 0 {
		return original
	}
	p := s.Presentations[i]
	slides, changed := fn(p.Slides)
	if !changed {
		return original
	}
	p.Slides = slides
	p.UpdatedAt = bump(p.UpdatedAt, env.Now())
	s.Presentations[i] = p
	s.syncCurrent(p)
	return *s
}

// syncCurrent keeps the current copy in step with the stored presentation.
func (s *StoreState) syncCurrent(p entities.Presentation) {
	if s.Current != nil && s.Current.ID == p.ID {
		current := p.Clone()
		s.Current = &current
	}
}

// bump returns a timestamp strictly after prev, preferring now.
func bump(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Nanosecond)
}

func assignSlideIDs(in []entities.Slide, env ReduceEnv) []entities.Slide {
	slides := make([]entities.Slide, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, s := range in {
		if _, dup := seen[s.ID]; s.ID == "" || dup {
			s.ID = env.NewID()
		}
		seen[s.ID] = struct{}{}
		slides[i] = s
	}
	return slides
}

// StoreEvent is published after every dispatched action.
type StoreEvent struct {
	Type           string                 `json:"type"`
	PresentationID string                 `json:"presentationId,omitempty"`
	Presentation   *entities.Presentation `json:"presentation,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

// Store is the single writer of presentation and slide state. Dispatches
// are serialised and applied in the order they are issued.
type Store struct {
	mu     sync.Mutex
	state  StoreState
	clock  ports.TimeProvider
	ids    ports.IDGenerator
	logger *slog.Logger

	subsMu      sync.RWMutex
	subscribers map[string]chan StoreEvent
}

// NewStore creates an empty store.
func NewStore(clock ports.TimeProvider, ids ports.IDGenerator, logger *slog.Logger) *Store {
	if clock == nil {
		clock = ports.NewRealTimeProvider()
	}
	if ids == nil {
		ids = NewUUIDGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		clock:       clock,
		ids:         ids,
		logger:      logger,
		subscribers: make(map[string]chan StoreEvent),
	}
}

// Now implements ReduceEnv.
func (s *Store) Now() time.Time { return s.clock.Now() }

// NewID implements ReduceEnv.
func (s *Store) NewID() string { return s.ids.NewID() }

// Dispatch applies action and returns a copy of the resulting state.
func (s *Store) Dispatch(action Action) StoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(action).Clone()
}

func (s *Store) dispatchLocked(action Action) StoreState {
	s.state = Reduce(s.state, action, s)

	id := presentationID(action)
	if _, ok := action.(CreatePresentation); ok && s.state.Current != nil {
		id = s.state.Current.ID
	}

	event := StoreEvent{Type: action.Type(), PresentationID: id, Timestamp: s.clock.Now()}
	if p, ok := s.state.Find(id); ok {
		c := p.Clone()
		event.Presentation = &c
	}

	s.logger.Debug("store action applied",
		slog.String("action", action.Type()),
		slog.String("presentation_id", id))

	s.publish(event)
	return s.state
}

// AddSlide appends slide to a presentation and returns the stored slide with
// its assigned id. ok is false when the presentation does not exist.
func (s *Store) AddSlide(presentationID string, slide entities.Slide) (entities.Slide, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, exists := s.state.Find(presentationID)
	if !exists {
		return entities.Slide{}, false
	}
	state := s.dispatchLocked(AddSlide{PresentationID: presentationID, Slide: slide})
	after, _ := state.Find(presentationID)
	if len(after.Slides) != len(before.Slides)+1 {
		return entities.Slide{}, false
	}
	return after.Slides[len(after.Slides)-1], true
}

// ReorderSlides puts the slides of a presentation in the order of ids. The
// ids must be a permutation of the stored slide ids at the time of the call;
// otherwise an InputError is returned and nothing changes.
func (s *Store) ReorderSlides(presentationID string, ids []string) (entities.Presentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.state.Find(presentationID)
	if !ok {
		return entities.Presentation{}, fmt.Errorf("%s: %w", presentationID, entities.ErrPresentationNotFound)
	}
	slides, err := PermuteSlides(existing.Slides, ids)
	if err != nil {
		return entities.Presentation{}, entities.NewInputError("slideIds", err)
	}

	state := s.dispatchLocked(ReorderSlides{PresentationID: presentationID, Slides: slides})
	updated, _ := state.Find(presentationID)
	return updated.Clone(), nil
}

// PermuteSlides returns slides in the order of ids, which must name every
// slide exactly once.
func PermuteSlides(slides []entities.Slide, ids []string) ([]entities.Slide, error) {
	if len(ids) != len(slides) {
		return nil, fmt.Errorf("expected %d slide ids, got %d", len(slides), len(ids))
	}
	byID := make(map[string]entities.Slide, len(slides))
	for _, slide := range slides {
		byID[slide.ID] = slide
	}

	ordered := make([]entities.Slide, 0, len(ids))
	for _, id := range ids {
		slide, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown or repeated slide id %q", id)
		}
		delete(byID, id)
		ordered = append(ordered, slide)
	}
	return ordered, nil
}

// Create adds a presentation and returns it.
func (s *Store) Create(data entities.PresentationData) entities.Presentation {
	state := s.Dispatch(CreatePresentation{Data: data})
	return *state.Current
}

// State returns a copy of the full state.
func (s *Store) State() StoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Presentation returns a copy of one stored presentation.
func (s *Store) Presentation(id string) (entities.Presentation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.Find(id)
	if !ok {
		return entities.Presentation{}, false
	}
	return p.Clone(), true
}

// Current returns a copy of the current presentation, if any.
func (s *Store) Current() (entities.Presentation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Current == nil {
		return entities.Presentation{}, false
	}
	return s.state.Current.Clone(), true
}

// List returns copies of all stored presentations in insertion order.
func (s *Store) List() []entities.Presentation {
	return s.State().Presentations
}

// Subscribe registers a listener for store events. Events are dropped for
// listeners that do not keep up. Subscribing again under the same id closes
// the previous channel.
func (s *Store) Subscribe(id string) <-chan StoreEvent {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if old, ok := s.subscribers[id]; ok {
		close(old)
	}
	ch := make(chan StoreEvent, 64)
	s.subscribers[id] = ch
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (s *Store) Unsubscribe(id string) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *Store) publish(event StoreEvent) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for id, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			s.logger.Warn("dropping store event for slow subscriber",
				slog.String("subscriber", id),
				slog.String("action", event.Type))
		}
	}
}
