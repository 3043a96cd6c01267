package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

func slidesWithIDs(ids ...string) []entities.Slide {
	slides := make([]entities.Slide, len(ids))
	for i, id := range ids {
		slides[i] = entities.Slide{ID: id, Title: id}
	}
	return slides
}

func TestSelection_Reconcile(t *testing.T) {
	tests := []struct {
		name     string
		selected string
		before   []entities.Slide
		after    []entities.Slide
		want     string
	}{
		{
			name:     "still present",
			selected: "b",
			before:   slidesWithIDs("a", "b", "c"),
			after:    slidesWithIDs("c", "b"),
			want:     "b",
		},
		{
			name:     "same index",
			selected: "b",
			before:   slidesWithIDs("a", "b", "c"),
			after:    slidesWithIDs("a", "c"),
			want:     "c",
		},
		{
			name:     "last valid index",
			selected: "c",
			before:   slidesWithIDs("a", "b", "c"),
			after:    slidesWithIDs("a", "b"),
			want:     "b",
		},
		{
			name:     "nothing left",
			selected: "a",
			before:   slidesWithIDs("a"),
			after:    nil,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := NewSelection()
			require.True(t, sel.Select(tt.selected, tt.before))

			sel.Reconcile(tt.after)

			assert.Equal(t, tt.want, sel.SelectedID())
		})
	}
}

func TestSelection_EmptyStaysEmpty(t *testing.T) {
	sel := NewSelection()
	sel.Reconcile(slidesWithIDs("a", "b"))

	_, _, ok := sel.Current(slidesWithIDs("a", "b"))
	assert.False(t, ok)
	assert.False(t, sel.Select("zzz", slidesWithIDs("a")))
}

func TestEditingSession(t *testing.T) {
	newSession := func(t *testing.T) (*Store, *EditingSession, entities.Presentation) {
		store, _ := newTestStore()
		p := store.Create(entities.PresentationData{Title: "Deck", Slides: threeSlides()})
		es, err := NewEditingSession(store, p.ID)
		require.NoError(t, err)
		return store, es, p
	}

	t.Run("opens on first slide", func(t *testing.T) {
		_, es, p := newSession(t)
		current, ok := es.CurrentSlide()
		require.True(t, ok)
		assert.Equal(t, p.Slides[0].ID, current.ID)
	})

	t.Run("unknown presentation", func(t *testing.T) {
		store, _ := newTestStore()
		_, err := NewEditingSession(store, "missing")
		assert.ErrorIs(t, err, entities.ErrPresentationNotFound)
	})

	t.Run("add selects new slide", func(t *testing.T) {
		_, es, _ := newSession(t)
		created, err := es.AddSlide(entities.Slide{Title: "D"})
		require.NoError(t, err)

		current, ok := es.CurrentSlide()
		require.True(t, ok)
		assert.Equal(t, created.ID, current.ID)
	})

	t.Run("update writes through store", func(t *testing.T) {
		store, es, p := newSession(t)
		require.NoError(t, es.SelectIndex(1))

		_, err := es.UpdateSlide(func(s *entities.Slide) { s.Title = "B2"; s.ID = "hijack" })
		require.NoError(t, err)

		stored, _ := store.Presentation(p.ID)
		assert.Equal(t, "B2", stored.Slides[1].Title)
		assert.Equal(t, p.Slides[1].ID, stored.Slides[1].ID)
	})

	t.Run("delete middle selects successor", func(t *testing.T) {
		_, es, p := newSession(t)
		require.NoError(t, es.Select(p.Slides[1].ID))

		next, ok, err := es.DeleteSelected()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, p.Slides[2].ID, next.ID)
	})

	t.Run("delete last selects new last", func(t *testing.T) {
		_, es, p := newSession(t)
		require.NoError(t, es.SelectIndex(2))

		next, ok, err := es.DeleteSelected()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, p.Slides[1].ID, next.ID)
	})

	t.Run("delete everything", func(t *testing.T) {
		_, es, _ := newSession(t)
		for i := 0; i < 3; i++ {
			_, _, err := es.DeleteSelected()
			require.NoError(t, err)
		}
		_, ok := es.CurrentSlide()
		assert.False(t, ok)

		_, _, err := es.DeleteSelected()
		assert.ErrorIs(t, err, entities.ErrSlideNotFound)
	})

	t.Run("deletion by another view", func(t *testing.T) {
		store, es, p := newSession(t)
		require.NoError(t, es.Select(p.Slides[0].ID))

		store.Dispatch(DeleteSlide{PresentationID: p.ID, SlideID: p.Slides[0].ID})
		require.NoError(t, es.Refresh())

		current, ok := es.CurrentSlide()
		require.True(t, ok)
		assert.Equal(t, p.Slides[1].ID, current.ID)
	})

	t.Run("move slide", func(t *testing.T) {
		store, es, p := newSession(t)
		require.NoError(t, es.MoveSlide(0, 2))

		stored, _ := store.Presentation(p.ID)
		assert.Equal(t, []string{"B", "C", "A"}, []string{stored.Slides[0].Title, stored.Slides[1].Title, stored.Slides[2].Title})

		assert.Error(t, es.MoveSlide(0, 5))
	})

	t.Run("presentation deleted", func(t *testing.T) {
		store, es, p := newSession(t)
		store.Dispatch(DeletePresentation{ID: p.ID})

		assert.ErrorIs(t, es.Refresh(), entities.ErrPresentationNotFound)
		_, ok := es.CurrentSlide()
		assert.False(t, ok)
	})
}
