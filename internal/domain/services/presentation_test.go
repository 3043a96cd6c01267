package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/test/mocks"
)

// MockGateway is a testify mock of ports.Gateway
type MockGateway = mocks.MockGateway

func newTestService(gw *MockGateway) (*PresentationService, *Store) {
	store, _ := newTestStore()
	svc := NewPresentationService(store, gw, PresentationServiceConfig{
		DefaultModel:  "default-model",
		DefaultTheme:  "modern",
		MaxUploadSize: 1024,
	}, nil)
	return svc, store
}

func TestPresentationService_GenerateFromPrompt(t *testing.T) {
	ctx := context.Background()

	t.Run("success creates current presentation", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("GeneratePresentation", ctx, entities.GenerateRequest{Prompt: "Solar energy", Model: "default-model", Theme: "modern", IncludeInteractive: true}).
			Return(&entities.GeneratedDeck{Title: "Solar", Slides: threeSlides()}, nil)

		svc, store := newTestService(gw)
		p, err := svc.GenerateFromPrompt(ctx, "Solar energy", "")
		require.NoError(t, err)

		state := store.State()
		assert.Len(t, state.Presentations, 1)
		require.NotNil(t, state.Current)
		assert.Equal(t, p.ID, state.Current.ID)
		assert.Equal(t, "modern", p.Theme)
		assert.False(t, state.IsLoading)
		assert.Empty(t, state.Error)
		gw.AssertExpectations(t)
	})

	t.Run("empty prompt never reaches the backend", func(t *testing.T) {
		gw := new(MockGateway)
		svc, store := newTestService(gw)

		_, err := svc.GenerateFromPrompt(ctx, "   ", "")
		assert.ErrorIs(t, err, entities.ErrEmptyPrompt)
		assert.True(t, entities.IsInputError(err))
		assert.Empty(t, store.State().Error)
		gw.AssertNotCalled(t, "GeneratePresentation", mock.Anything, mock.Anything)
	})

	t.Run("backend failure sets error and keeps set", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("GeneratePresentation", ctx, mock.Anything).Return(nil, errors.New("503 from backend"))

		svc, store := newTestService(gw)
		_, err := svc.GenerateFromPrompt(ctx, "Solar energy", "gpt")
		require.Error(t, err)

		state := store.State()
		assert.Empty(t, state.Presentations)
		assert.Contains(t, state.Error, "503 from backend")
		assert.False(t, state.IsLoading)
	})
}

func TestPresentationService_ImportDocument(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	svc, _ := newTestService(gw)

	tests := []struct {
		name     string
		filename string
		size     int64
		want     error
	}{
		{"no file", "", 0, entities.ErrNoFile},
		{"unsupported", "notes.md", 10, entities.ErrUnsupportedFile},
		{"too large", "report.pdf", 4096, entities.ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportDocument(ctx, tt.filename, tt.size, strings.NewReader("x"))
			assert.ErrorIs(t, err, tt.want)
		})
	}
	gw.AssertNotCalled(t, "UploadDocument", mock.Anything, mock.Anything, mock.Anything)

	t.Run("valid upload", func(t *testing.T) {
		body := strings.NewReader("hello")
		gw.On("UploadDocument", ctx, "report.PDF", body).Return(&entities.Document{Filename: "report.PDF", WordCount: 1}, nil)

		doc, err := svc.ImportDocument(ctx, "report.PDF", 5, body)
		require.NoError(t, err)
		assert.Equal(t, 1, doc.WordCount)
	})
}

func TestPresentationService_OutlineFlow(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	svc, store := newTestService(gw)
	doc := entities.Document{Filename: "a.txt", Content: entities.DocumentContent{RawContent: "long text"}}
	outline := []entities.OutlineItem{{Title: "One", Content: "first"}, {Title: "Two", Content: "second"}}

	gw.On("SummarizeDocument", ctx, entities.SummarizeRequest{Content: "long text", Filename: "a.txt", OutlineOnly: true}).
		Return(&entities.SummaryResult{Outline: outline}, nil)
	gw.On("GenerateSlidesFromOutline", ctx, outline).
		Return(&entities.GeneratedDeck{Title: "Doc", Slides: []entities.Slide{{Title: "One"}, {Title: "Two"}}}, nil)

	got, err := svc.GenerateOutline(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, outline, got)

	p, err := svc.GenerateFromOutline(ctx, got)
	require.NoError(t, err)
	assert.Len(t, p.Slides, 2)
	assert.Len(t, store.List(), 1)

	_, err = svc.GenerateFromOutline(ctx, nil)
	assert.True(t, entities.IsInputError(err))

	_, err = svc.GenerateOutline(ctx, entities.Document{})
	assert.ErrorIs(t, err, entities.ErrEmptyPrompt)
}

func TestPresentationService_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("sends latest snapshot", func(t *testing.T) {
		gw := new(MockGateway)
		svc, store := newTestService(gw)
		p := store.Create(entities.PresentationData{Title: "v1"})
		p.Title = "v2"
		store.Dispatch(UpdatePresentation{Presentation: p})

		gw.On("SavePresentation", ctx, mock.MatchedBy(func(sent entities.Presentation) bool {
			return sent.Title == "v2"
		})).Return(&entities.SaveResult{ID: p.ID}, nil)

		res, err := svc.Save(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, res.ID)
		gw.AssertExpectations(t)
	})

	t.Run("detached current is adopted after save", func(t *testing.T) {
		gw := new(MockGateway)
		svc, store := newTestService(gw)
		preview := &entities.Presentation{ID: "remote", Title: "Preview"}
		store.Dispatch(SetCurrentPresentation{Presentation: preview})

		gw.On("SavePresentation", ctx, *preview).Return(&entities.SaveResult{ID: "remote"}, nil)

		_, err := svc.Save(ctx, "remote")
		require.NoError(t, err)

		_, ok := store.Presentation("remote")
		assert.True(t, ok)
	})

	t.Run("failed save does not adopt", func(t *testing.T) {
		gw := new(MockGateway)
		svc, store := newTestService(gw)
		store.Dispatch(SetCurrentPresentation{Presentation: &entities.Presentation{ID: "remote"}})
		gw.On("SavePresentation", ctx, mock.Anything).Return(nil, errors.New("boom"))

		_, err := svc.Save(ctx, "remote")
		require.Error(t, err)
		_, ok := store.Presentation("remote")
		assert.False(t, ok)
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, _ := newTestService(new(MockGateway))
		_, err := svc.Save(ctx, "missing")
		assert.ErrorIs(t, err, entities.ErrPresentationNotFound)
	})
}

func TestPresentationService_Sync(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	svc, store := newTestService(gw)

	gw.On("ListPresentations", ctx).Return([]entities.Presentation{
		{ID: "r1", Title: "Remote 1", Slides: []entities.Slide{{ID: "s1"}}},
		{ID: "r2", Title: "Remote 2"},
	}, nil)

	n, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.List(), 2)
}

func TestPresentationService_ApplyTextOperation(t *testing.T) {
	ctx := context.Background()

	t.Run("result applied to latest slide", func(t *testing.T) {
		gw := new(MockGateway)
		svc, store := newTestService(gw)
		p := store.Create(entities.PresentationData{Slides: []entities.Slide{{Title: "T", Content: "draft"}}})
		slideID := p.Slides[0].ID

		gw.On("TransformText", ctx, entities.TextOpExpand, "draft").
			Run(func(mock.Arguments) {
				// concurrent edit while the request is in flight
				store.Dispatch(UpdateSlide{PresentationID: p.ID, Slide: entities.Slide{ID: slideID, Title: "Edited", Content: "draft"}})
			}).
			Return("expanded draft", nil)

		got, err := svc.ApplyTextOperation(ctx, p.ID, slideID, entities.TextOpExpand)
		require.NoError(t, err)
		assert.Equal(t, "expanded draft", got.Content)

		stored, _ := store.Presentation(p.ID)
		assert.Equal(t, "Edited", stored.Slides[0].Title)
		assert.Equal(t, "expanded draft", stored.Slides[0].Content)
	})

	t.Run("slide deleted mid-flight", func(t *testing.T) {
		gw := new(MockGateway)
		svc, store := newTestService(gw)
		p := store.Create(entities.PresentationData{Slides: []entities.Slide{{Content: "draft"}}})
		slideID := p.Slides[0].ID

		gw.On("TransformText", ctx, entities.TextOpRewrite, "draft").
			Run(func(mock.Arguments) {
				store.Dispatch(DeleteSlide{PresentationID: p.ID, SlideID: slideID})
			}).
			Return("rewritten", nil)

		_, err := svc.ApplyTextOperation(ctx, p.ID, slideID, entities.TextOpRewrite)
		assert.ErrorIs(t, err, entities.ErrSlideNotFound)
		stored, _ := store.Presentation(p.ID)
		assert.Empty(t, stored.Slides)
	})

	t.Run("unknown operation", func(t *testing.T) {
		svc, _ := newTestService(new(MockGateway))
		_, err := svc.ApplyTextOperation(ctx, "p", "s", "shout")
		assert.True(t, entities.IsInputError(err))
	})
}

func TestPresentationService_GenerateSlideImage(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	svc, store := newTestService(gw)
	p := store.Create(entities.PresentationData{Slides: []entities.Slide{{Title: "T"}}})

	gw.On("GenerateImage", ctx, "a lighthouse").Return("https://img.example/lighthouse.png", nil)

	got, err := svc.GenerateSlideImage(ctx, p.ID, p.Slides[0].ID, "a lighthouse")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/lighthouse.png", got.ImageURL)
}

func TestPresentationService_EnhanceSlideKeepsID(t *testing.T) {
	ctx := context.Background()
	gw := new(MockGateway)
	svc, store := newTestService(gw)
	p := store.Create(entities.PresentationData{Slides: []entities.Slide{{Title: "T"}}})
	slide := p.Slides[0]

	gw.On("EnhanceSlide", ctx, slide, "visual").Return(&entities.Slide{ID: "other", Title: "Better"}, nil)

	got, err := svc.EnhanceSlide(ctx, p.ID, slide.ID, "visual")
	require.NoError(t, err)
	assert.Equal(t, slide.ID, got.ID)
	assert.Equal(t, "Better", got.Title)
}

func TestFallbackPresentation(t *testing.T) {
	data := FallbackPresentation("the future of solar energy!!! in 2030?", "warm")

	assert.Equal(t, "The Future Of Solar Energy In 2030", data.Title)
	assert.Equal(t, "warm", data.Theme)
	assert.Len(t, data.Slides, 5)

	long := FallbackPresentation(strings.Repeat("word ", 30), "")
	assert.LessOrEqual(t, len([]rune(long.Title)), 50)

	assert.Equal(t, "Untitled Presentation", FallbackPresentation("???", "").Title)
}

// themeSetting is a ThemeSource whose answer can change between calls.
type themeSetting struct {
	id  string
	err error
}

func (t *themeSetting) Load(context.Context) (string, error) { return t.id, t.err }

func TestPresentationService_ThemeResolvedPerCall(t *testing.T) {
	ctx := context.Background()
	setting := &themeSetting{id: "dark"}

	gw := new(MockGateway)
	store, _ := newTestStore()
	svc := NewPresentationService(store, gw, PresentationServiceConfig{
		DefaultModel: "default-model",
		DefaultTheme: "modern",
		Themes:       setting,
	}, nil)

	for _, theme := range []string{"dark", "warm"} {
		gw.On("GeneratePresentation", ctx, entities.GenerateRequest{
			Prompt: "Solar energy", Model: "default-model", Theme: theme, IncludeInteractive: true,
		}).Return(&entities.GeneratedDeck{Title: "Solar", Slides: threeSlides()}, nil).Once()
	}

	p, err := svc.GenerateFromPrompt(ctx, "Solar energy", "")
	require.NoError(t, err)
	assert.Equal(t, "dark", p.Theme)

	setting.id = "warm"
	p, err = svc.GenerateFromPrompt(ctx, "Solar energy", "")
	require.NoError(t, err)
	assert.Equal(t, "warm", p.Theme)
	gw.AssertExpectations(t)

	t.Run("unreadable preference falls back to the configured default", func(t *testing.T) {
		setting.err = errors.New("preferences.toml: permission denied")
		p, err := svc.CreateFallback(ctx, "Solar energy")
		require.NoError(t, err)
		assert.Equal(t, "modern", p.Theme)
	})

	t.Run("deck theme from the backend wins", func(t *testing.T) {
		setting.err = nil
		setting.id = "warm"
		gw.On("GeneratePresentation", ctx, mock.Anything).
			Return(&entities.GeneratedDeck{Title: "Solar", Theme: "creative", Slides: threeSlides()}, nil).Once()

		p, err := svc.GenerateFromPrompt(ctx, "Solar energy", "")
		require.NoError(t, err)
		assert.Equal(t, "creative", p.Theme)
	})
}
