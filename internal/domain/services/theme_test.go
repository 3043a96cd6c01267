package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

// memoryPrefs is an in-memory PreferenceStore.
type memoryPrefs struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMemoryPrefs() *memoryPrefs {
	return &memoryPrefs{values: make(map[string]string)}
}

func (p *memoryPrefs) Get(_ context.Context, key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", false, p.err
	}
	v, ok := p.values[key]
	return v, ok, nil
}

func (p *memoryPrefs) Set(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.values[key] = value
	return nil
}

func TestThemeService_LoadDefaults(t *testing.T) {
	service := NewThemeService(newMemoryPrefs(), nil, nil)

	id, err := service.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultThemeID, id)
}

func TestThemeService_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	prefs := newMemoryPrefs()
	service := NewThemeService(prefs, nil, nil)

	require.NoError(t, service.Save(ctx, "classic-dark"))

	id, err := NewThemeService(prefs, nil, nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "classic-dark", id)

	theme, err := service.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#000000", theme.BackgroundColor)
}

func TestThemeService_SaveRejectsBlank(t *testing.T) {
	err := NewThemeService(newMemoryPrefs(), nil, nil).Save(context.Background(), "  ")
	assert.True(t, entities.IsInputError(err))
}

func TestThemeService_StoreErrors(t *testing.T) {
	prefs := newMemoryPrefs()
	prefs.err = errors.New("disk full")
	service := NewThemeService(prefs, nil, nil)

	_, err := service.Load(context.Background())
	assert.ErrorContains(t, err, "disk full")
	assert.ErrorContains(t, service.Save(context.Background(), "dark"), "disk full")
}

func TestThemeService_ListThemes(t *testing.T) {
	ctx := context.Background()

	t.Run("merges backend themes", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("Themes", ctx).Return([]entities.Theme{
			{ID: "modern", Name: "Backend Modern"},
			{ID: "ocean", Name: "Ocean"},
			{Name: "nameless"},
		}, nil)

		themes := NewThemeService(newMemoryPrefs(), gw, nil).ListThemes(ctx)

		ids := make([]string, 0, len(themes))
		for _, th := range themes {
			ids = append(ids, th.ID)
			if th.ID == "modern" {
				assert.Equal(t, "Modern Blue", th.Name)
			}
		}
		assert.Contains(t, ids, "ocean")
		assert.Len(t, themes, len(entities.BuiltinThemes())+1)
		assert.IsIncreasing(t, ids)
		gw.AssertExpectations(t)
	})

	t.Run("backend failure falls back to built-ins", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("Themes", ctx).Return(nil, errors.New("offline"))

		themes := NewThemeService(newMemoryPrefs(), gw, nil).ListThemes(ctx)
		assert.Equal(t, entities.BuiltinThemes(), themes)
	})
}

func forestTheme() entities.Theme {
	return entities.Theme{
		Name:         " Forest Green ",
		PrimaryColor: "#14532d", SecondaryColor: "#166534", AccentColor: "#4ade80",
		BackgroundColor: "#f0fdf4", TextColor: "#111827",
	}
}

func TestThemeService_CreateTheme(t *testing.T) {
	ctx := context.Background()

	t.Run("registers with the backend", func(t *testing.T) {
		gw := new(MockGateway)
		expected := forestTheme()
		expected.Name = "Forest Green"
		expected.FontFamily = "Inter, sans-serif"
		gw.On("CreateTheme", ctx, expected).Return("forest_green", nil).Once()

		theme, err := NewThemeService(newMemoryPrefs(), gw, nil).CreateTheme(ctx, forestTheme())
		require.NoError(t, err)
		assert.Equal(t, "forest_green", theme.ID)
		assert.Equal(t, "Forest Green", theme.Name)
		gw.AssertExpectations(t)
	})

	t.Run("empty backend id is derived from the name", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("CreateTheme", ctx, mock.Anything).Return("", nil).Once()

		theme, err := NewThemeService(newMemoryPrefs(), gw, nil).CreateTheme(ctx, forestTheme())
		require.NoError(t, err)
		assert.Equal(t, "forest-green", theme.ID)
	})

	t.Run("invalid colors never reach the backend", func(t *testing.T) {
		gw := new(MockGateway)
		theme := forestTheme()
		theme.TextColor = "black"

		_, err := NewThemeService(newMemoryPrefs(), gw, nil).CreateTheme(ctx, theme)
		require.Error(t, err)
		assert.True(t, entities.IsInputError(err))
		gw.AssertNotCalled(t, "CreateTheme", mock.Anything, mock.Anything)
	})

	t.Run("backend failure", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("CreateTheme", ctx, mock.Anything).Return("", errors.New("500 from backend")).Once()

		_, err := NewThemeService(newMemoryPrefs(), gw, nil).CreateTheme(ctx, forestTheme())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Forest Green")
	})

	t.Run("no backend", func(t *testing.T) {
		_, err := NewThemeService(newMemoryPrefs(), nil, nil).CreateTheme(ctx, forestTheme())
		assert.Error(t, err)
	})
}
