package preferences

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

func TestFileStore_MissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "preferences.toml"))

	v, ok, err := store.Get(context.Background(), "active_theme")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestFileStore_SetGet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "preferences.toml")
	store := NewFileStore(path)

	require.NoError(t, store.Set(ctx, "active_theme", "warm"))
	require.NoError(t, store.Set(ctx, "last_model", "m1"))
	require.NoError(t, store.Set(ctx, "active_theme", "dark"))

	v, ok, err := store.Get(ctx, "active_theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `active_theme = "dark"`)
	assert.Contains(t, string(data), `last_model = "m1"`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.toml")
	require.NoError(t, os.WriteFile(path, []byte("active_theme = "), 0600))

	_, _, err := NewFileStore(path).Get(context.Background(), "active_theme")
	assert.ErrorContains(t, err, "parsing preferences")
}

func TestThemePreference_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "preferences.toml")

	first := services.NewThemeService(NewFileStore(path), nil, nil)
	id, err := first.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultThemeID, id)

	require.NoError(t, first.Save(ctx, "classic-dark"))

	restarted := services.NewThemeService(NewFileStore(path), nil, nil)
	id, err = restarted.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "classic-dark", id)
}
