package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

type MockConfigFiles struct {
	mock.Mock
}

func (m *MockConfigFiles) LoadGlobal(ctx context.Context) (*entities.Config, error) {
	args := m.Called(ctx)
	cfg, _ := args.Get(0).(*entities.Config)
	return cfg, args.Error(1)
}

func (m *MockConfigFiles) LoadLocal(ctx context.Context, dir string) (*entities.Config, error) {
	args := m.Called(ctx, dir)
	cfg, _ := args.Get(0).(*entities.Config)
	return cfg, args.Error(1)
}

func (m *MockConfigFiles) CreateDefaults(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *MockConfigFiles) GetGlobalPath() string {
	return "/home/user/.config/slidecraft/config.toml"
}

func (m *MockConfigFiles) GetLocalPath(dir string) string {
	return dir + "/slidecraft.toml"
}

// overlayLayers keeps the last non-nil layer and ignores env and flags.
type overlayLayers struct {
	defaults *entities.Config
	flagged  map[string]interface{}
}

func (o *overlayLayers) Merge(configs ...*entities.Config) *entities.Config {
	out := *o.defaults
	for _, c := range configs {
		if c != nil {
			out = *c
		}
	}
	return &out
}

func (o *overlayLayers) ApplyEnvVars(config *entities.Config) *entities.Config { return config }

func (o *overlayLayers) ApplyFlags(config *entities.Config, flags map[string]interface{}) *entities.Config {
	o.flagged = flags
	return config
}

func TestSettingsService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("fills defaults and records sources", func(t *testing.T) {
		files := &MockConfigFiles{}
		files.On("LoadGlobal", ctx).Return(&entities.Config{Export: entities.ExportConfig{OutputDir: "decks"}}, nil)
		files.On("LoadLocal", ctx, "/work").Return(nil, nil)
		layers := &overlayLayers{defaults: &entities.Config{}}

		settings, err := NewSettingsService(files, layers).Resolve(ctx, "/work", map[string]interface{}{"port": 9000})
		require.NoError(t, err)

		assert.Equal(t, []string{"defaults", "/home/user/.config/slidecraft/config.toml"}, settings.Sources)
		assert.Equal(t, 9000, layers.flagged["port"])

		assert.Equal(t, "/work/decks", settings.Pipeline.SinkDir)
		assert.Equal(t, entities.CapturerRaster, settings.Pipeline.Capturer)
		assert.Equal(t, 15*time.Second, settings.Pipeline.SlideTimeout)
		assert.Equal(t, 100*time.Millisecond, settings.Pipeline.Stagger)
		assert.Equal(t, 2.0, settings.Pipeline.Scale)

		assert.Equal(t, 3, settings.Gateway.MaxAttempts)
		assert.Equal(t, 500, settings.Gateway.BackoffMs)
		assert.Equal(t, 90, settings.Gateway.TimeoutSec)
		assert.Equal(t, 15000, settings.Export.SlideTimeoutMs)
		assert.Equal(t, "info", settings.Logging.Level)
		files.AssertExpectations(t)
	})

	t.Run("local layer wins and absolute sink dirs are kept", func(t *testing.T) {
		files := &MockConfigFiles{}
		files.On("LoadGlobal", ctx).Return(nil, nil)
		files.On("LoadLocal", ctx, "/work").Return(&entities.Config{
			Export: entities.ExportConfig{OutputDir: "/srv/out/../exports", StaggerMs: 250},
		}, nil)

		settings, err := NewSettingsService(files, &overlayLayers{defaults: &entities.Config{}}).Resolve(ctx, "/work", nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"defaults", "/work/slidecraft.toml"}, settings.Sources)
		assert.Equal(t, "/srv/exports", settings.Pipeline.SinkDir)
		assert.Equal(t, 250*time.Millisecond, settings.Pipeline.Stagger)
	})

	t.Run("stagger longer than the slide timeout", func(t *testing.T) {
		files := &MockConfigFiles{}
		files.On("LoadGlobal", ctx).Return(nil, nil)
		files.On("LoadLocal", ctx, "/work").Return(&entities.Config{
			Export: entities.ExportConfig{StaggerMs: 2000, SlideTimeoutMs: 1000},
		}, nil)

		_, err := NewSettingsService(files, &overlayLayers{defaults: &entities.Config{}}).Resolve(ctx, "/work", nil)
		require.Error(t, err)
		assert.True(t, entities.IsInputError(err))
		assert.Contains(t, err.Error(), "export.stagger_ms")
	})

	t.Run("backoff longer than the request timeout", func(t *testing.T) {
		files := &MockConfigFiles{}
		files.On("LoadGlobal", ctx).Return(nil, nil)
		files.On("LoadLocal", ctx, "/work").Return(&entities.Config{
			Gateway: entities.GatewayConfig{BackoffMs: 5000, TimeoutSec: 2},
		}, nil)

		_, err := NewSettingsService(files, &overlayLayers{defaults: &entities.Config{}}).Resolve(ctx, "/work", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gateway.backoff_ms")
	})

	t.Run("invalid merged config", func(t *testing.T) {
		files := &MockConfigFiles{}
		files.On("LoadGlobal", ctx).Return(nil, nil)
		files.On("LoadLocal", ctx, "/work").Return(&entities.Config{
			Export: entities.ExportConfig{Capturer: "webgl"},
		}, nil)

		_, err := NewSettingsService(files, &overlayLayers{defaults: &entities.Config{}}).Resolve(ctx, "/work", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "final config validation")
	})

	t.Run("global load error", func(t *testing.T) {
		files := &MockConfigFiles{}
		files.On("LoadGlobal", ctx).Return(nil, errors.New("permission denied"))

		_, err := NewSettingsService(files, &overlayLayers{defaults: &entities.Config{}}).Resolve(ctx, "/work", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading global config")
	})
}

func TestSettingsService_InitGlobal(t *testing.T) {
	ctx := context.Background()
	files := &MockConfigFiles{}
	files.On("CreateDefaults", ctx, files.GetGlobalPath()).Return(nil)

	path, err := NewSettingsService(files, &overlayLayers{defaults: &entities.Config{}}).InitGlobal(ctx)
	require.NoError(t, err)
	assert.Equal(t, files.GetGlobalPath(), path)
	files.AssertExpectations(t)
}
