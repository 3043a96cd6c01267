package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// Settings is the effective configuration of one invocation. The embedded
// Config has every defaulted field filled in, so printing it shows what the
// process actually runs with.
type Settings struct {
	*entities.Config

	// Sources lists the layers that contributed, lowest precedence first.
	Sources []string

	Pipeline PipelineSettings
}

// PipelineSettings is what the export pipeline is built from.
type PipelineSettings struct {
	Capturer     string
	ChromePath   string
	Scale        float64
	SlideTimeout time.Duration
	Stagger      time.Duration
	// SinkDir is absolute.
	SinkDir string
}

// SettingsService resolves defaults < global file < local slidecraft.toml <
// environment < flags into Settings.
type SettingsService struct {
	files  ports.ConfigFiles
	layers ports.ConfigLayers
}

// NewSettingsService creates a resolver over files and layers.
func NewSettingsService(files ports.ConfigFiles, layers ports.ConfigLayers) *SettingsService {
	return &SettingsService{files: files, layers: layers}
}

// Resolve loads every layer for workingDir and applies flags last.
func (s *SettingsService) Resolve(ctx context.Context, workingDir string, flags map[string]interface{}) (*Settings, error) {
	stack := []*entities.Config{s.layers.Merge()}
	sources := []string{"defaults"}

	global, err := s.files.LoadGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	if global != nil {
		stack = append(stack, global)
		sources = append(sources, s.files.GetGlobalPath())
	}

	local, err := s.files.LoadLocal(ctx, workingDir)
	if err != nil {
		return nil, fmt.Errorf("loading local config: %w", err)
	}
	if local != nil {
		stack = append(stack, local)
		sources = append(sources, s.files.GetLocalPath(workingDir))
	}

	cfg := s.layers.ApplyFlags(s.layers.ApplyEnvVars(s.layers.Merge(stack...)), flags)
	if cfg == nil {
		return nil, errors.New("config layers produced no configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("final config validation: %w", err)
	}

	fillDefaults(cfg)
	if err := checkBudgets(cfg); err != nil {
		return nil, err
	}

	sinkDir := cfg.Export.OutputDir
	if !filepath.IsAbs(sinkDir) {
		sinkDir = filepath.Join(workingDir, sinkDir)
	}

	return &Settings{
		Config:  cfg,
		Sources: sources,
		Pipeline: PipelineSettings{
			Capturer:     cfg.Export.Capturer,
			ChromePath:   cfg.Export.ChromePath,
			Scale:        cfg.Export.GetScale(),
			SlideTimeout: cfg.Export.GetSlideTimeout(),
			Stagger:      cfg.Export.GetStagger(),
			SinkDir:      filepath.Clean(sinkDir),
		},
	}, nil
}

// InitGlobal writes the defaults to the global config path and returns it.
func (s *SettingsService) InitGlobal(ctx context.Context) (string, error) {
	path := s.files.GetGlobalPath()
	if err := s.files.CreateDefaults(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}

// fillDefaults writes the getter defaults back into cfg.
func fillDefaults(cfg *entities.Config) {
	g := &cfg.Gateway
	g.TimeoutSec = int(g.GetTimeout() / time.Second)
	g.MaxAttempts = g.GetMaxAttempts()
	g.BackoffMs = int(g.GetBackoff() / time.Millisecond)
	g.MaxUploadSize = g.GetMaxUploadSize()

	e := &cfg.Export
	if e.Capturer == "" {
		e.Capturer = entities.CapturerRaster
	}
	e.Scale = e.GetScale()
	e.SlideTimeoutMs = int(e.GetSlideTimeout() / time.Millisecond)
	e.StaggerMs = int(e.GetStagger() / time.Millisecond)
	e.OutputDir = e.GetOutputDir()

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = string(entities.LogLevelInfo)
	}
}

// checkBudgets rejects combinations that validate field by field but cannot
// work together.
func checkBudgets(cfg *entities.Config) error {
	if cfg.Export.GetStagger() >= cfg.Export.GetSlideTimeout() {
		return entities.NewInputError("export.stagger_ms",
			fmt.Errorf("stagger %s must be shorter than the slide timeout %s",
				cfg.Export.GetStagger(), cfg.Export.GetSlideTimeout()))
	}
	if cfg.Gateway.GetBackoff() >= cfg.Gateway.GetTimeout() {
		return entities.NewInputError("gateway.backoff_ms",
			fmt.Errorf("retry backoff %s must be shorter than the request timeout %s",
				cfg.Gateway.GetBackoff(), cfg.Gateway.GetTimeout()))
	}
	return nil
}
