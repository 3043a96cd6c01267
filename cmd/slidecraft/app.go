package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/config"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/export"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

// flagKeys are the flags ConfigMerger.ApplyFlags understands. Only flags the
// user set explicitly override configuration.
var flagKeys = []string{"port", "host", "open", "backend-url", "model", "capturer", "output-dir", "verbose"}

func settingsService(cmd *cobra.Command) *services.SettingsService {
	loader := config.NewTOMLLoader()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader = config.NewTOMLLoaderWithPath(path)
	}
	return services.NewSettingsService(loader, config.NewConfigMerger())
}

// loadConfig resolves the effective settings for the working directory.
func loadConfig(cmd *cobra.Command) (*services.Settings, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	settings, err := settingsService(cmd).Resolve(cmd.Context(), workingDir, collectFlags(cmd))
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return settings, nil
}

func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	for _, name := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		switch f.Value.Type() {
		case "int":
			v, _ := cmd.Flags().GetInt(name)
			flags[name] = v
		case "bool":
			v, _ := cmd.Flags().GetBool(name)
			flags[name] = v
		default:
			flags[name] = f.Value.String()
		}
	}
	return flags
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg entities.LoggingConfig, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.GetLevel() {
	case entities.LogLevelDebug:
		level = slog.LevelDebug
	case entities.LogLevelWarn:
		level = slog.LevelWarn
	case entities.LogLevelError:
		level = slog.LevelError
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.JSONFormat {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newStore creates the process-wide presentation store.
func newStore(logger *slog.Logger) *services.Store {
	return services.NewStore(ports.NewRealTimeProvider(), services.NewUUIDGenerator(), logger)
}

// newCapturer picks the slide capturer named in the settings. The returned
// cleanup releases browser resources and is never nil.
func newCapturer(cfg services.PipelineSettings, fetcher ports.ImageFetcher, logger *slog.Logger) (ports.SlideCapturer, func(), error) {
	switch cfg.Capturer {
	case entities.CapturerBrowser:
		capturer, err := export.NewBrowserCapturer(export.BrowserConfig{
			ExecutablePath: cfg.ChromePath,
			Logger:         logger,
		})
		if err != nil {
			return nil, func() {}, err
		}
		return capturer, func() {
			if err := capturer.Close(); err != nil {
				logger.Warn("closing browser capturer", slog.String("error", err.Error()))
			}
		}, nil
	default:
		return export.NewRasterCapturer(fetcher, logger), func() {}, nil
	}
}

// newImageFetcher loads remote slide visuals for the capturers and PPTX.
func newImageFetcher() *export.HTTPImageFetcher {
	return export.NewHTTPImageFetcher(ports.NewRealHTTPClient(ports.HTTPClientConfig{
		Timeout:   30 * time.Second,
		UserAgent: "slidecraft/" + Version,
	}))
}

// pipelineFactory returns a constructor for pipelines that share one
// capturer but write to different sinks.
func pipelineFactory(cfg services.PipelineSettings, capturer ports.SlideCapturer, fetcher ports.ImageFetcher, logger *slog.Logger, metrics *monitoring.Metrics) func(ports.ArtifactSink) (*export.Pipeline, error) {
	return func(sink ports.ArtifactSink) (*export.Pipeline, error) {
		return export.NewPipeline(export.PipelineConfig{
			Capturer:     capturer,
			Sink:         sink,
			Fetcher:      fetcher,
			Logger:       logger,
			Metrics:      metrics,
			Scale:        cfg.Scale,
			SlideTimeout: cfg.SlideTimeout,
			Stagger:      cfg.Stagger,
		})
	}
}

// exportDeck runs one export of presentation into cfg.SinkDir.
func exportDeck(ctx context.Context, presentation *entities.Presentation, format export.ExportFormat, themeID string, cfg services.PipelineSettings, logger *slog.Logger) (*export.ExportResult, error) {
	fetcher := newImageFetcher()
	capturer, cleanup, err := newCapturer(cfg, fetcher, logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	pipeline, err := pipelineFactory(cfg, capturer, fetcher, logger, nil)(export.NewDirectorySink(cfg.SinkDir))
	if err != nil {
		return nil, err
	}

	options := export.ExportOptions{Format: format}
	if themeID != "" {
		theme, ok := entities.LookupTheme(themeID)
		if !ok {
			return nil, fmt.Errorf("unknown theme %q", themeID)
		}
		options.Theme = theme
	}
	return pipeline.Export(ctx, presentation, options)
}
