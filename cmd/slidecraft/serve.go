package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	httpadapter "github.com/fredcamaral/slidecraft/internal/adapters/primary/http"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/gateway"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/preferences"
	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the editor API",
	Long: `Start the HTTP API that owns presentation state, streams store events
over a WebSocket and exports decks on request.

Example:
  slidecraft serve
  slidecraft serve --port 9090 --open
  slidecraft serve --capturer browser --sync`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Defaults come from configuration; flags only override when set
	serveCmd.Flags().IntP("port", "p", 0, "Port to serve on (overrides config)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().Bool("open", false, "Open the UI in a browser (overrides config)")
	serveCmd.Flags().String("model", "", "Default generation model (overrides config)")
	serveCmd.Flags().String("capturer", "", "Slide capturer: raster or browser (overrides config)")
	serveCmd.Flags().Bool("sync", false, "Load saved presentations from the backend on startup")
}

// validateServeConfig validates configuration after it's loaded
func validateServeConfig(config *entities.Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Server.Port)
	}

	if strings.ContainsAny(config.Server.Host, " !") {
		return fmt.Errorf("invalid host: %s", config.Server.Host)
	}

	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := validateServeConfig(cfg.Config); err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)
	ctx := cmd.Context()

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	client := gateway.New(cfg.Gateway, logger, metrics)
	store := newStore(logger)
	metrics.WatchStore(ctx, store)

	themes := services.NewThemeService(preferences.NewFileStore(cfg.Preferences.Path), client, logger)
	presentations := services.NewPresentationService(store, client, services.PresentationServiceConfig{
		DefaultModel:  cfg.Gateway.DefaultModel,
		DefaultTheme:  entities.DefaultThemeID,
		Themes:        themes,
		MaxUploadSize: cfg.Gateway.GetMaxUploadSize(),
	}, logger)

	fetcher := newImageFetcher()
	capturer, cleanup, err := newCapturer(cfg.Pipeline, fetcher, logger)
	if err != nil {
		return fmt.Errorf("creating slide capturer: %w", err)
	}
	defer cleanup()

	if sync, _ := cmd.Flags().GetBool("sync"); sync {
		if n, err := presentations.Sync(ctx); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		} else {
			logger.Info("presentations synced", slog.Int("count", n))
		}
	}

	server := httpadapter.NewServer(httpadapter.Dependencies{
		Presentations: presentations,
		Themes:        themes,
		NewPipeline:   pipelineFactory(cfg.Pipeline, capturer, fetcher, logger, metrics),
		Metrics:       metrics,
		Gatherer:      registry,
	}, &cfg.Server, &cfg.Logging)

	if err := server.Start(ctx, cfg.Server.Port, cfg.Server.Host); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("slidecraft serving",
		slog.String("url", url),
		slog.String("backend", cfg.Gateway.BaseURL),
		slog.String("capturer", capturer.Name()))

	if cfg.Browser.AutoOpen {
		if err := openInBrowser(cfg.Browser.Browser, url); err != nil {
			logger.Warn("failed to open browser", slog.String("error", err.Error()))
		}
	}

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GetShutdownTimeout())
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}
	return nil
}

// checkPortAvailable fails fast when the address is already taken, since
// the server itself binds in the background.
func checkPortAvailable(host string, port int) error {
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return fmt.Errorf("port %d is already in use or cannot be bound: %w", port, err)
		}
		return err
	}
	_ = listener.Close()
	// Give the OS a moment to release the port.
	time.Sleep(10 * time.Millisecond)
	return nil
}
