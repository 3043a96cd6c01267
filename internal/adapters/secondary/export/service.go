package export

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"time"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// ExportFormat represents different export formats
type ExportFormat string

const (
	FormatPDF        ExportFormat = "pdf"
	FormatImages     ExportFormat = "images"
	FormatPowerPoint ExportFormat = "pptx"
)

// ParseFormat validates a format name. "png" is accepted for images.
func ParseFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case FormatPDF, FormatImages, FormatPowerPoint:
		return ExportFormat(s), nil
	case "png":
		return FormatImages, nil
	}
	return "", validationError("unsupported export format", s)
}

// ExportOptions contains configuration for one export
type ExportOptions struct {
	Format ExportFormat `json:"format"`

	// Theme supplies colors for slides that carry none. Zero value means
	// the presentation's own theme.
	Theme entities.Theme `json:"-"`
}

// ExportResult describes a finished export
type ExportResult struct {
	Format ExportFormat `json:"format"`

	// Files are the sink locations in slide order
	Files []string `json:"files"`

	// Exported counts slides that made it into the output
	Exported int `json:"exported"`

	// Failed lists zero-based indexes of slides that were skipped
	Failed []int `json:"failed,omitempty"`

	Duration    string    `json:"duration"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Partial reports whether some slides were skipped.
func (r *ExportResult) Partial() bool {
	return len(r.Failed) > 0
}

// PipelineConfig wires the pipeline's collaborators.
type PipelineConfig struct {
	Capturer ports.SlideCapturer
	Sink     ports.ArtifactSink
	Fetcher  ports.ImageFetcher
	Clock    ports.TimeProvider
	Logger   *slog.Logger
	Metrics  *monitoring.Metrics

	// Scale is the device pixel ratio used for captures
	Scale float64

	// SlideTimeout bounds one slide capture
	SlideTimeout time.Duration

	// Stagger is the delay between consecutive image artifacts
	Stagger time.Duration
}

// Pipeline turns presentations into PDF, PNG and PPTX artifacts.
type Pipeline struct {
	capturer     ports.SlideCapturer
	sink         ports.ArtifactSink
	fetcher      ports.ImageFetcher
	clock        ports.TimeProvider
	logger       *slog.Logger
	metrics      *monitoring.Metrics
	scale        float64
	slideTimeout time.Duration
	stagger      time.Duration
}

// NewPipeline creates a pipeline. Capturer and Sink are required.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Capturer == nil {
		return nil, &ExportError{Type: ErrorTypeConfiguration, Message: "slide capturer is required", Code: "NO_CAPTURER"}
	}
	if cfg.Sink == nil {
		return nil, &ExportError{Type: ErrorTypeConfiguration, Message: "artifact sink is required", Code: "NO_SINK"}
	}
	if cfg.Clock == nil {
		cfg.Clock = ports.NewRealTimeProvider()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}

	return &Pipeline{
		capturer:     cfg.Capturer,
		sink:         cfg.Sink,
		fetcher:      cfg.Fetcher,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		scale:        cfg.Scale,
		slideTimeout: cfg.SlideTimeout,
		stagger:      cfg.Stagger,
	}, nil
}

// CapturerName returns the name of the configured capturer.
func (p *Pipeline) CapturerName() string {
	return p.capturer.Name()
}

// Export produces the requested artifact for presentation. Slides are
// processed in order; a slide that fails is logged, listed in
// ExportResult.Failed and skipped. Nothing reaches the sink until every
// slide has been attempted. When every slide fails the error wraps
// entities.ErrAllSlidesFailed.
func (p *Pipeline) Export(ctx context.Context, presentation *entities.Presentation, options ExportOptions) (result *ExportResult, err error) {
	start := p.clock.Now()
	defer func() {
		status := "success"
		switch {
		case err != nil:
			status = "error"
		case result.Partial():
			status = "partial"
		}
		p.metrics.ExportFinished(string(options.Format), status, p.clock.Since(start))
	}()

	if err := p.validate(presentation, options); err != nil {
		return nil, err
	}

	theme := options.Theme
	if theme.ID == "" {
		theme, _ = entities.LookupTheme(presentation.Theme)
	}
	snapshot := presentation.Clone()

	logger := p.logger.With(
		slog.String("presentation_id", snapshot.ID),
		slog.String("format", string(options.Format)),
	)
	logger.Info("export started", slog.Int("slides", len(snapshot.Slides)))

	switch options.Format {
	case FormatPowerPoint:
		result, err = p.exportPPTX(ctx, &snapshot, theme, logger)
	default:
		result, err = p.exportCaptured(ctx, &snapshot, theme, options.Format, logger)
	}
	if err != nil {
		logger.Error("export failed", slog.String("error", err.Error()))
		return nil, err
	}

	end := p.clock.Now()
	result.Duration = end.Sub(start).String()
	result.GeneratedAt = end

	logger.Info("export finished",
		slog.Int("exported", result.Exported),
		slog.Int("failed", len(result.Failed)),
		slog.String("duration", result.Duration))
	return result, nil
}

func (p *Pipeline) validate(presentation *entities.Presentation, options ExportOptions) error {
	if presentation == nil {
		return validationError("presentation is required", "")
	}
	if _, err := ParseFormat(string(options.Format)); err != nil {
		return err
	}
	if len(presentation.Slides) == 0 {
		return validationError("presentation has no slides", presentation.ID)
	}
	return nil
}

// capturedSlide is one successfully captured slide.
type capturedSlide struct {
	index  int
	bitmap *ports.Bitmap
}

// captureAll captures every slide in order, skipping failures. Only
// cancellation of ctx stops the loop early.
func (p *Pipeline) captureAll(ctx context.Context, presentation *entities.Presentation, theme entities.Theme, logger *slog.Logger) ([]capturedSlide, []int, error) {
	captured := make([]capturedSlide, 0, len(presentation.Slides))
	var failed []int
	var lastErr error

	for i := range presentation.Slides {
		if err := ctx.Err(); err != nil {
			return nil, nil, categorizeError(err)
		}

		bitmap, err := p.captureOne(ctx, ports.CaptureRequest{
			Presentation: presentation,
			Index:        i,
			Theme:        theme,
			Scale:        p.scale,
		})
		p.metrics.SlideCaptured(p.capturer.Name(), err)

		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, categorizeError(ctx.Err())
			}
			logger.Warn("slide capture failed, skipping",
				slog.Int("slide", i+1),
				slog.String("capturer", p.capturer.Name()),
				slog.String("error", err.Error()))
			failed = append(failed, i)
			lastErr = err
			continue
		}
		captured = append(captured, capturedSlide{index: i, bitmap: bitmap})
	}

	if len(captured) == 0 {
		return nil, failed, allFailedError(len(presentation.Slides), lastErr)
	}
	return captured, failed, nil
}

func (p *Pipeline) captureOne(ctx context.Context, req ports.CaptureRequest) (*ports.Bitmap, error) {
	if p.slideTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.slideTimeout)
		defer cancel()
	}

	bitmap, err := p.capturer.Capture(ctx, req)
	if err != nil {
		return nil, err
	}
	if bitmap == nil || len(bitmap.PNG) == 0 {
		return nil, fmt.Errorf("capturer %s returned an empty bitmap", p.capturer.Name())
	}
	if _, err := png.DecodeConfig(bytes.NewReader(bitmap.PNG)); err != nil {
		return nil, fmt.Errorf("capturer %s returned an invalid PNG: %w", p.capturer.Name(), err)
	}
	return bitmap, nil
}

func (p *Pipeline) exportCaptured(ctx context.Context, presentation *entities.Presentation, theme entities.Theme, format ExportFormat, logger *slog.Logger) (*ExportResult, error) {
	captured, failed, err := p.captureAll(ctx, presentation, theme, logger)
	if err != nil {
		return nil, err
	}

	var artifacts []ports.Artifact
	switch format {
	case FormatPDF:
		artifact, err := assemblePDF(presentation, captured)
		if err != nil {
			return nil, categorizeError(err)
		}
		artifacts = []ports.Artifact{artifact}
	case FormatImages:
		artifacts = imageArtifacts(presentation, captured)
	}

	files, err := p.commit(ctx, artifacts, format == FormatImages)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Format:   format,
		Files:    files,
		Exported: len(captured),
		Failed:   failed,
	}, nil
}

// commit hands artifacts to the sink in order. With stagger set, a delay
// separates consecutive writes.
func (p *Pipeline) commit(ctx context.Context, artifacts []ports.Artifact, stagger bool) ([]string, error) {
	files := make([]string, 0, len(artifacts))
	for i, artifact := range artifacts {
		if stagger && i > 0 && p.stagger > 0 {
			if err := ports.SleepContext(ctx, p.clock, p.stagger); err != nil {
				return files, categorizeError(err)
			}
		}
		location, err := p.sink.Write(ctx, artifact)
		if err != nil {
			return files, &ExportError{
				Type:    ErrorTypeFilesystem,
				Message: "writing artifact failed",
				Details: artifact.Name,
				Code:    "SINK_WRITE",
				Cause:   err,
			}
		}
		files = append(files, location)
	}
	return files, nil
}
