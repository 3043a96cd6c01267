package ports

import (
	"context"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

// Reference slide geometry. Everything is laid out at this size and then
// scaled at capture time.
const (
	SlideWidth  = 1920
	SlideHeight = 1080
)

// CaptureRequest identifies one slide to rasterise.
type CaptureRequest struct {
	Presentation *entities.Presentation
	Index        int
	Theme        entities.Theme
	Scale        float64
}

// Slide returns the slide being captured.
func (r CaptureRequest) Slide() entities.Slide {
	return r.Presentation.Slides[r.Index]
}

// Bitmap is a captured slide encoded as PNG.
type Bitmap struct {
	Width  int
	Height int
	PNG    []byte
}

// SlideCapturer turns one rendered slide into a bitmap. A failure affects
// only the requested slide.
type SlideCapturer interface {
	Capture(ctx context.Context, req CaptureRequest) (*Bitmap, error)
	Name() string
}

// Artifact is one produced export file.
type Artifact struct {
	Name     string
	MimeType string
	Data     []byte
}

// ArtifactSink receives finished artifacts.
type ArtifactSink interface {
	Write(ctx context.Context, artifact Artifact) (string, error)
}

// ImageFetcher loads remote images referenced by slides.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}
