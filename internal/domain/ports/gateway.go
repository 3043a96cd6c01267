package ports

import (
	"context"
	"io"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

// Gateway is the typed client for the remote generation backend.
type Gateway interface {
	GeneratePresentation(ctx context.Context, req entities.GenerateRequest) (*entities.GeneratedDeck, error)
	SavePresentation(ctx context.Context, p entities.Presentation) (*entities.SaveResult, error)
	ListPresentations(ctx context.Context) ([]entities.Presentation, error)
	Models(ctx context.Context) (*entities.ModelCatalog, error)
	Themes(ctx context.Context) ([]entities.Theme, error)
	CreateTheme(ctx context.Context, theme entities.Theme) (string, error)

	GenerateImage(ctx context.Context, prompt string) (string, error)
	GenerateSlide(ctx context.Context, prompt, model, theme string) (*entities.Slide, error)
	EnhanceSlide(ctx context.Context, slide entities.Slide, enhancement string) (*entities.Slide, error)
	TransformText(ctx context.Context, op entities.TextOperation, text string) (string, error)

	UploadDocument(ctx context.Context, filename string, r io.Reader) (*entities.Document, error)
	IngestURL(ctx context.Context, url string) (*entities.Document, error)
	IngestText(ctx context.Context, text, name string) (*entities.Document, error)
	SummarizeDocument(ctx context.Context, req entities.SummarizeRequest) (*entities.SummaryResult, error)
	GenerateOutline(ctx context.Context, content string) ([]entities.OutlineItem, error)
	GenerateSlidesFromOutline(ctx context.Context, outline []entities.OutlineItem) (*entities.GeneratedDeck, error)
}

// PreferenceStore persists small user preferences across restarts.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
