package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// MockGateway is a testify mock of ports.Gateway
type MockGateway struct {
	mock.Mock
}

var _ ports.Gateway = (*MockGateway)(nil)

func (m *MockGateway) GeneratePresentation(ctx context.Context, req entities.GenerateRequest) (*entities.GeneratedDeck, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GeneratedDeck), args.Error(1)
}

func (m *MockGateway) SavePresentation(ctx context.Context, p entities.Presentation) (*entities.SaveResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SaveResult), args.Error(1)
}

func (m *MockGateway) ListPresentations(ctx context.Context) ([]entities.Presentation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Presentation), args.Error(1)
}

func (m *MockGateway) Models(ctx context.Context) (*entities.ModelCatalog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ModelCatalog), args.Error(1)
}

func (m *MockGateway) Themes(ctx context.Context) ([]entities.Theme, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Theme), args.Error(1)
}

func (m *MockGateway) CreateTheme(ctx context.Context, theme entities.Theme) (string, error) {
	args := m.Called(ctx, theme)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) GenerateImage(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) GenerateSlide(ctx context.Context, prompt, model, theme string) (*entities.Slide, error) {
	args := m.Called(ctx, prompt, model, theme)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Slide), args.Error(1)
}

func (m *MockGateway) EnhanceSlide(ctx context.Context, slide entities.Slide, enhancement string) (*entities.Slide, error) {
	args := m.Called(ctx, slide, enhancement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Slide), args.Error(1)
}

func (m *MockGateway) TransformText(ctx context.Context, op entities.TextOperation, text string) (string, error) {
	args := m.Called(ctx, op, text)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) UploadDocument(ctx context.Context, filename string, r io.Reader) (*entities.Document, error) {
	args := m.Called(ctx, filename, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Document), args.Error(1)
}

func (m *MockGateway) IngestURL(ctx context.Context, url string) (*entities.Document, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Document), args.Error(1)
}

func (m *MockGateway) IngestText(ctx context.Context, text, name string) (*entities.Document, error) {
	args := m.Called(ctx, text, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Document), args.Error(1)
}

func (m *MockGateway) SummarizeDocument(ctx context.Context, req entities.SummarizeRequest) (*entities.SummaryResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SummaryResult), args.Error(1)
}

func (m *MockGateway) GenerateOutline(ctx context.Context, content string) ([]entities.OutlineItem, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.OutlineItem), args.Error(1)
}

func (m *MockGateway) GenerateSlidesFromOutline(ctx context.Context, outline []entities.OutlineItem) (*entities.GeneratedDeck, error) {
	args := m.Called(ctx, outline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GeneratedDeck), args.Error(1)
}
