package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// ThemeSource reports the theme id new decks should use.
type ThemeSource interface {
	Load(ctx context.Context) (string, error)
}

// PresentationServiceConfig tunes the workflow service.
type PresentationServiceConfig struct {
	DefaultModel string
	// DefaultTheme is used when Themes is nil or fails.
	DefaultTheme string
	// Themes is asked on every generation so preference changes apply
	// without a restart.
	Themes        ThemeSource
	MaxUploadSize int64
}

// PresentationService runs the generation and persistence workflows. Every
// state change it causes goes through the store.
type PresentationService struct {
	store   *Store
	gateway ports.Gateway
	config  PresentationServiceConfig
	logger  *slog.Logger
}

// NewPresentationService creates a new presentation service instance
func NewPresentationService(store *Store, gateway ports.Gateway, config PresentationServiceConfig, logger *slog.Logger) *PresentationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PresentationService{
		store:   store,
		gateway: gateway,
		config:  config,
		logger:  logger,
	}
}

// theme returns the theme id for a deck created now.
func (s *PresentationService) theme(ctx context.Context) string {
	fallback := s.config.DefaultTheme
	if fallback == "" {
		fallback = entities.DefaultThemeID
	}
	if s.config.Themes == nil {
		return fallback
	}
	id, err := s.config.Themes.Load(ctx)
	if err != nil || strings.TrimSpace(id) == "" {
		if err != nil {
			s.logger.Warn("theme preference unavailable, using default",
				slog.String("theme", fallback), slog.String("error", err.Error()))
		}
		return fallback
	}
	return id
}

// Store returns the store the service writes to.
func (s *PresentationService) Store() *Store {
	return s.store
}

// track wraps a backend call with the store's loading and error flags.
func (s *PresentationService) track(op string, fn func() error) error {
	s.store.Dispatch(SetLoading{Loading: true})
	s.store.Dispatch(SetError{})
	defer s.store.Dispatch(SetLoading{Loading: false})

	if err := fn(); err != nil {
		s.logger.Error("backend operation failed", slog.String("operation", op), slog.String("error", err.Error()))
		s.store.Dispatch(SetError{Message: err.Error()})
		return err
	}
	return nil
}

// GenerateFromPrompt asks the backend for a deck and stores it as the new
// current presentation. On failure the presentation set is left untouched.
func (s *PresentationService) GenerateFromPrompt(ctx context.Context, prompt, model string) (entities.Presentation, error) {
	if err := entities.ValidatePrompt(prompt); err != nil {
		return entities.Presentation{}, err
	}
	if model == "" {
		model = s.config.DefaultModel
	}
	theme := s.theme(ctx)

	var deck *entities.GeneratedDeck
	err := s.track("generate", func() error {
		var err error
		deck, err = s.gateway.GeneratePresentation(ctx, entities.GenerateRequest{
			Prompt:             prompt,
			Model:              model,
			Theme:              theme,
			IncludeInteractive: true,
		})
		if err != nil {
			return fmt.Errorf("generating presentation: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Presentation{}, err
	}

	data := deck.Data()
	if data.Theme == "" {
		data.Theme = theme
	}
	p := s.store.Create(data)
	s.logger.Info("presentation generated",
		slog.String("presentation_id", p.ID),
		slog.Int("slides", len(p.Slides)))
	return p, nil
}

// ImportDocument validates and uploads a document for later summarisation.
func (s *PresentationService) ImportDocument(ctx context.Context, filename string, size int64, r io.Reader) (*entities.Document, error) {
	if err := entities.ValidateDocument(filename, size, s.config.MaxUploadSize); err != nil {
		return nil, err
	}

	var doc *entities.Document
	err := s.track("upload", func() error {
		var err error
		doc, err = s.gateway.UploadDocument(ctx, filename, r)
		if err != nil {
			return fmt.Errorf("uploading %s: %w", filename, err)
		}
		return nil
	})
	return doc, err
}

// GenerateOutline is the first phase of the document flow: titles and short
// content only, for the user to review.
func (s *PresentationService) GenerateOutline(ctx context.Context, doc entities.Document) ([]entities.OutlineItem, error) {
	text := doc.Text()
	if err := entities.ValidatePrompt(text); err != nil {
		return nil, entities.NewInputError("document", entities.ErrEmptyPrompt)
	}

	var outline []entities.OutlineItem
	err := s.track("outline", func() error {
		result, err := s.gateway.SummarizeDocument(ctx, entities.SummarizeRequest{
			Content:     text,
			Filename:    doc.Filename,
			OutlineOnly: true,
		})
		if err != nil {
			return fmt.Errorf("generating outline: %w", err)
		}
		outline = result.Outline
		if len(outline) == 0 {
			for _, slide := range result.Slides {
				outline = append(outline, entities.OutlineItem{Title: slide.Title, Content: slide.Content})
			}
		}
		return nil
	})
	return outline, err
}

// GenerateFromOutline is the second phase of the document flow.
func (s *PresentationService) GenerateFromOutline(ctx context.Context, outline []entities.OutlineItem) (entities.Presentation, error) {
	if len(outline) == 0 {
		return entities.Presentation{}, entities.NewInputError("outline", entities.ErrEmptyPrompt)
	}

	var deck *entities.GeneratedDeck
	err := s.track("slides_from_outline", func() error {
		var err error
		deck, err = s.gateway.GenerateSlidesFromOutline(ctx, outline)
		if err != nil {
			return fmt.Errorf("generating slides from outline: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Presentation{}, err
	}
	return s.store.Create(deck.Data()), nil
}

// GenerateFromDocument summarises a document straight into a deck.
func (s *PresentationService) GenerateFromDocument(ctx context.Context, doc entities.Document) (entities.Presentation, error) {
	text := doc.Text()
	if err := entities.ValidatePrompt(text); err != nil {
		return entities.Presentation{}, entities.NewInputError("document", entities.ErrEmptyPrompt)
	}

	var result *entities.SummaryResult
	err := s.track("summarize", func() error {
		var err error
		result, err = s.gateway.SummarizeDocument(ctx, entities.SummarizeRequest{Content: text, Filename: doc.Filename})
		if err != nil {
			return fmt.Errorf("summarizing document: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Presentation{}, err
	}

	return s.store.Create(entities.PresentationData{
		Title:       result.Title,
		Description: result.Description,
		Theme:       result.Theme,
		Slides:      result.Slides,
	}), nil
}

// Save sends the latest snapshot of a presentation to the backend. Saves are
// last-write-wins. A detached current presentation is adopted into the
// stored set once the backend accepted it.
func (s *PresentationService) Save(ctx context.Context, id string) (*entities.SaveResult, error) {
	snapshot, stored := s.store.Presentation(id)
	if !stored {
		current, ok := s.store.Current()
		if !ok || current.ID != id {
			return nil, fmt.Errorf("saving %s: %w", id, entities.ErrPresentationNotFound)
		}
		snapshot = current
	}

	var result *entities.SaveResult
	err := s.track("save", func() error {
		var err error
		result, err = s.gateway.SavePresentation(ctx, snapshot)
		if err != nil {
			return fmt.Errorf("saving presentation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !stored {
		s.store.Dispatch(AdoptPresentation{Presentation: snapshot})
		s.logger.Info("detached presentation adopted", slog.String("presentation_id", id))
	}
	return result, nil
}

// Sync loads the backend's saved presentations into the store. Stored
// presentations with the same id are replaced.
func (s *PresentationService) Sync(ctx context.Context) (int, error) {
	var remote []entities.Presentation
	err := s.track("sync", func() error {
		var err error
		remote, err = s.gateway.ListPresentations(ctx)
		if err != nil {
			return fmt.Errorf("listing presentations: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, p := range remote {
		s.store.Dispatch(AdoptPresentation{Presentation: p})
	}
	return len(remote), nil
}

// ApplyTextOperation rewrites a slide's content with the backend. The result
// is applied to whatever the slide looks like when the call completes; if
// the slide is gone by then nothing is written.
func (s *PresentationService) ApplyTextOperation(ctx context.Context, presentationID, slideID string, op entities.TextOperation) (entities.Slide, error) {
	if !op.Valid() {
		return entities.Slide{}, entities.NewInputError("operation", fmt.Errorf("unknown text operation %q", op))
	}
	slide, err := s.slide(presentationID, slideID)
	if err != nil {
		return entities.Slide{}, err
	}
	if err := entities.ValidatePrompt(slide.Content); err != nil {
		return entities.Slide{}, entities.NewInputError("content", entities.ErrEmptyPrompt)
	}

	var text string
	err = s.track(string(op), func() error {
		var err error
		text, err = s.gateway.TransformText(ctx, op, slide.Content)
		if err != nil {
			return fmt.Errorf("%s text: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return entities.Slide{}, err
	}

	return s.applyToSlide(presentationID, slideID, func(sl *entities.Slide) { sl.Content = text })
}

// GenerateSlideImage generates an image for a slide and attaches it.
func (s *PresentationService) GenerateSlideImage(ctx context.Context, presentationID, slideID, prompt string) (entities.Slide, error) {
	if err := entities.ValidatePrompt(prompt); err != nil {
		return entities.Slide{}, err
	}
	if _, err := s.slide(presentationID, slideID); err != nil {
		return entities.Slide{}, err
	}

	var imageURL string
	err := s.track("generate_image", func() error {
		var err error
		imageURL, err = s.gateway.GenerateImage(ctx, prompt)
		if err != nil {
			return fmt.Errorf("generating image: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Slide{}, err
	}

	return s.applyToSlide(presentationID, slideID, func(sl *entities.Slide) { sl.ImageURL = imageURL })
}

// EnhanceSlide asks the backend to improve a whole slide. Identity is kept.
func (s *PresentationService) EnhanceSlide(ctx context.Context, presentationID, slideID, enhancement string) (entities.Slide, error) {
	slide, err := s.slide(presentationID, slideID)
	if err != nil {
		return entities.Slide{}, err
	}

	var enhanced *entities.Slide
	err = s.track("enhance_slide", func() error {
		var err error
		enhanced, err = s.gateway.EnhanceSlide(ctx, slide, enhancement)
		if err != nil {
			return fmt.Errorf("enhancing slide: %w", err)
		}
		return nil
	})
	if err != nil {
		return entities.Slide{}, err
	}

	return s.applyToSlide(presentationID, slideID, func(sl *entities.Slide) {
		*sl = *enhanced
	})
}

// CreateFallback stores a locally built deck for prompt, used when the
// backend cannot be reached.
func (s *PresentationService) CreateFallback(ctx context.Context, prompt string) (entities.Presentation, error) {
	if err := entities.ValidatePrompt(prompt); err != nil {
		return entities.Presentation{}, err
	}
	return s.store.Create(FallbackPresentation(prompt, s.theme(ctx))), nil
}

func (s *PresentationService) slide(presentationID, slideID string) (entities.Slide, error) {
	p, ok := s.store.Presentation(presentationID)
	if !ok {
		return entities.Slide{}, fmt.Errorf("%s: %w", presentationID, entities.ErrPresentationNotFound)
	}
	slide, ok := p.Slide(slideID)
	if !ok {
		return entities.Slide{}, fmt.Errorf("%s: %w", slideID, entities.ErrSlideNotFound)
	}
	return slide, nil
}

func (s *PresentationService) applyToSlide(presentationID, slideID string, edit func(*entities.Slide)) (entities.Slide, error) {
	slide, err := s.slide(presentationID, slideID)
	if err != nil {
		if errors.Is(err, entities.ErrSlideNotFound) || errors.Is(err, entities.ErrPresentationNotFound) {
			s.logger.Warn("slide disappeared before result arrived",
				slog.String("presentation_id", presentationID),
				slog.String("slide_id", slideID))
		}
		return entities.Slide{}, err
	}
	edit(&slide)
	slide.ID = slideID
	s.store.Dispatch(UpdateSlide{PresentationID: presentationID, Slide: slide})
	return slide, nil
}

const maxFallbackTitle = 50

// FallbackPresentation builds a small generic deck from a prompt.
func FallbackPresentation(prompt, theme string) entities.PresentationData {
	title := fallbackTitle(prompt)
	topic := strings.ToLower(title)

	return entities.PresentationData{
		Title:       title,
		Description: "A presentation about " + topic,
		Theme:       theme,
		Slides: []entities.Slide{
			{Title: title, Content: "An overview of " + topic, Layout: entities.LayoutCenter, TextAlign: entities.AlignCenter, Type: entities.SlideTypeTitle},
			{Title: "Introduction", Content: "Background and context\nWhy this topic matters\nWhat we will cover", Type: entities.SlideTypeContent},
			{Title: "Key Points", Content: "First key point\nSecond key point\nThird key point", Type: entities.SlideTypeContent},
			{Title: "Details", Content: "Supporting evidence\nExamples and case studies\nOpen questions", Layout: entities.LayoutTwoColumn, Type: entities.SlideTypeContent},
			{Title: "Conclusion", Content: "Summary of the main ideas\nNext steps\nQuestions", Layout: entities.LayoutCenter, TextAlign: entities.AlignCenter, Type: entities.SlideTypeContent},
		},
	}
}

func fallbackTitle(prompt string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, prompt)

	title := cases.Title(language.English).String(strings.Join(strings.Fields(cleaned), " "))
	if runes := []rune(title); len(runes) > maxFallbackTitle {
		title = strings.TrimSpace(string(runes[:maxFallbackTitle]))
	}
	if title == "" {
		return "Untitled Presentation"
	}
	return title
}
