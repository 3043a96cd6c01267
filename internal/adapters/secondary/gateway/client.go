package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/monitoring"
	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

const userAgent = "slidecraft/1.0"

// Client is the typed HTTP+JSON client for the generation backend.
type Client struct {
	baseURL string
	http    ports.HTTPClient
	logger  *slog.Logger
	metrics *monitoring.Metrics
}

// NewClient creates a client that sends requests through doer.
func NewClient(baseURL string, doer ports.HTTPClient, logger *slog.Logger, metrics *monitoring.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		logger:  logger,
		metrics: metrics,
	}
}

// New builds a client from configuration with the retry decorator in place.
func New(cfg entities.GatewayConfig, logger *slog.Logger, metrics *monitoring.Metrics) *Client {
	base := ports.NewRealHTTPClient(ports.HTTPClientConfig{
		Timeout:   cfg.GetTimeout(),
		UserAgent: userAgent,
	})
	policy := RetryPolicy{MaxAttempts: cfg.GetMaxAttempts(), Backoff: cfg.GetBackoff()}
	transport := NewRetryTransport(base, policy, nil, logger, metrics)
	return NewClient(cfg.BaseURL, transport, logger, metrics)
}

var _ ports.Gateway = (*Client)(nil)

// do sends one request and decodes a JSON answer into out (may be nil).
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out interface{}) (err error) {
	start := time.Now()
	endpoint := strings.TrimPrefix(path, "/api/")
	defer func() {
		c.metrics.GatewayRequest(endpoint, StatusLabel(err), time.Since(start))
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newGatewayError(endpoint, resp)
	}
	defer drain(resp.Body)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request for %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", body, out)
}

// GeneratePresentation asks for a complete deck from a prompt.
func (c *Client) GeneratePresentation(ctx context.Context, req entities.GenerateRequest) (*entities.GeneratedDeck, error) {
	var deck entities.GeneratedDeck
	if err := c.postJSON(ctx, "/api/generate-presentation", req, &deck); err != nil {
		return nil, err
	}
	return &deck, nil
}

// SavePresentation stores a snapshot on the backend.
func (c *Client) SavePresentation(ctx context.Context, p entities.Presentation) (*entities.SaveResult, error) {
	var result entities.SaveResult
	if err := c.postJSON(ctx, "/api/save-presentation", p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPresentations returns the backend's saved presentations.
func (c *Client) ListPresentations(ctx context.Context) ([]entities.Presentation, error) {
	var body struct {
		Presentations []entities.Presentation `json:"presentations"`
	}
	if err := c.getJSON(ctx, "/api/presentations", &body); err != nil {
		return nil, err
	}
	return body.Presentations, nil
}

// Models returns the model catalogue.
func (c *Client) Models(ctx context.Context) (*entities.ModelCatalog, error) {
	var catalog entities.ModelCatalog
	if err := c.getJSON(ctx, "/api/models", &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Themes returns the backend's theme list. The backend answers with either
// a list or an id keyed object.
func (c *Client) Themes(ctx context.Context) ([]entities.Theme, error) {
	var body struct {
		Themes json.RawMessage `json:"themes"`
	}
	if err := c.getJSON(ctx, "/api/themes", &body); err != nil {
		return nil, err
	}
	if len(body.Themes) == 0 {
		return nil, nil
	}

	var list []entities.Theme
	if err := json.Unmarshal(body.Themes, &list); err == nil {
		return list, nil
	}

	var keyed map[string]entities.Theme
	if err := json.Unmarshal(body.Themes, &keyed); err != nil {
		return nil, fmt.Errorf("decoding themes: %w", err)
	}
	for id, theme := range keyed {
		if theme.ID == "" {
			theme.ID = id
		}
		list = append(list, theme)
	}
	return list, nil
}

// CreateTheme registers a custom theme and returns the name the backend
// stored it under.
func (c *Client) CreateTheme(ctx context.Context, theme entities.Theme) (string, error) {
	var body struct {
		ThemeName string `json:"theme_name"`
	}
	if err := c.postJSON(ctx, "/api/create-theme", theme, &body); err != nil {
		return "", err
	}
	return body.ThemeName, nil
}

// GenerateImage returns the URL of a generated image.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	var body struct {
		ImageURL string `json:"image_url"`
	}
	if err := c.postJSON(ctx, "/api/generate-image", map[string]string{"prompt": prompt}, &body); err != nil {
		return "", err
	}
	return body.ImageURL, nil
}

// GenerateSlide generates a single slide.
func (c *Client) GenerateSlide(ctx context.Context, prompt, model, theme string) (*entities.Slide, error) {
	req := struct {
		Prompt string `json:"prompt"`
		Model  string `json:"model,omitempty"`
		Theme  string `json:"theme,omitempty"`
	}{prompt, model, theme}

	var slide entities.Slide
	if err := c.postJSON(ctx, "/api/generate-slide", req, &slide); err != nil {
		return nil, err
	}
	return &slide, nil
}

// EnhanceSlide improves a slide. enhancement is content, layout or overall.
func (c *Client) EnhanceSlide(ctx context.Context, slide entities.Slide, enhancement string) (*entities.Slide, error) {
	req := struct {
		Slide           entities.Slide `json:"slide"`
		EnhancementType string         `json:"enhancement_type"`
	}{slide, enhancement}

	var enhanced entities.Slide
	if err := c.postJSON(ctx, "/api/enhance-slide", req, &enhanced); err != nil {
		return nil, err
	}
	return &enhanced, nil
}

// TransformText runs a text operation through the slide enhancement
// endpoint and returns the rewritten content.
func (c *Client) TransformText(ctx context.Context, op entities.TextOperation, text string) (string, error) {
	enhanced, err := c.EnhanceSlide(ctx, entities.Slide{Type: entities.SlideTypeContent, Content: text}, string(op))
	if err != nil {
		return "", err
	}
	return enhanced.Content, nil
}

// UploadDocument sends a file as multipart form data. The form is buffered
// so the request can be replayed on retry.
func (c *Client) UploadDocument(ctx context.Context, filename string, r io.Reader) (*entities.Document, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	var doc entities.Document
	if err := c.do(ctx, http.MethodPost, "/api/upload-document", form.FormDataContentType(), buf.Bytes(), &doc); err != nil {
		return nil, err
	}
	c.logger.Info("document uploaded",
		slog.String("filename", doc.Filename),
		slog.Int("words", doc.WordCount))
	return &doc, nil
}

// IngestURL fetches and processes a web page on the backend.
func (c *Client) IngestURL(ctx context.Context, url string) (*entities.Document, error) {
	var doc entities.Document
	if err := c.postJSON(ctx, "/api/ingest-url", map[string]string{"url": url}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// IngestText processes pasted text on the backend.
func (c *Client) IngestText(ctx context.Context, text, name string) (*entities.Document, error) {
	var doc entities.Document
	req := map[string]string{"text": text}
	if name != "" {
		req["name"] = name
	}
	if err := c.postJSON(ctx, "/api/ingest-text", req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SummarizeDocument turns document text into an outline or full slides.
func (c *Client) SummarizeDocument(ctx context.Context, req entities.SummarizeRequest) (*entities.SummaryResult, error) {
	var result entities.SummaryResult
	if err := c.postJSON(ctx, "/api/summarize-document", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// outlineSection is the backend's outline wire format.
type outlineSection struct {
	Title   string   `json:"title"`
	Content string   `json:"content,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
}

type outlineBody struct {
	Title    string           `json:"title"`
	Sections []outlineSection `json:"sections"`
}

// GenerateOutline asks for a sectioned outline of content.
func (c *Client) GenerateOutline(ctx context.Context, content string) ([]entities.OutlineItem, error) {
	var body outlineBody
	if err := c.postJSON(ctx, "/api/generate-outline", map[string]string{"content": content}, &body); err != nil {
		return nil, err
	}

	items := make([]entities.OutlineItem, 0, len(body.Sections))
	for _, s := range body.Sections {
		text := s.Content
		if text == "" {
			text = strings.Join(s.Bullets, "\n")
		}
		items = append(items, entities.OutlineItem{Title: s.Title, Content: text})
	}
	return items, nil
}

// GenerateSlidesFromOutline expands a reviewed outline into a deck.
func (c *Client) GenerateSlidesFromOutline(ctx context.Context, outline []entities.OutlineItem) (*entities.GeneratedDeck, error) {
	body := outlineBody{Sections: make([]outlineSection, 0, len(outline))}
	for _, item := range outline {
		body.Sections = append(body.Sections, outlineSection{
			Title:   item.Title,
			Bullets: strings.Split(item.Content, "\n"),
		})
	}
	if len(outline) > 0 {
		body.Title = outline[0].Title
	}

	var deck entities.GeneratedDeck
	if err := c.postJSON(ctx, "/api/generate-slides", map[string]interface{}{"outline": body}, &deck); err != nil {
		return nil, err
	}
	return &deck, nil
}
