package http

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/export"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/gateway"
	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/renderer"
	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

// Response headers set by the API.
const (
	headerFailedSlides = "X-Slidecraft-Failed-Slides"
	headerFallback     = "X-Slidecraft-Fallback"
)

// maxJSONBody limits request bodies; slides may carry data: URI images.
const maxJSONBody = 32 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string    `json:"error"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Presentations int    `json:"presentations"`
	Loading       bool   `json:"loading"`
	LastError     string `json:"lastError,omitempty"`
}

// ReorderRequest lists every slide id of a presentation in the new order
type ReorderRequest struct {
	SlideIDs []string `json:"slideIds"`
}

// CurrentRequest points the current presentation at a stored one, or at a
// detached presentation that is not part of the stored set.
type CurrentRequest struct {
	ID           string                 `json:"id,omitempty"`
	Presentation *entities.Presentation `json:"presentation,omitempty"`
}

// GenerateRequest asks the backend for a new deck
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`

	// Fallback builds a local deck when the backend fails
	Fallback bool `json:"fallback,omitempty"`
}

// ExportRequest selects the export format and an optional theme override
type ExportRequest struct {
	Format string `json:"format"`
	Theme  string `json:"theme,omitempty"`
}

// TextOperationRequest names the rewrite to apply to a slide's content
type TextOperationRequest struct {
	Operation entities.TextOperation `json:"operation"`
}

// ImageRequest carries the prompt for a generated slide image
type ImageRequest struct {
	Prompt string `json:"prompt"`
}

// ThemePreference is the body of the theme preference endpoints
type ThemePreference struct {
	Theme string `json:"theme"`
}

// handleIndex renders the current presentation, or a placeholder deck
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	presentation, ok := s.store.Current()
	if !ok {
		presentation = entities.Presentation{
			Title: "No presentation loaded",
			Slides: []entities.Slide{{
				Title:     "No presentation loaded",
				Content:   "Create or generate a presentation to get started.",
				Layout:    entities.LayoutCenter,
				TextAlign: entities.AlignCenter,
			}},
		}
	}
	s.renderPresentation(w, r, &presentation, renderer.ModePresent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       Version,
		Presentations: len(state.Presentations),
		Loading:       state.IsLoading,
		LastError:     state.Error,
	})
}

func (s *Server) handleListPresentations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleCreatePresentation(w http.ResponseWriter, r *http.Request) {
	var data entities.PresentationData
	if !s.decodeJSON(w, r, &data) {
		return
	}
	if strings.TrimSpace(data.Title) == "" {
		s.handleError(w, entities.NewInputError("title", errors.New("title is required")), http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.store.Create(data))
}

func (s *Server) handleGetPresentation(w http.ResponseWriter, r *http.Request) {
	presentation, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, presentation)
}

// handleUpdatePresentation replaces title, description, theme and slides
func (s *Server) handleUpdatePresentation(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var update entities.Presentation
	if !s.decodeJSON(w, r, &update) {
		return
	}

	update.ID = existing.ID
	update.CreatedAt = existing.CreatedAt
	if update.Slides == nil {
		update.Slides = existing.Slides
	}
	state := s.store.Dispatch(services.UpdatePresentation{Presentation: update})
	updated, _ := state.Find(existing.ID)
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeletePresentation(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.store.Dispatch(services.DeletePresentation{ID: existing.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSlide(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var slide entities.Slide
	if !s.decodeJSON(w, r, &slide) {
		return
	}

	created, ok := s.store.AddSlide(existing.ID, slide)
	if !ok {
		s.handleError(w, fmt.Errorf("%s: %w", existing.ID, entities.ErrPresentationNotFound), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateSlide(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.lookup(w, r)
	if !ok {
		return
	}
	slideID := mux.Vars(r)["slideID"]
	if _, found := existing.Slide(slideID); !found {
		s.handleError(w, fmt.Errorf("%s: %w", slideID, entities.ErrSlideNotFound), http.StatusNotFound)
		return
	}

	var slide entities.Slide
	if !s.decodeJSON(w, r, &slide) {
		return
	}
	slide.ID = slideID
	s.store.Dispatch(services.UpdateSlide{PresentationID: existing.ID, Slide: slide})

	updated, _ := s.store.Presentation(existing.ID)
	stored, _ := updated.Slide(slideID)
	s.writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteSlide(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.lookup(w, r)
	if !ok {
		return
	}
	slideID := mux.Vars(r)["slideID"]
	if _, found := existing.Slide(slideID); !found {
		s.handleError(w, fmt.Errorf("%s: %w", slideID, entities.ErrSlideNotFound), http.StatusNotFound)
		return
	}
	s.store.Dispatch(services.DeleteSlide{PresentationID: existing.ID, SlideID: slideID})
	w.WriteHeader(http.StatusNoContent)
}

// handleReorderSlides accepts only a permutation of the current slide ids
func (s *Server) handleReorderSlides(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req ReorderRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	updated, err := s.store.ReorderSlides(existing.ID, req.SlideIDs)
	if err != nil {
		s.handleError(w, err, statusFor(err))
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleTextOperation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req TextOperationRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	slide, err := s.presentations.ApplyTextOperation(r.Context(), vars["id"], vars["slideID"], req.Operation)
	if err != nil {
		s.handleError(w, err, statusFor(err))
		return
	}
	s.writeJSON(w, http.StatusOK, slide)
}

func (s *Server) handleSlideImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req ImageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	slide, err := s.presentations.GenerateSlideImage(r.Context(), vars["id"], vars["slideID"], req.Prompt)
	if err != nil {
		s.handleError(w, err, statusFor(err))
		return
	}
	s.writeJSON(w, http.StatusOK, slide)
}

// handleExport runs the export pipeline and streams the artifact back. The
// image format returns a zip of one PNG per slide.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	presentation, ok := s.lookupOrCurrent(w, r)
	if !ok {
		return
	}
	if s.newPipeline == nil {
		s.handleError(w, errors.New("export is not configured"), http.StatusServiceUnavailable)
		return
	}

	var req ExportRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(req.Format)))
	if err != nil {
		s.handleError(w, err, http.StatusBadRequest)
		return
	}

	options := export.ExportOptions{Format: format}
	if req.Theme != "" {
		options.Theme, _ = entities.LookupTheme(req.Theme)
	}

	sink := export.NewMemorySink()
	pipeline, err := s.newPipeline(sink)
	if err != nil {
		s.handleError(w, err, http.StatusInternalServerError)
		return
	}

	result, err := pipeline.Export(r.Context(), &presentation, options)
	if err != nil {
		s.handleError(w, err, statusFor(err))
		return
	}

	if result.Partial() {
		failed := make([]string, len(result.Failed))
		for i, idx := range result.Failed {
			failed[i] = strconv.Itoa(idx + 1)
		}
		w.Header().Set(headerFailedSlides, strings.Join(failed, ","))
	}

	artifacts := sink.Artifacts()
	if len(artifacts) == 1 {
		s.writeFile(w, artifacts[0].Name, artifacts[0].MimeType, artifacts[0].Data)
		return
	}

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)
	for _, artifact := range artifacts {
		f, err := archive.Create(artifact.Name)
		if err == nil {
			_, err = f.Write(artifact.Data)
		}
		if err != nil {
			s.handleError(w, fmt.Errorf("zipping %s: %w", artifact.Name, err), http.StatusInternalServerError)
			return
		}
	}
	if err := archive.Close(); err != nil {
		s.handleError(w, fmt.Errorf("closing zip: %w", err), http.StatusInternalServerError)
		return
	}
	s.writeFile(w, export.ArchiveName(&presentation), "application/zip", buf.Bytes())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	presentation, ok := s.lookupOrCurrent(w, r)
	if !ok {
		return
	}
	mode, err := renderer.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		s.handleError(w, entities.NewInputError("mode", err), http.StatusBadRequest)
		return
	}
	s.renderPresentation(w, r, &presentation, mode)
}

func (s *Server) renderPresentation(w http.ResponseWriter, r *http.Request, presentation *entities.Presentation, mode renderer.Mode) {
	theme, known := entities.LookupTheme(presentation.Theme)
	if !known && s.themes != nil {
		if active, err := s.themes.Active(r.Context()); err == nil {
			theme = active
		}
	}

	html, err := renderer.RenderDeck(presentation, theme, mode)
	if err != nil {
		s.handleError(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(html); err != nil {
		s.logger.Error("Failed to write preview response: %v", err)
	}
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result, err := s.presentations.Save(r.Context(), id)
	if err != nil {
		s.handleError(w, err, statusFor(err))
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	count, err := s.presentations.Sync(r.Context())
	if err != nil {
		s.handleError(w, err, statusFor(err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"synced": count})
}

func (s *Server) handleGetCurrent(w http.ResponseWriter, r *http.Request) {
	current, ok := s.store.Current()
	if !ok {
		s.handleError(w, fmt.Errorf("current: %w", entities.ErrPresentationNotFound), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, current)
}

func (s *Server) handleSetCurrent(w http.ResponseWriter, r *http.Request) {
	var req CurrentRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	switch {
	case req.Presentation != nil:
		detached := req.Presentation.Clone()
		if detached.ID == "" {
			detached.ID = s.store.NewID()
		}
		s.store.Dispatch(services.SetCurrentPresentation{Presentation: &detached})
	case req.ID != "":
		stored, ok := s.store.Presentation(req.ID)
		if !ok {
			s.handleError(w, fmt.Errorf("%s: %w", req.ID, entities.ErrPresentationNotFound), http.StatusNotFound)
			return
		}
		s.store.Dispatch(services.SetCurrentPresentation{Presentation: &stored})
	default:
		s.store.Dispatch(services.SetCurrentPresentation{})
		w.WriteHeader(http.StatusNoContent)
		return
	}

	current, _ := s.store.Current()
	s.writeJSON(w, http.StatusOK, current)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	presentation, err := s.presentations.GenerateFromPrompt(r.Context(), req.Prompt, req.Model)
	if err != nil && req.Fallback && !entities.IsInputError(err) {
		s.logger.Warn("Generation failed, building fallback deck: %v", err)
		presentation, err = s.presentations.CreateFallback(r.Context(), req.Prompt)
		w.Header().Set(headerFallback, "true")
	}
	if err != nil {
		s.handleError(w, err, statusFor(err))
		return
	}
	s.writeJSON(w, http.StatusCreated, presentation)
}

// handleDocument turns an uploaded document into a presentation. With
// ?outline=true only the outline is returned.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.handleError(w, entities.NewInputError("file", fmt.Errorf("multipart field \"file\" is required: %w", err)), http.StatusBadRequest)
		return
	}
	defer file.Close()

	doc, err := s.presentations.ImportDocument(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		s.handleError(w, err, statusFor(err))
		return
	}

	if r.URL.Query().Get("outline") == "true" {
		outline, err := s.presentations.GenerateOutline(r.Context(), *doc)
		if err != nil {
			s.handleError(w, err, statusFor(err))
			return
		}
		s.writeJSON(w, http.StatusOK, outline)
		return
	}

	presentation, err := s.presentations.GenerateFromDocument(r.Context(), *doc)
	if err != nil {
		s.handleError(w, err, statusFor(err))
		return
	}
	s.writeJSON(w, http.StatusCreated, presentation)
}

func (s *Server) handleGetThemePreference(w http.ResponseWriter, r *http.Request) {
	if s.themes == nil {
		s.writeJSON(w, http.StatusOK, ThemePreference{Theme: entities.DefaultThemeID})
		return
	}
	id, err := s.themes.Load(r.Context())
	if err != nil {
		s.handleError(w, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, ThemePreference{Theme: id})
}

func (s *Server) handleSetThemePreference(w http.ResponseWriter, r *http.Request) {
	if s.themes == nil {
		s.handleError(w, errors.New("preferences are not configured"), http.StatusServiceUnavailable)
		return
	}
	var req ThemePreference
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := s.themes.Save(r.Context(), req.Theme); err != nil {
		s.handleError(w, err, statusFor(err))
		return
	}
	s.writeJSON(w, http.StatusOK, ThemePreference{Theme: strings.TrimSpace(req.Theme)})
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	if s.themes == nil {
		s.writeJSON(w, http.StatusOK, entities.BuiltinThemes())
		return
	}
	s.writeJSON(w, http.StatusOK, s.themes.ListThemes(r.Context()))
}

func (s *Server) handleCreateTheme(w http.ResponseWriter, r *http.Request) {
	if s.themes == nil {
		s.handleError(w, errors.New("themes are not configured"), http.StatusServiceUnavailable)
		return
	}
	var req entities.Theme
	if !s.decodeJSON(w, r, &req) {
		return
	}
	theme, err := s.themes.CreateTheme(r.Context(), req)
	if err != nil {
		s.handleError(w, err, statusFor(err))
		return
	}
	s.writeJSON(w, http.StatusCreated, theme)
}

// lookup resolves the {id} route variable to a stored presentation
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (entities.Presentation, bool) {
	id := mux.Vars(r)["id"]
	presentation, ok := s.store.Presentation(id)
	if !ok {
		s.handleError(w, fmt.Errorf("%s: %w", id, entities.ErrPresentationNotFound), http.StatusNotFound)
	}
	return presentation, ok
}

// lookupOrCurrent also accepts the detached current presentation
func (s *Server) lookupOrCurrent(w http.ResponseWriter, r *http.Request) (entities.Presentation, bool) {
	id := mux.Vars(r)["id"]
	if presentation, ok := s.store.Presentation(id); ok {
		return presentation, true
	}
	if current, ok := s.store.Current(); ok && current.ID == id {
		return current, true
	}
	s.handleError(w, fmt.Errorf("%s: %w", id, entities.ErrPresentationNotFound), http.StatusNotFound)
	return entities.Presentation{}, false
}

// statusFor maps domain and adapter errors to HTTP status codes
func statusFor(err error) int {
	var exportErr *export.ExportError
	var gatewayErr *gateway.GatewayError

	switch {
	case entities.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrPresentationNotFound), errors.Is(err, entities.ErrSlideNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrAllSlidesFailed):
		return http.StatusUnprocessableEntity
	case errors.As(err, &exportErr) && exportErr.Type == export.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.As(err, &gatewayErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleError handles error responses with sanitized messages
func (s *Server) handleError(w http.ResponseWriter, err error, status int) {
	// Sanitize error message to prevent information disclosure
	var message string
	switch status {
	case http.StatusBadRequest:
		message = "Invalid request"
		var inputErr *entities.InputError
		var exportErr *export.ExportError
		if errors.As(err, &inputErr) {
			message = inputErr.Error()
		} else if errors.As(err, &exportErr) {
			message = exportErr.Error()
		}
	case http.StatusNotFound:
		message = "Resource not found"
	case http.StatusMethodNotAllowed:
		message = "Method not allowed"
	case http.StatusUnprocessableEntity:
		message = "No slide could be rendered"
	case http.StatusTooManyRequests:
		message = "Too many requests"
	case http.StatusBadGateway:
		message = "Generation backend unavailable"
	case http.StatusServiceUnavailable:
		message = "Service unavailable"
	case http.StatusInternalServerError:
		message = "Internal server error"
	default:
		message = "An error occurred"
	}

	// Log the actual error for debugging (server-side only)
	s.logger.Error("HTTP error (status %d): %v", status, err)

	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Time:    time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		s.logger.Error("Failed to encode error response: %v", encodeErr)
	}
}

// decodeJSON reads a JSON body into dst and reports failures to the client
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		s.handleError(w, entities.NewInputError("body", fmt.Errorf("malformed JSON: %w", err)), http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response: %v", err)
	}
}

// writeFile sends data as a download
func (s *Server) writeFile(w http.ResponseWriter, name, mimeType string, data []byte) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("Failed to write file response: %v", err)
	}
}
