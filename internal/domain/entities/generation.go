package entities

import (
	"path/filepath"
	"strings"
)

// GenerateRequest asks the backend for a complete deck.
type GenerateRequest struct {
	Prompt             string `json:"prompt"`
	Model              string `json:"model,omitempty"`
	Theme              string `json:"theme,omitempty"`
	IncludeInteractive bool   `json:"include_interactive"`
}

// GeneratedDeck is the backend's answer to a generation request.
type GeneratedDeck struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Theme       string  `json:"theme,omitempty"`
	Slides      []Slide `json:"slides"`
}

// Data converts the generated deck into presentation creation data.
func (d GeneratedDeck) Data() PresentationData {
	return PresentationData{
		Title:       d.Title,
		Description: d.Description,
		Theme:       d.Theme,
		Slides:      d.Slides,
	}
}

// Model is one entry of the backend's model catalogue.
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ContextLength int    `json:"context_length,omitempty"`
}

// ModelCatalog lists the models the backend can generate with.
type ModelCatalog struct {
	Models       []Model `json:"models"`
	DefaultModel string  `json:"default_model"`
}

// DocumentSection is one heading-delimited part of an ingested document.
type DocumentSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DocumentContent is the structured view of an ingested document.
type DocumentContent struct {
	RawContent string            `json:"raw_content,omitempty"`
	Sections   []DocumentSection `json:"sections,omitempty"`
	Summary    string            `json:"summary,omitempty"`
	KeyTopics  []string          `json:"key_topics,omitempty"`
}

// Document is what the backend returns after ingesting a file, URL or text.
type Document struct {
	Filename  string          `json:"filename"`
	Content   DocumentContent `json:"content"`
	WordCount int             `json:"word_count"`
	CharCount int             `json:"char_count"`
}

// Text returns the best plain text representation of the document.
func (d Document) Text() string {
	if d.Content.RawContent != "" {
		return d.Content.RawContent
	}
	var b strings.Builder
	for _, s := range d.Content.Sections {
		b.WriteString(s.Title)
		b.WriteString("\n")
		b.WriteString(s.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// OutlineItem is one planned slide in the two-phase document flow.
type OutlineItem struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SummarizeRequest asks the backend to turn a document into slides.
// With OutlineOnly set the backend returns titles and short content only.
type SummarizeRequest struct {
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	OutlineOnly bool   `json:"outline_only"`
}

// SummaryResult is the backend's answer to a summarize request.
type SummaryResult struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Theme       string        `json:"theme,omitempty"`
	Outline     []OutlineItem `json:"outline,omitempty"`
	Slides      []Slide       `json:"slides,omitempty"`
}

// SaveResult acknowledges a saved snapshot.
type SaveResult struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}

// TextOperation names an AI rewrite applied to slide text.
type TextOperation string

const (
	TextOpEnhance    TextOperation = "enhance"
	TextOpRewrite    TextOperation = "rewrite"
	TextOpExpand     TextOperation = "expand"
	TextOpSummarize  TextOperation = "summarize"
	TextOpChangeTone TextOperation = "change-tone"
)

// Valid reports whether op is a supported text operation.
func (op TextOperation) Valid() bool {
	switch op {
	case TextOpEnhance, TextOpRewrite, TextOpExpand, TextOpSummarize, TextOpChangeTone:
		return true
	}
	return false
}

// SupportedDocumentExtensions are the upload formats the backend accepts.
var SupportedDocumentExtensions = []string{".pdf", ".pptx", ".ppt", ".txt", ".docx"}

// ValidatePrompt rejects blank prompts.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return NewInputError("prompt", ErrEmptyPrompt)
	}
	return nil
}

// ValidateDocument checks an upload before it leaves the process.
func ValidateDocument(filename string, size, limit int64) error {
	if filename == "" || size <= 0 {
		return NewInputError("file", ErrNoFile)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	supported := false
	for _, allowed := range SupportedDocumentExtensions {
		if ext == allowed {
			supported = true
			break
		}
	}
	if !supported {
		return NewInputError("file", ErrUnsupportedFile)
	}

	if limit > 0 && size > limit {
		return NewInputError("file", ErrFileTooLarge)
	}
	return nil
}
