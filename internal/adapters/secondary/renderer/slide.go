package renderer

import (
	"bytes"
	"fmt"
	"html/template"
	"image/color"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

// Mode selects how a slide is presented.
type Mode string

const (
	ModeEdit      Mode = "edit"
	ModePresent   Mode = "present"
	ModeThumbnail Mode = "thumbnail"
)

// ParseMode validates a mode name. An empty name means present.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModePresent:
		return ModePresent, nil
	case ModeEdit, ModeThumbnail:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown render mode %q", s)
}

// SlideRenderer turns slides into HTML at the reference slide size.
type SlideRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	tmpl   *template.Template
}

// NewSlideRenderer creates a renderer with its templates parsed.
func NewSlideRenderer() (*SlideRenderer, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
	)

	tmpl, err := template.New("deck").Parse(deckTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing deck template: %w", err)
	}
	if _, err := tmpl.New("slide").Parse(slideTemplate); err != nil {
		return nil, fmt.Errorf("parsing slide template: %w", err)
	}

	return &SlideRenderer{
		md:     md,
		policy: bluemonday.UGCPolicy(),
		tmpl:   tmpl,
	}, nil
}

// slideView is the template data for one slide.
type slideView struct {
	Index     int
	ID        string
	Classes   string
	Style     template.CSS
	Title     string
	Body      template.HTML
	Visual    interface{}
	FullImage bool
	Editable  bool
	Number    int
	Total     int
}

// RenderSlide renders the slide at index as a <section> fragment.
func (r *SlideRenderer) RenderSlide(slide entities.Slide, index int, theme entities.Theme, mode Mode) ([]byte, error) {
	view, err := r.view(slide, index, 0, theme, mode)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "slide", view); err != nil {
		return nil, fmt.Errorf("executing slide template: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDeck renders every slide of p into a standalone HTML document.
func (r *SlideRenderer) RenderDeck(p *entities.Presentation, theme entities.Theme, mode Mode) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("presentation is required")
	}

	views := make([]slideView, 0, len(p.Slides))
	for i, s := range p.Slides {
		view, err := r.view(s, i, len(p.Slides), theme, mode)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	data := struct {
		Title      string
		Mode       Mode
		ThemeID    string
		FontFamily template.CSS
		Accent     template.CSS
		Width      int
		Height     int
		Slides     []slideView
	}{
		Title:      p.DisplayTitle(),
		Mode:       mode,
		ThemeID:    theme.ID,
		FontFamily: template.CSS(cssFontFamily(theme.FontFamily)),
		Accent:     template.CSS(cssColor(theme.AccentColor, "#3b82f6")),
		Width:      slideWidth,
		Height:     slideHeight,
		Slides:     views,
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "deck", data); err != nil {
		return nil, fmt.Errorf("executing deck template: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *SlideRenderer) view(slide entities.Slide, index, total int, theme entities.Theme, mode Mode) (slideView, error) {
	if mode == "" {
		mode = ModePresent
	}
	s := slide.WithDefaults()

	body, err := r.renderContent(slide.Content)
	if err != nil {
		return slideView{}, fmt.Errorf("rendering slide %d: %w", index, err)
	}

	bg := slide.BackgroundColor
	if bg == "" {
		bg = theme.BackgroundColor
	}
	fg := slide.TextColor
	if fg == "" {
		fg = theme.TextColor
	}

	title := slide.Title
	if mode == ModeEdit {
		title = slide.DisplayTitle(index)
	}

	view := slideView{
		Index:    index,
		ID:       slide.ID,
		Classes:  fmt.Sprintf("slide layout-%s align-%s mode-%s", s.Layout, s.TextAlign, mode),
		Style:    template.CSS("background-color:" + cssColor(bg, entities.DefaultBackgroundColor) + ";color:" + cssColor(fg, entities.DefaultTextColor)),
		Title:    title,
		Body:     body,
		Editable: mode == ModeEdit,
		Number:   index + 1,
		Total:    total,
	}

	if visual := s.Visual(); visual != "" && s.Layout != entities.LayoutFullText {
		view.Visual = visualURL(visual)
		view.FullImage = s.Layout == entities.LayoutFullImage
	}
	return view, nil
}

// renderContent converts markdown content into sanitised HTML.
func (r *SlideRenderer) renderContent(content string) (template.HTML, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(lineParagraphs(content)), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil // #nosec G203 - sanitised above
}

var (
	listItem = regexp.MustCompile(`^\s*(?:[-*+]|\d{1,9}[.)])\s`)
	fence    = regexp.MustCompile("^\\s{0,3}(?:```|~~~)")
)

// lineParagraphs separates plain text lines with blank lines so each line
// of slide content renders as its own paragraph. Lists, quotes, tables,
// indented continuations and fenced code keep their line structure.
func lineParagraphs(content string) string {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines)*2)
	inFence := false
	prev := ""

	for _, line := range lines {
		if fence.MatchString(line) {
			if !inFence && strings.TrimSpace(prev) != "" {
				out = append(out, "")
			}
			inFence = !inFence
			out = append(out, line)
			prev = line
			continue
		}
		if inFence || strings.TrimSpace(line) == "" || strings.TrimSpace(prev) == "" || keepsStructure(prev, line) {
			out = append(out, line)
			prev = line
			continue
		}
		out = append(out, "", line)
		prev = line
	}
	return strings.Join(out, "\n")
}

// keepsStructure reports whether line continues the block started by prev.
func keepsStructure(prev, line string) bool {
	trimmed := strings.TrimSpace(line)
	prevTrimmed := strings.TrimSpace(prev)
	switch {
	case strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t"):
		return true
	case listItem.MatchString(line) && (listItem.MatchString(prev) || strings.HasPrefix(prev, "  ")):
		return true
	case strings.HasPrefix(trimmed, ">") && strings.HasPrefix(prevTrimmed, ">"):
		return true
	case strings.HasPrefix(trimmed, "|") && strings.HasPrefix(prevTrimmed, "|"):
		return true
	}
	return false
}

// visualURL keeps data:image URIs intact; html/template would otherwise
// replace them with a placeholder.
func visualURL(u string) interface{} {
	if strings.HasPrefix(u, "data:image/") {
		return template.URL(u) // #nosec G203 - image data URI
	}
	return u
}

func cssColor(hex, fallback string) string {
	c := entities.ParseHexColor(hex, entities.ParseHexColor(fallback, color.RGBA{A: 0xff}))
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// cssFontFamily drops characters that could escape a font-family value.
func cssFontFamily(family string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ';', '{', '}', '<', '>', '(', ')', '\\', '"':
			return -1
		}
		return r
	}, family)
	if strings.TrimSpace(clean) == "" {
		return "Inter, sans-serif"
	}
	return clean
}
