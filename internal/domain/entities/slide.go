package entities

import (
	"image/color"
	"strconv"
	"strings"
)

// Default slide colors applied when a slide does not carry its own.
const (
	DefaultBackgroundColor = "#ffffff"
	DefaultTextColor       = "#1f2937"
)

// Layout is the visual arrangement of a slide's title, body and visual.
type Layout string

const (
	LayoutCenter    Layout = "center"
	LayoutLeft      Layout = "left"
	LayoutRight     Layout = "right"
	LayoutTwoColumn Layout = "two-column"
	LayoutSplit     Layout = "split"
	LayoutFullImage Layout = "full-image"
	LayoutFullText  Layout = "full-text"
	LayoutCentered  Layout = "centered"
	LayoutStatsGrid Layout = "stats-grid"
)

// DefaultSlideLayout is used for empty or unrecognised layouts.
const DefaultSlideLayout = LayoutLeft

var knownLayouts = map[Layout]bool{
	LayoutCenter:    true,
	LayoutLeft:      true,
	LayoutRight:     true,
	LayoutTwoColumn: true,
	LayoutSplit:     true,
	LayoutFullImage: true,
	LayoutFullText:  true,
	LayoutCentered:  true,
	LayoutStatsGrid: true,
}

// Normalize returns the layout itself when known, otherwise the default layout.
func (l Layout) Normalize() Layout {
	if knownLayouts[l] {
		return l
	}
	return DefaultSlideLayout
}

// HasVisualColumn reports whether the layout reserves a column for an image or chart.
func (l Layout) HasVisualColumn() bool {
	switch l.Normalize() {
	case LayoutLeft, LayoutRight, LayoutSplit, LayoutTwoColumn:
		return true
	}
	return false
}

// TextAlign is the horizontal alignment of slide text.
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// Normalize returns the alignment itself when known, otherwise left.
func (a TextAlign) Normalize() TextAlign {
	switch a {
	case AlignCenter, AlignRight:
		return a
	}
	return AlignLeft
}

// SlideType is an informational hint about what a slide holds.
type SlideType string

const (
	SlideTypeTitle   SlideType = "title"
	SlideTypeContent SlideType = "content"
	SlideTypeImage   SlideType = "image"
	SlideTypeChart   SlideType = "chart"
	SlideTypeQuote   SlideType = "quote"
)

// Slide is one page of a presentation.
type Slide struct {
	// ID is assigned at creation and never reused within a presentation
	ID string `json:"id" yaml:"id,omitempty"`

	Title string `json:"title" yaml:"title"`

	// Content holds one paragraph or bullet per line
	Content string `json:"content" yaml:"content"`

	Layout          Layout    `json:"layout,omitempty" yaml:"layout,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	TextColor       string    `json:"textColor,omitempty" yaml:"textColor,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	ChartURL        string    `json:"chartUrl,omitempty" yaml:"chartUrl,omitempty"`
	TextAlign       TextAlign `json:"textAlign,omitempty" yaml:"textAlign,omitempty"`
	Type            SlideType `json:"type,omitempty" yaml:"type,omitempty"`
}

// WithDefaults returns a copy of the slide with empty styling fields filled in.
func (s Slide) WithDefaults() Slide {
	if s.BackgroundColor == "" {
		s.BackgroundColor = DefaultBackgroundColor
	}
	if s.TextColor == "" {
		s.TextColor = DefaultTextColor
	}
	s.Layout = s.Layout.Normalize()
	s.TextAlign = s.TextAlign.Normalize()
	if s.Type == "" {
		s.Type = SlideTypeContent
	}
	return s
}

// Lines splits the content into non-blank lines.
func (s Slide) Lines() []string {
	var lines []string
	for _, line := range strings.Split(s.Content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// HasImage reports whether the slide carries a real image. Placeholder URLs
// emitted by the generation backend do not count.
func (s Slide) HasImage() bool {
	return s.ImageURL != "" && !strings.Contains(strings.ToLower(s.ImageURL), "placeholder")
}

// Visual returns the URL occupying the slide's visual slot. A chart wins
// over an image when both are present.
func (s Slide) Visual() string {
	if s.ChartURL != "" {
		return s.ChartURL
	}
	if s.HasImage() {
		return s.ImageURL
	}
	return ""
}

// DisplayTitle returns the title or a positional fallback.
func (s Slide) DisplayTitle(index int) string {
	if strings.TrimSpace(s.Title) != "" {
		return s.Title
	}
	return "Slide " + strconv.Itoa(index+1)
}

// ParseHexColor parses #rgb or #rrggbb (the # is optional). Invalid input
// yields fallback.
func ParseHexColor(hex string, fallback color.RGBA) color.RGBA {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// HexToARGB converts a hex color into the AARRGGBB form used by office documents.
func HexToARGB(hex string, fallback string) string {
	c := ParseHexColor(hex, ParseHexColor(fallback, color.RGBA{A: 0xff}))
	return strings.ToUpper("FF" + twoHex(c.R) + twoHex(c.G) + twoHex(c.B))
}

func twoHex(v uint8) string {
	s := strconv.FormatUint(uint64(v), 16)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
