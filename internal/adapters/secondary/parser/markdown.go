package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
)

// directivePattern matches per-slide settings such as <!-- layout: split -->.
var directivePattern = regexp.MustCompile(`^<!--\s*([a-zA-Z-]+)\s*:\s*(.*?)\s*-->$`)

// MarkdownDeck reads decks written as markdown. Optional YAML front matter
// carries the deck fields, "---" lines separate slides, the first heading
// of a slide is its title and a standalone image is its visual.
type MarkdownDeck struct {
	md goldmark.Markdown
}

// NewMarkdownDeck creates a markdown deck reader
func NewMarkdownDeck() *MarkdownDeck {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
	)
	return &MarkdownDeck{md: md}
}

type frontMatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Theme       string `yaml:"theme"`
}

// Parse converts markdown source into presentation data.
func (d *MarkdownDeck) Parse(content []byte) (entities.PresentationData, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	meta, body, err := extractFrontMatter(content)
	if err != nil {
		return entities.PresentationData{}, err
	}

	data := entities.PresentationData{
		Title:       meta.Title,
		Description: meta.Description,
		Theme:       meta.Theme,
	}
	for _, source := range splitSlides(body) {
		data.Slides = append(data.Slides, d.parseSlide(source))
	}
	return data, nil
}

type span struct{ start, stop int }

func (d *MarkdownDeck) parseSlide(source []byte) entities.Slide {
	var slide entities.Slide
	var skip []span

	doc := d.md.Parser().Parse(text.NewReader(source))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if slide.Title != "" {
				continue
			}
			slide.Title = strings.TrimSpace(string(segmentsText(node.Lines(), source)))
			skip = append(skip, blockSpan(node.Lines()))
		case *ast.Paragraph:
			img, ok := node.FirstChild().(*ast.Image)
			if !ok || node.FirstChild() != node.LastChild() || slide.ImageURL != "" {
				continue
			}
			slide.ImageURL = string(img.Destination)
			skip = append(skip, blockSpan(node.Lines()))
		}
	}

	var lines []string
	offset := 0
	afterHeading := false
	for _, line := range strings.Split(string(source), "\n") {
		start, stop := offset, offset+len(line)
		offset = stop + 1

		if overlaps(skip, start, stop) {
			afterHeading = slide.Title != ""
			continue
		}
		trimmed := strings.TrimSpace(line)
		if afterHeading && trimmed != "" && strings.Trim(trimmed, "=-") == "" {
			// setext underline
			afterHeading = false
			continue
		}
		afterHeading = false

		if m := directivePattern.FindStringSubmatch(trimmed); m != nil {
			applyDirective(&slide, strings.ToLower(m[1]), m[2])
			continue
		}
		lines = append(lines, line)
	}

	slide.Content = strings.TrimSpace(strings.Join(lines, "\n"))
	if slide.ImageURL != "" && slide.Type == "" {
		slide.Type = entities.SlideTypeImage
	}
	return slide
}

func applyDirective(slide *entities.Slide, key, value string) {
	switch key {
	case "layout":
		slide.Layout = entities.Layout(value)
	case "background":
		slide.BackgroundColor = value
	case "color":
		slide.TextColor = value
	case "align":
		slide.TextAlign = entities.TextAlign(value)
	case "type":
		slide.Type = entities.SlideType(value)
	case "chart":
		slide.ChartURL = value
	}
}

func segmentsText(lines *text.Segments, source []byte) []byte {
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.Bytes()
}

func blockSpan(lines *text.Segments) span {
	if lines.Len() == 0 {
		return span{-1, -1}
	}
	return span{start: lines.At(0).Start, stop: lines.At(lines.Len() - 1).Stop}
}

func overlaps(spans []span, start, stop int) bool {
	for _, s := range spans {
		if s.start < 0 {
			continue
		}
		if s.start <= stop && start < s.stop {
			return true
		}
	}
	return false
}

// extractFrontMatter splits a leading YAML block delimited by "---" lines
// from the body.
func extractFrontMatter(content []byte) (frontMatter, []byte, error) {
	var meta frontMatter
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return meta, content, nil
	}

	lines := bytes.Split(content, []byte("\n"))
	end := -1
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			end = i
			break
		}
	}
	if end == -1 {
		return meta, content, nil
	}

	if err := yaml.Unmarshal(bytes.Join(lines[1:end], []byte("\n")), &meta); err != nil {
		return meta, nil, fmt.Errorf("parsing front matter: %w", err)
	}
	return meta, bytes.Join(lines[end+1:], []byte("\n")), nil
}

// splitSlides splits the body on "---" separator lines, dropping empty slides.
func splitSlides(content []byte) [][]byte {
	var slides [][]byte
	var current []string

	flush := func() {
		if s := strings.TrimSpace(strings.Join(current, "\n")); s != "" {
			slides = append(slides, []byte(s))
		}
		current = current[:0]
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == "---" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return slides
}
