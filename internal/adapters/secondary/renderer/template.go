package renderer

import (
	"sync"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

const (
	slideWidth  = ports.SlideWidth
	slideHeight = ports.SlideHeight
)

var (
	defaultOnce     sync.Once
	defaultRenderer *SlideRenderer
	defaultErr      error
)

func shared() (*SlideRenderer, error) {
	defaultOnce.Do(func() {
		defaultRenderer, defaultErr = NewSlideRenderer()
	})
	return defaultRenderer, defaultErr
}

// RenderSlide renders one slide with the shared renderer.
func RenderSlide(slide entities.Slide, index int, theme entities.Theme, mode Mode) ([]byte, error) {
	r, err := shared()
	if err != nil {
		return nil, err
	}
	return r.RenderSlide(slide, index, theme, mode)
}

// RenderDeck renders a whole presentation with the shared renderer.
func RenderDeck(p *entities.Presentation, theme entities.Theme, mode Mode) ([]byte, error) {
	r, err := shared()
	if err != nil {
		return nil, err
	}
	return r.RenderDeck(p, theme, mode)
}

const slideTemplate = `<section class="{{.Classes}}" id="slide-{{.Index}}" data-index="{{.Index}}"{{if .ID}} data-slide-id="{{.ID}}"{{end}} style="{{.Style}}">
{{- if and .Visual .FullImage}}
  <img class="slide-visual slide-visual-full" src="{{.Visual}}" alt="">
{{- end}}
  <div class="slide-text">
    {{- if .Title}}
    <h1 class="slide-title"{{if .Editable}} data-field="title"{{end}}>{{.Title}}</h1>
    {{- end}}
    <div class="slide-body"{{if .Editable}} data-field="content"{{end}}>{{.Body}}</div>
  </div>
{{- if and .Visual (not .FullImage)}}
  <div class="slide-visual"><img src="{{.Visual}}" alt=""></div>
{{- end}}
{{- if .Total}}
  <div class="slide-number">{{.Number}} / {{.Total}}</div>
{{- end}}
</section>`

const deckTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  html, body { margin: 0; padding: 0; background: #0b0b0b; }
  .deck { display: flex; flex-direction: column; gap: 40px; align-items: center; padding: 40px 0; }
  .slide {
    position: relative; box-sizing: border-box; overflow: hidden;
    width: {{.Width}}px; height: {{.Height}}px; padding: 96px 120px;
    display: flex; gap: 80px; align-items: center;
    font-family: {{.FontFamily}};
  }
  .slide-title { font-size: 84px; line-height: 1.1; margin: 0 0 48px; }
  .slide-body { font-size: 40px; line-height: 1.5; }
  .slide-body ul { padding-left: 1.2em; margin: 0; }
  .slide-body li::marker { color: {{.Accent}}; }
  .slide-text { flex: 1; position: relative; z-index: 1; }
  .slide-visual { flex: 1; display: flex; align-items: center; justify-content: center; height: 100%; }
  .slide-visual img { max-width: 100%; max-height: 100%; object-fit: contain; border-radius: 16px; }
  .slide-visual-full { position: absolute; inset: 0; width: 100%; height: 100%; object-fit: cover; opacity: 0.35; }
  .slide-number { position: absolute; right: 48px; bottom: 32px; font-size: 24px; opacity: 0.6; }
  .layout-left { flex-direction: row; }
  .layout-right, .layout-split { flex-direction: row-reverse; }
  .layout-center, .layout-centered, .layout-stats-grid { flex-direction: column; justify-content: center; text-align: center; }
  .layout-full-text .slide-text { max-width: 1600px; }
  .align-left .slide-text { text-align: left; }
  .align-center .slide-text { text-align: center; }
  .align-right .slide-text { text-align: right; }
  .mode-edit [data-field] { outline: 2px dashed transparent; }
  .mode-edit [data-field]:hover { outline-color: {{.Accent}}; }
</style>
</head>
<body>
<main class="deck" data-theme="{{.ThemeID}}" data-mode="{{.Mode}}">
{{range .Slides}}{{template "slide" .}}
{{end}}</main>
</body>
</html>`
