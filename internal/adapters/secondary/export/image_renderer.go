package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	"image/png"
	"log/slog"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	_ "golang.org/x/image/webp" // decoder registration

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// Reference sizes at 1x, in pixels of the 1920x1080 slide.
const (
	rasterPaddingX   = 120.0
	rasterPaddingY   = 96.0
	rasterColumnGap  = 80.0
	rasterTitleSize  = 72.0
	rasterBodySize   = 36.0
	rasterLineHeight = 1.45
)

var (
	fontsOnce   sync.Once
	regularFont *truetype.Font
	boldFont    *truetype.Font
	fontLoadErr error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regularFont, fontLoadErr = truetype.Parse(goregular.TTF); fontLoadErr != nil {
			return
		}
		boldFont, fontLoadErr = truetype.Parse(gobold.TTF)
	})
	if fontLoadErr != nil {
		return fmt.Errorf("parsing embedded font: %w", fontLoadErr)
	}
	return nil
}

// RasterCapturer draws slides directly with a 2D canvas. It needs no
// browser and is the default capturer.
type RasterCapturer struct {
	fetcher ports.ImageFetcher
	logger  *slog.Logger
}

// NewRasterCapturer creates a raster capturer. fetcher may be nil, in which
// case only data: URI visuals are drawn.
func NewRasterCapturer(fetcher ports.ImageFetcher, logger *slog.Logger) *RasterCapturer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RasterCapturer{fetcher: fetcher, logger: logger}
}

// Name identifies the capturer in logs and metrics.
func (r *RasterCapturer) Name() string {
	return "raster"
}

// rect is a drawing area in canvas pixels.
type rect struct {
	X, Y, W, H float64
}

// Capture draws the requested slide and encodes it as PNG.
func (r *RasterCapturer) Capture(ctx context.Context, req ports.CaptureRequest) (*ports.Bitmap, error) {
	if req.Presentation == nil || req.Index < 0 || req.Index >= len(req.Presentation.Slides) {
		return nil, fmt.Errorf("slide %d out of range", req.Index)
	}
	if err := loadFonts(); err != nil {
		return nil, err
	}

	scale := req.Scale
	if scale <= 0 {
		scale = 1
	}
	width := int(float64(ports.SlideWidth) * scale)
	height := int(float64(ports.SlideHeight) * scale)

	slide := req.Slide()
	layout := slide.Layout.Normalize()
	bg, fg := slideColors(slide, req.Theme)

	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()

	content := rect{
		X: rasterPaddingX * scale,
		Y: rasterPaddingY * scale,
		W: float64(width) - 2*rasterPaddingX*scale,
		H: float64(height) - 2*rasterPaddingY*scale,
	}
	textArea, visualArea := splitArea(layout, content, rasterColumnGap*scale)

	var visual image.Image
	if url := slide.Visual(); url != "" && layout != entities.LayoutFullText {
		img, err := r.loadImage(ctx, url)
		if err != nil {
			r.logger.Warn("slide visual unavailable, drawing without it",
				slog.Int("slide", req.Index+1),
				slog.String("error", err.Error()))
		} else {
			visual = img
		}
	}

	if visual != nil {
		switch {
		case layout == entities.LayoutFullImage:
			drawCover(dc, visual, rect{W: float64(width), H: float64(height)})
			dc.SetColor(color.RGBA{R: bg.R, G: bg.G, B: bg.B, A: 0xa6})
			dc.DrawRectangle(0, 0, float64(width), float64(height))
			dc.Fill()
		case visualArea.W > 0:
			drawContain(dc, visual, visualArea)
		default:
			// Centered layouts put the visual under the text.
			lower := rect{X: textArea.X, Y: textArea.Y + textArea.H*0.55, W: textArea.W, H: textArea.H * 0.45}
			textArea.H *= 0.55
			drawContain(dc, visual, lower)
		}
	}

	align := slide.TextAlign.Normalize()
	if slide.TextAlign == "" && isCentered(layout) {
		align = entities.AlignCenter
	}
	if err := drawText(dc, slide, textArea, fg, align, scale, isCentered(layout)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return &ports.Bitmap{Width: width, Height: height, PNG: buf.Bytes()}, nil
}

func (r *RasterCapturer) loadImage(ctx context.Context, url string) (image.Image, error) {
	var data []byte
	var err error
	switch {
	case r.fetcher != nil:
		data, _, err = r.fetcher.Fetch(ctx, url)
	case strings.HasPrefix(url, "data:"):
		data, _, err = decodeDataURI(url)
	default:
		return nil, fmt.Errorf("no image fetcher for %s", url)
	}
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func isCentered(layout entities.Layout) bool {
	switch layout {
	case entities.LayoutCenter, entities.LayoutCentered, entities.LayoutStatsGrid:
		return true
	}
	return false
}

// splitArea divides the content box into text and visual columns.
func splitArea(layout entities.Layout, content rect, gap float64) (text, visual rect) {
	if !layout.HasVisualColumn() {
		return content, rect{}
	}
	half := (content.W - gap) / 2
	left := rect{X: content.X, Y: content.Y, W: half, H: content.H}
	right := rect{X: content.X + half + gap, Y: content.Y, W: half, H: content.H}

	switch layout {
	case entities.LayoutRight, entities.LayoutSplit:
		return right, left
	default:
		return left, right
	}
}

func slideColors(slide entities.Slide, theme entities.Theme) (color.RGBA, color.RGBA) {
	bgHex := slide.BackgroundColor
	if bgHex == "" {
		bgHex = theme.BackgroundColor
	}
	fgHex := slide.TextColor
	if fgHex == "" {
		fgHex = theme.TextColor
	}
	bg := entities.ParseHexColor(bgHex, entities.ParseHexColor(entities.DefaultBackgroundColor, color.RGBA{A: 0xff}))
	fg := entities.ParseHexColor(fgHex, entities.ParseHexColor(entities.DefaultTextColor, color.RGBA{A: 0xff}))
	return bg, fg
}

func newFace(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingFull})
}

// drawText lays out the title and body inside area. Lines that do not fit
// are dropped.
func drawText(dc *gg.Context, slide entities.Slide, area rect, fg color.RGBA, align entities.TextAlign, scale float64, vcenter bool) error {
	titleSize := rasterTitleSize * scale
	bodySize := rasterBodySize * scale

	titleFace := newFace(boldFont, titleSize)
	bodyFace := newFace(regularFont, bodySize)
	defer func() { _ = titleFace.Close(); _ = bodyFace.Close() }()

	dc.SetFontFace(titleFace)
	titleLines := wrapText(dc, strings.TrimSpace(stripMarkup(slide.Title)), area.W)

	dc.SetFontFace(bodyFace)
	var bodyLines []string
	for _, line := range plainLines(slide.Content) {
		bodyLines = append(bodyLines, wrapText(dc, line, area.W)...)
	}

	titleStep := titleSize * 1.2
	bodyStep := bodySize * rasterLineHeight
	total := float64(len(titleLines))*titleStep + float64(len(bodyLines))*bodyStep
	if len(titleLines) > 0 && len(bodyLines) > 0 {
		total += titleSize * 0.6
	}

	y := area.Y
	if vcenter || total < area.H {
		y = area.Y + (area.H-total)/2
		if y < area.Y {
			y = area.Y
		}
	}
	bottom := area.Y + area.H

	anchorX, ax := area.X, 0.0
	switch align {
	case entities.AlignCenter:
		anchorX, ax = area.X+area.W/2, 0.5
	case entities.AlignRight:
		anchorX, ax = area.X+area.W, 1
	}

	dc.SetColor(fg)
	dc.SetFontFace(titleFace)
	for _, line := range titleLines {
		if y+titleStep > bottom {
			return nil
		}
		dc.DrawStringAnchored(line, anchorX, y+titleSize, ax, 0)
		y += titleStep
	}
	if len(titleLines) > 0 {
		y += titleSize * 0.6
	}

	dc.SetFontFace(bodyFace)
	for _, line := range bodyLines {
		if y+bodyStep > bottom {
			break
		}
		dc.DrawStringAnchored(line, anchorX, y+bodySize, ax, 0)
		y += bodyStep
	}
	return nil
}

// wrapText wraps text to fit within the specified width
func wrapText(dc *gg.Context, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var current strings.Builder
	for _, word := range words {
		candidate := word
		if current.Len() > 0 {
			candidate = current.String() + " " + word
		}
		if w, _ := dc.MeasureString(candidate); w > maxWidth && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			continue
		}
		current.Reset()
		current.WriteString(candidate)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// drawContain scales img to fit inside area, centred.
func drawContain(dc *gg.Context, img image.Image, area rect) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || area.W <= 0 || area.H <= 0 {
		return
	}
	s := min(area.W/float64(b.Dx()), area.H/float64(b.Dy()))
	w, h := int(float64(b.Dx())*s), int(float64(b.Dy())*s)
	if w == 0 || h == 0 {
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, xdraw.Over, nil)
	dc.DrawImage(scaled, int(area.X+(area.W-float64(w))/2), int(area.Y+(area.H-float64(h))/2))
}

// drawCover scales img to cover area, cropping the overflow.
func drawCover(dc *gg.Context, img image.Image, area rect) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	s := max(area.W/float64(b.Dx()), area.H/float64(b.Dy()))
	w, h := int(float64(b.Dx())*s), int(float64(b.Dy())*s)

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, b, xdraw.Src, nil)
	dc.DrawImage(scaled, int(area.X)-(w-int(area.W))/2, int(area.Y)-(h-int(area.H))/2)
}

var _ ports.SlideCapturer = (*RasterCapturer)(nil)
