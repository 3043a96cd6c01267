package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	ppt "github.com/VantageDataChat/GoPPT"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

const pptxMimeType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// Slide geometry in EMU for a 16:9 deck.
const (
	emuPerInch = 914400

	pptxSlideWidth  = int64(10.0 * emuPerInch)
	pptxSlideHeight = int64(5.625 * emuPerInch)
	pptxMarginX     = int64(0.6 * emuPerInch)
	pptxMarginY     = int64(0.5 * emuPerInch)
	pptxColumnGap   = int64(0.4 * emuPerInch)
	pptxTitleHeight = int64(1.0 * emuPerInch)

	pptxFontTitle = 32
	pptxFontBody  = 18
)

// box is a shape position in EMU.
type box struct {
	X, Y, W, H int64
}

// exportPPTX builds native slides: text stays editable and visuals are
// embedded as pictures. A visual that cannot be loaded is left out of its
// slide; the slide itself is always emitted.
func (p *Pipeline) exportPPTX(ctx context.Context, presentation *entities.Presentation, theme entities.Theme, logger *slog.Logger) (*ExportResult, error) {
	deck := ppt.New()
	deck.GetDocumentProperties().Title = presentation.DisplayTitle()
	deck.GetDocumentProperties().Creator = "slidecraft"

	for i, slide := range presentation.Slides {
		if err := ctx.Err(); err != nil {
			return nil, categorizeError(err)
		}

		target := deck.GetActiveSlide()
		if i > 0 {
			target = deck.CreateSlide()
		}
		p.buildPPTXSlide(ctx, target, slide, i, theme, logger)
	}

	w, err := ppt.NewWriter(deck, ppt.WriterPowerPoint2007)
	if err != nil {
		return nil, &ExportError{Type: ErrorTypeAssembly, Message: "creating PPTX writer failed", Code: "PPTX_WRITER", Cause: err}
	}
	writer, ok := w.(*ppt.PPTXWriter)
	if !ok {
		return nil, &ExportError{Type: ErrorTypeAssembly, Message: "unexpected PPTX writer type", Code: "PPTX_WRITER"}
	}

	var buf bytes.Buffer
	if err := writer.WriteTo(&buf); err != nil {
		return nil, &ExportError{Type: ErrorTypeAssembly, Message: "writing PPTX failed", Code: "PPTX_WRITE", Cause: err}
	}

	files, err := p.commit(ctx, []ports.Artifact{{
		Name:     sanitizeFilename(presentation.DisplayTitle()) + ".pptx",
		MimeType: pptxMimeType,
		Data:     buf.Bytes(),
	}}, false)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Format:   FormatPowerPoint,
		Files:    files,
		Exported: len(presentation.Slides),
	}, nil
}

func (p *Pipeline) buildPPTXSlide(ctx context.Context, target *ppt.Slide, slide entities.Slide, index int, theme entities.Theme, logger *slog.Logger) {
	bgHex := slide.BackgroundColor
	if bgHex == "" {
		bgHex = theme.BackgroundColor
	}
	fgHex := slide.TextColor
	if fgHex == "" {
		fgHex = theme.TextColor
	}
	fg := ppt.NewColor(entities.HexToARGB(fgHex, entities.DefaultTextColor))

	// GoPPT has no slide background property; a full-bleed filled shape
	// drawn first serves as one.
	background := target.CreateRichTextShape()
	background.SetOffsetX(0).SetOffsetY(0)
	background.SetWidth(pptxSlideWidth).SetHeight(pptxSlideHeight)
	background.SetFill(ppt.NewFill().SetSolid(ppt.NewColor(entities.HexToARGB(bgHex, entities.DefaultBackgroundColor))))

	layout := slide.Layout.Normalize()
	content := box{X: pptxMarginX, Y: pptxMarginY, W: pptxSlideWidth - 2*pptxMarginX, H: pptxSlideHeight - 2*pptxMarginY}
	text, visual := pptxColumns(layout, content)

	if url := slide.Visual(); url != "" && layout != entities.LayoutFullText {
		area := visual
		switch {
		case layout == entities.LayoutFullImage:
			area = box{W: pptxSlideWidth, H: pptxSlideHeight}
		case area.W == 0:
			area = box{X: text.X, Y: text.Y + text.H/2, W: text.W, H: text.H / 2}
			text.H /= 2
		}
		if err := p.embedVisual(ctx, target, url, area); err != nil {
			logger.Warn("slide visual unavailable, omitting from PPTX",
				slog.Int("slide", index+1),
				slog.String("error", err.Error()))
		}
	}

	align := slide.TextAlign.Normalize()
	if slide.TextAlign == "" && isCentered(layout) {
		align = entities.AlignCenter
	}

	if title := strings.TrimSpace(stripMarkup(slide.Title)); title != "" {
		shape := target.CreateRichTextShape()
		shape.SetOffsetX(text.X).SetOffsetY(text.Y)
		shape.SetWidth(text.W).SetHeight(pptxTitleHeight)
		shape.CreateTextRun(title).GetFont().SetSize(pptxFontTitle).SetBold(true).SetColor(fg)
		alignParagraph(shape.GetActiveParagraph(), align)
	}

	lines := plainLines(slide.Content)
	if len(lines) == 0 {
		return
	}
	body := target.CreateRichTextShape()
	body.SetOffsetX(text.X).SetOffsetY(text.Y + pptxTitleHeight)
	body.SetWidth(text.W).SetHeight(text.H - pptxTitleHeight)
	for i, line := range lines {
		if i > 0 {
			body.CreateParagraph()
		}
		body.CreateTextRun(line).GetFont().SetSize(pptxFontBody).SetColor(fg)
		alignParagraph(body.GetActiveParagraph(), align)
	}
}

// embedVisual places the image inside area, keeping its aspect ratio.
func (p *Pipeline) embedVisual(ctx context.Context, target *ppt.Slide, url string, area box) error {
	var data []byte
	var mimeType string
	var err error
	switch {
	case p.fetcher != nil:
		data, mimeType, err = p.fetcher.Fetch(ctx, url)
	case strings.HasPrefix(url, "data:"):
		data, mimeType, err = decodeDataURI(url)
	default:
		return fmt.Errorf("no image fetcher for %s", url)
	}
	if err != nil {
		return err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("image has no pixels")
	}

	w, h := area.W, area.W*int64(cfg.Height)/int64(cfg.Width)
	if h > area.H {
		w, h = area.H*int64(cfg.Width)/int64(cfg.Height), area.H
	}

	shape := target.CreateDrawingShape()
	shape.SetImageData(data, mimeType)
	shape.SetOffsetX(area.X + (area.W-w)/2).SetOffsetY(area.Y + (area.H-h)/2)
	shape.SetWidth(w).SetHeight(h)
	return nil
}

func pptxColumns(layout entities.Layout, content box) (text, visual box) {
	if !layout.HasVisualColumn() {
		return content, box{}
	}
	half := (content.W - pptxColumnGap) / 2
	left := box{X: content.X, Y: content.Y, W: half, H: content.H}
	right := box{X: content.X + half + pptxColumnGap, Y: content.Y, W: half, H: content.H}

	switch layout {
	case entities.LayoutRight, entities.LayoutSplit:
		return right, left
	default:
		return left, right
	}
}

func alignParagraph(p *ppt.Paragraph, align entities.TextAlign) {
	switch align {
	case entities.AlignCenter:
		p.SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalCenter))
	case entities.AlignRight:
		p.SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalRight))
	}
}
