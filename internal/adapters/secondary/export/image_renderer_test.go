package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
	"github.com/fredcamaral/slidecraft/internal/test/builders"
)

func captureRequest(slide entities.Slide) ports.CaptureRequest {
	deck := builders.NewPresentationBuilder().WithSlide(slide).Build()
	theme, _ := entities.LookupTheme(entities.DefaultThemeID)
	return ports.CaptureRequest{Presentation: deck, Index: 0, Theme: theme, Scale: 0.25}
}

func TestRasterCapturer_Capture(t *testing.T) {
	capturer := NewRasterCapturer(nil, nil)
	assert.Equal(t, "raster", capturer.Name())

	t.Run("draws at the requested scale", func(t *testing.T) {
		slide := builders.NewSlideBuilder().
			WithColors("#ff0000", "#ffffff").
			WithContent("- one\n- two").
			Build()

		bitmap, err := capturer.Capture(context.Background(), captureRequest(slide))
		require.NoError(t, err)
		assert.Equal(t, 480, bitmap.Width)
		assert.Equal(t, 270, bitmap.Height)

		img, err := png.Decode(bytes.NewReader(bitmap.PNG))
		require.NoError(t, err)
		assert.Equal(t, 480, img.Bounds().Dx())

		r, g, b, _ := img.At(1, 1).RGBA()
		assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b}, "corner shows the slide background")
	})

	t.Run("falls back to theme colors", func(t *testing.T) {
		slide := builders.NewSlideBuilder().WithContent("").WithTitle("").Build()
		req := captureRequest(slide)
		req.Theme, _ = entities.LookupTheme("classic-dark")

		bitmap, err := capturer.Capture(context.Background(), req)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(bitmap.PNG))
		require.NoError(t, err)

		r, g, b, _ := img.At(5, 5).RGBA()
		assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r, g, b})
	})

	t.Run("embeds a data uri visual", func(t *testing.T) {
		visual := "data:image/png;base64," + base64.StdEncoding.EncodeToString(tinyPNG(t, 8, 8, color.RGBA{B: 0xff, A: 0xff}))
		slide := builders.NewSlideBuilder().
			WithLayout(entities.LayoutFullImage).
			WithImage(visual).
			WithColors("#ffffff", "#000000").
			Build()

		bitmap, err := capturer.Capture(context.Background(), captureRequest(slide))
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(bitmap.PNG))
		require.NoError(t, err)

		_, _, b, _ := img.At(2, 2).RGBA()
		r, _, _, _ := img.At(2, 2).RGBA()
		assert.Greater(t, b, r, "the full-bleed image tints the background blue")
	})

	t.Run("unreachable visual is skipped", func(t *testing.T) {
		slide := builders.NewSlideBuilder().WithImage("https://example.invalid/pic.png").Build()

		bitmap, err := capturer.Capture(context.Background(), captureRequest(slide))
		require.NoError(t, err)
		assert.NotEmpty(t, bitmap.PNG)
	})

	t.Run("index out of range", func(t *testing.T) {
		req := captureRequest(builders.NewSlideBuilder().Build())
		req.Index = 3

		_, err := capturer.Capture(context.Background(), req)
		assert.Error(t, err)
	})
}

func TestSplitArea(t *testing.T) {
	content := rect{X: 0, Y: 0, W: 1000, H: 500}

	text, visual := splitArea(entities.LayoutLeft, content, 100)
	assert.Equal(t, 0.0, text.X)
	assert.Equal(t, 550.0, visual.X)

	text, visual = splitArea(entities.LayoutRight, content, 100)
	assert.Equal(t, 550.0, text.X)
	assert.Equal(t, 0.0, visual.X)

	text, visual = splitArea(entities.LayoutCenter, content, 100)
	assert.Equal(t, content, text)
	assert.Zero(t, visual.W)
}

func TestRasterCapturer_InPipeline(t *testing.T) {
	sink := NewMemorySink()
	pipeline, err := NewPipeline(PipelineConfig{
		Capturer: NewRasterCapturer(nil, nil),
		Sink:     sink,
		Scale:    0.25,
	})
	require.NoError(t, err)

	deck := builders.NewPresentationBuilder().WithTitle("Raster Deck").WithSlideCount(2).Build()
	result, err := pipeline.Export(context.Background(), deck, ExportOptions{Format: FormatPDF})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Exported)
	assert.Equal(t, []string{"Raster_Deck.pdf"}, result.Files)
}
