package export

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/slidecraft/internal/domain/ports"
	"github.com/fredcamaral/slidecraft/internal/test/builders"
)

func TestAssemblePDF(t *testing.T) {
	deck := builders.NewPresentationBuilder().WithTitle("Board Update").WithSlideCount(3).Build()
	bitmap := &ports.Bitmap{Width: 8, Height: 8, PNG: tinyPNG(t, 8, 8, color.White)}

	artifact, err := assemblePDF(deck, []capturedSlide{{index: 0, bitmap: bitmap}, {index: 2, bitmap: bitmap}})
	require.NoError(t, err)

	assert.Equal(t, "Board_Update.pdf", artifact.Name)
	assert.Equal(t, "application/pdf", artifact.MimeType)
	assert.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF")))
	assert.Equal(t, 2, bytes.Count(artifact.Data, []byte("/Type /Page\n")), "one page per captured slide")
}

func TestAssemblePDF_BadImage(t *testing.T) {
	deck := builders.NewPresentationBuilder().WithSlideCount(1).Build()
	bitmap := &ports.Bitmap{PNG: []byte("garbage")}

	_, err := assemblePDF(deck, []capturedSlide{{index: 0, bitmap: bitmap}})
	assert.ErrorContains(t, err, "embedding slide 1")
}

func TestImageArtifacts(t *testing.T) {
	deck := builders.NewPresentationBuilder().WithTitle("Deck").WithSlideCount(3).Build()
	bitmap := &ports.Bitmap{PNG: []byte{1}}

	artifacts := imageArtifacts(deck, []capturedSlide{{index: 0, bitmap: bitmap}, {index: 2, bitmap: bitmap}})
	require.Len(t, artifacts, 2)
	assert.Equal(t, "Deck_slide_1.png", artifacts[0].Name)
	assert.Equal(t, "Deck_slide_3.png", artifacts[1].Name)
}
