package export

import (
	"fmt"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// imageArtifacts names each bitmap <title>_slide_<N>.png, N being the
// 1-based position of the slide in the source deck.
func imageArtifacts(presentation *entities.Presentation, captured []capturedSlide) []ports.Artifact {
	title := sanitizeFilename(presentation.DisplayTitle())
	artifacts := make([]ports.Artifact, 0, len(captured))
	for _, c := range captured {
		artifacts = append(artifacts, ports.Artifact{
			Name:     fmt.Sprintf("%s_slide_%d.png", title, c.index+1),
			MimeType: "image/png",
			Data:     c.bitmap.PNG,
		})
	}
	return artifacts
}

// ArchiveName is the file name used when the slide images of a deck are
// bundled into a single zip.
func ArchiveName(presentation *entities.Presentation) string {
	return sanitizeFilename(presentation.DisplayTitle()) + "_slides.zip"
}
