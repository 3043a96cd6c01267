package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// PDF page geometry in millimetres: 1920x1080 pt at 16:9.
const (
	pdfPageWidth  = 338.67
	pdfPageHeight = 190.5
)

// assemblePDF places each captured bitmap on its own full-bleed page.
func assemblePDF(presentation *entities.Presentation, captured []capturedSlide) (ports.Artifact, error) {
	// Orientation only swaps the given size, so the landscape geometry is
	// passed directly with "P".
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: pdfPageWidth, Ht: pdfPageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(presentation.DisplayTitle(), true)
	pdf.SetCreator("slidecraft", true)

	for _, c := range captured {
		name := fmt.Sprintf("slide-%d", c.index)
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}

		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(c.bitmap.PNG))
		if err := pdf.Error(); err != nil {
			return ports.Artifact{}, fmt.Errorf("embedding slide %d: %w", c.index+1, err)
		}

		pdf.AddPage()
		pdf.ImageOptions(name, 0, 0, pdfPageWidth, pdfPageHeight, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return ports.Artifact{}, fmt.Errorf("writing PDF: %w", err)
	}

	return ports.Artifact{
		Name:     sanitizeFilename(presentation.DisplayTitle()) + ".pdf",
		MimeType: "application/pdf",
		Data:     buf.Bytes(),
	}, nil
}
