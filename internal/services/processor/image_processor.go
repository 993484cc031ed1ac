package processor

import (
	"bytes"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/randomizer"
)

const (
	// FixedQuality is used when no hash change is requested.
	FixedQuality = 0.99

	jitterQualityMin  = 0.97
	jitterQualitySpan = 0.02
)

type ImageProcessor struct {
	mu  sync.Mutex
	rng randomizer.Source
}

func NewImageProcessor(rng randomizer.Source) *ImageProcessor {
	if rng == nil {
		rng = randomizer.Default()
	}
	return &ImageProcessor{rng: rng}
}

// ImageResult is the re-encoded output of a single image.
type ImageResult struct {
	Data       []byte
	Format     imaging.Format
	MimeType   string
	Quality    float64
	Width      int
	Height     int
	TemplateID string
}

// ProcessImage decodes data, optionally flips the alpha of pixel (0,0) and
// re-encodes with a jittered or fixed quality. PNG stays PNG; every other
// kind becomes JPEG. The template is recorded but its tags are not written:
// the raster path rewrites pixel content instead of textual tags.
func (p *ImageProcessor) ProcessImage(data []byte, mimeType string, tmpl models.MetadataTemplate, alterHash bool) (*ImageResult, error) {
	img, err := p.decodeImage(data)
	if err != nil {
		return nil, err
	}

	var out image.Image = img
	if alterHash {
		out = perturbAlpha(img)
	}

	format := outputFormat(mimeType)
	quality := p.selectQuality(alterHash)

	buffer := &bytes.Buffer{}
	if err := p.encodeImage(buffer, out, format, quality); err != nil {
		return nil, err
	}

	bounds := out.Bounds()
	return &ImageResult{
		Data:       buffer.Bytes(),
		Format:     format,
		MimeType:   mimeFor(format),
		Quality:    quality,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		TemplateID: tmpl.ID,
	}, nil
}

func (p *ImageProcessor) selectQuality(alterHash bool) float64 {
	if !alterHash {
		return FixedQuality
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return jitterQualityMin + p.rng.Float64()*jitterQualitySpan
}

func outputFormat(mimeType string) imaging.Format {
	if mimeType == "image/png" {
		return imaging.PNG
	}
	return imaging.JPEG
}

func mimeFor(format imaging.Format) string {
	if format == imaging.PNG {
		return "image/png"
	}
	return "image/jpeg"
}
