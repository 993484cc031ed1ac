package processor

import (
	"bytes"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/meta-shift/internal/models"
)

func (p *ImageProcessor) encodeImage(w *bytes.Buffer, img image.Image, format imaging.Format, quality float64) error {
	var err error
	switch format {
	case imaging.PNG:
		err = imaging.Encode(w, img, imaging.PNG)
	default:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(quality)))
	}
	if err != nil {
		return &models.EncodeError{Format: format.String(), Err: err}
	}
	if w.Len() == 0 {
		return &models.EncodeError{Format: format.String()}
	}
	return nil
}

// jpegQuality maps a 0..1 factor onto the encoder's 1..100 scale.
func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	return min(100, max(1, v))
}
