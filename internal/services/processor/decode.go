package processor

import (
	"bytes"
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/meta-shift/internal/models"

	// Decoders for the raster kinds the standard library lacks.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var errEmptyImage = errors.New("image has no pixels")

// decodeImage decodes at the original orientation so output dimensions
// always equal input dimensions.
func (p *ImageProcessor) decodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &models.DecodeError{Err: errors.New("empty input")}
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &models.DecodeError{Err: err}
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, &models.DecodeError{Err: errEmptyImage}
	}
	return img, nil
}
