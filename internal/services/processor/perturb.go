package processor

import (
	"image"

	"github.com/disintegration/imaging"
)

// perturbAlpha toggles the alpha of the top-left pixel between 254 and 255.
// The input image is left untouched.
func perturbAlpha(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y) + 3
	if dst.Pix[off] == 255 {
		dst.Pix[off] = 254
	} else {
		dst.Pix[off] = 255
	}
	return dst
}
