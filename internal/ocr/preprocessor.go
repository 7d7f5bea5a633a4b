package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// Preprocessor prepares rendered page images for OCR: grayscale plus a
// histogram stretch, the combination that reads scanned invoice stamps
// and dot-matrix print most reliably.
type Preprocessor struct{}

// NewPreprocessor creates a new image preprocessor
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Prepare converts the page to grayscale and normalizes its contrast.
func (p *Preprocessor) Prepare(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	return autocontrast(gray)
}

// autocontrast linearly remaps pixel intensity so the darkest pixel
// becomes 0 and the brightest 255. Input must already be grayscale
// (R==G==B), which Grayscale guarantees.
func autocontrast(img *image.NRGBA) *image.NRGBA {
	minV, maxV := uint8(255), uint8(0)
	bounds := img.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[(y-bounds.Min.Y)*img.Stride:]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := row[(x-bounds.Min.X)*4]
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}

	if maxV <= minV {
		return img
	}

	scale := 255.0 / float64(maxV-minV)
	out := imaging.Clone(img)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := out.Pix[(y-bounds.Min.Y)*out.Stride:]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := (x - bounds.Min.X) * 4
			v := uint8(float64(row[i]-minV) * scale)
			row[i], row[i+1], row[i+2] = v, v, v
		}
	}
	return out
}
