package visual

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
)

// Difference-hash (dHash): no perceptual-hash library appears anywhere in
// the retrieval pack (see DESIGN.md), so this is hand-rolled on top of the
// same image/draw-style grayscale conversion the rest of the pipeline
// already uses for page analysis. A 9x8 grayscale thumbnail is compared
// pixel-to-its-right; each comparison contributes one bit of a 64-bit hash.
const (
	hashWidth  = 9
	hashHeight = 8
)

// dHash computes the difference hash of a JPEG image given as raw bytes.
func dHash(jpegBytes []byte) (uint64, error) {
	img, err := jpeg.Decode(bytes.NewReader(jpegBytes))
	if err != nil {
		return 0, err
	}

	thumb := shrinkGrayscale(img, hashWidth, hashHeight)

	var hash uint64
	bit := uint(0)
	for y := 0; y < hashHeight; y++ {
		for x := 0; x < hashWidth-1; x++ {
			left := thumb.GrayAt(x, y).Y
			right := thumb.GrayAt(x+1, y).Y
			if left > right {
				hash |= 1 << bit
			}
			bit++
		}
	}
	return hash, nil
}

// shrinkGrayscale downsamples img to w x h via nearest-neighbor sampling and
// converts to grayscale in the same pass.
func shrinkGrayscale(img image.Image, w, h int) *image.Gray {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		srcY := bounds.Min.Y + y*srcH/h
		for x := 0; x < w; x++ {
			srcX := bounds.Min.X + x*srcW/w
			gray := color.GrayModel.Convert(img.At(srcX, srcY)).(color.Gray)
			out.SetGray(x, y, gray)
		}
	}
	return out
}
