package docloader

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/rs/zerolog/log"

	"github.com/local/hackeval/internal/imagerender"
)

const (
	minImagePixels    = 30000
	minLuminanceVariance = 50.0
)

// isDecorative reports whether a base64-encoded JPEG is too small or too
// flat to be meaningful evidence — logos, separators, and solid-color
// backgrounds, adapted from a page-graphics size/luminance heuristic for
// PDF analysis.
func isDecorative(base64JPEG string) bool {
	raw, err := imagerender.DecodeFromBase64(base64JPEG)
	if err != nil {
		return false
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		log.Debug().Err(err).Msg("decorative filter: could not decode image, keeping it")
		return false
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w*h < minImagePixels {
		return true
	}

	variance := luminanceVariance(img)
	return variance < minLuminanceVariance
}

func luminanceVariance(img image.Image) float64 {
	bounds := img.Bounds()
	n := 0
	var sum, sumSq float64

	// Sample every 4th pixel in each dimension; variance is a coarse filter
	// and this keeps the cost bounded on large renders.
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 4 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 4 {
			gray := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			v := float64(gray)
			sum += v
			sumSq += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}
