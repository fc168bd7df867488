package visual

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/local/hackeval/internal/docloader"
	"github.com/local/hackeval/internal/imagerender"
)

// dedupedImage pairs an evidence image with its computed dedup key and
// whether it's a rendered page/slide (vs. an embedded picture), used to
// order rendered images first after dedup.
type dedupedImage struct {
	img       docloader.EvidenceImage
	key       string
	isRendered bool
}

// dedupAndOrder computes a dedup key per image (perceptual hash, falling
// back to (slide_index, page_index, payload_length) when hashing fails),
// keeps first occurrences, then sorts rendered images first and by
// (slide_index, page_index) within each group.
func dedupAndOrder(images []docloader.EvidenceImage) []docloader.EvidenceImage {
	seen := make(map[string]bool, len(images))
	var kept []dedupedImage

	for _, img := range images {
		key := fallbackKey(img)
		if raw, derr := imagerender.DecodeFromBase64(img.Base64JPEG); derr == nil {
			if hash, herr := dHash(raw); herr == nil {
				key = fmt.Sprintf("dhash:%016x", hash)
			}
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		img.PerceptualHash = key
		kept = append(kept, dedupedImage{
			img:        img,
			key:        key,
			isRendered: img.SlideIndex != nil || img.PageIndex != nil,
		})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.isRendered != b.isRendered {
			return a.isRendered
		}
		ai, bi := indexOf(a.img), indexOf(b.img)
		return ai < bi
	})

	out := make([]docloader.EvidenceImage, len(kept))
	for i, d := range kept {
		out[i] = d.img
	}
	return out
}

func indexOf(img docloader.EvidenceImage) int {
	if img.SlideIndex != nil {
		return *img.SlideIndex
	}
	if img.PageIndex != nil {
		return *img.PageIndex
	}
	return 0
}

func fallbackKey(img docloader.EvidenceImage) string {
	slide, page := -1, -1
	if img.SlideIndex != nil {
		slide = *img.SlideIndex
	}
	if img.PageIndex != nil {
		page = *img.PageIndex
	}
	return fmt.Sprintf("fallback:%d:%d:%d", slide, page, len(img.Base64JPEG))
}

// subsample evenly selects at most max images by stride, matching the
// "len(images) / max" even-sampling rule.
func subsample(images []docloader.EvidenceImage, max int) []docloader.EvidenceImage {
	if max <= 0 || len(images) <= max {
		return images
	}
	stride := len(images) / max
	if stride < 1 {
		stride = 1
	}
	var out []docloader.EvidenceImage
	for i := 0; i < len(images) && len(out) < max; i += stride {
		out = append(out, images[i])
	}
	if len(out) > max {
		out = out[:max]
	}
	log.Debug().Int("total", len(images)).Int("kept", len(out)).Int("stride", stride).Msg("subsampled vision images")
	return out
}
