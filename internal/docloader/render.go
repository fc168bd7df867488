package docloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/hackeval/internal/converter"
	"github.com/local/hackeval/internal/imagerender"
)

// SlideRenderer rasterizes each slide/page of an office document to JPEG
// evidence images, numbered by slide (1-based).
type SlideRenderer interface {
	RenderSlides(ctx context.Context, filePath string, maxSlides, dpi, quality int) ([]EvidenceImage, error)
}

// newSlideRenderer picks the best available rendering strategy for this
// platform. A PowerPoint-compatible COM automation host is only reachable on
// Windows; everywhere else the headless office suite does the job via the
// same external-process conversion pattern the loader uses for Office->PDF.
func (c *Config) newSlideRenderer() SlideRenderer {
	if r := newCOMSlideRenderer(); r != nil {
		return r
	}
	return &libreofficeSlideRenderer{lo: c.LibreOffice}
}

// libreofficeSlideRenderer converts the whole deck to a single PDF via
// LibreOffice headless mode, then rasterizes each resulting page — this
// avoids soffice's single-slide PNG export limitation for multi-slide
// presentations while still going through the "convert-to" process pattern.
type libreofficeSlideRenderer struct {
	lo *converter.LibreOffice
}

func (r *libreofficeSlideRenderer) RenderSlides(ctx context.Context, filePath string, maxSlides, dpi, quality int) ([]EvidenceImage, error) {
	if r.lo == nil {
		return nil, fmt.Errorf("libreoffice renderer not configured")
	}

	tempDir, err := os.MkdirTemp("", "slide-render-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	outPDF := filepath.Join(tempDir, uuid.New().String()+".pdf")
	res := r.lo.ConvertToPDF(converter.Job{
		InputPath:  filePath,
		OutputPath: outPDF,
		Timeout:    120 * time.Second,
	})
	if !res.Success {
		return nil, fmt.Errorf("libreoffice conversion failed: %s", res.Error)
	}

	total, err := DetermineTotalPages(ctx, res.OutputPath)
	if err != nil {
		return nil, err
	}
	if maxSlides > 0 && total > maxSlides {
		total = maxSlides
	}

	var out []EvidenceImage
	for slide := 1; slide <= total; slide++ {
		jpegBytes, _, _, rerr := imagerender.RenderPageToJPEG(res.OutputPath, slide, dpi, quality, "rgb")
		if rerr != nil {
			log.Warn().Err(rerr).Str("file", filePath).Int("slide", slide).Msg("slide render failed")
			continue
		}
		idx := slide
		out = append(out, EvidenceImage{
			Base64JPEG: imagerender.EncodeToBase64(jpegBytes),
			SlideIndex: &idx,
		})
	}
	return out, nil
}
