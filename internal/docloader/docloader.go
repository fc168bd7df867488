// Package docloader implements the document-loading stage of the pipeline:
// turning a pitch deck file (PDF, PPT, or PPTX) into raw extracted text plus
// a list of evidence images for the visual analyzer and scoring agents.
package docloader

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/hackeval/internal/converter"
	"github.com/local/hackeval/internal/filetype"
)

// detector classifies files by magic bytes rather than trusting a possibly
// misleading extension (a renamed .pptx saved with a .ppt suffix, etc).
var detector = filetype.New()

// ErrUnsupportedFormat is returned when filePath's extension is not one of
// the supported deck formats.
var ErrUnsupportedFormat = errors.New("docloader: unsupported file format")

// EvidenceImage is a single piece of visual evidence pulled from a deck,
// either a full-page/slide render or an embedded raster image. At most one
// of SlideIndex / PageIndex is set. PerceptualHash is populated later by the
// visual analyzer; it starts empty here.
type EvidenceImage struct {
	Base64JPEG     string
	SlideIndex     *int
	PageIndex      *int
	PerceptualHash string
}

// Config bounds the loader's rendering and decoration behavior.
type Config struct {
	RenderDPI      int
	MaxRenderPages int
	JPEGQuality    int
	LibreOffice    *converter.LibreOffice
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".ppt":  true,
	".pptx": true,
}

// AllowedExtensions reports which extensions Load understands, keyed with
// the leading dot. Used by TEAM_GLOB expansion to filter candidate files.
func AllowedExtensions() map[string]bool {
	out := make(map[string]bool, len(allowedExtensions))
	for k, v := range allowedExtensions {
		out[k] = v
	}
	return out
}

// Load extracts raw text and evidence images from filePath. A failure to
// even open the file is logged and reported as a degraded-but-valid result
// ("", nil, nil), matching the pipeline's error taxonomy: only an
// unsupported extension is a hard error.
func (c *Config) Load(ctx context.Context, filePath string) (string, []EvidenceImage, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if !allowedExtensions[ext] {
		return "", nil, ErrUnsupportedFormat
	}

	effectiveExt := ext
	if isLocalPath(filePath) {
		if info, derr := detector.Detect(filePath); derr == nil {
			if detected := detectedDeckExtension(info); detected != "" && detected != ext {
				log.Warn().
					Str("file", filePath).
					Str("claimed_ext", ext).
					Str("detected_ext", detected).
					Str("mime", info.MIMEType).
					Msg("file extension does not match magic-byte detected type; using detected type")
				effectiveExt = detected
			}
		}
	}

	var text string
	var images []EvidenceImage
	var err error

	switch effectiveExt {
	case ".pdf":
		text, images, err = c.loadPDF(ctx, filePath)
	case ".pptx":
		text, images, err = c.loadPPTX(ctx, filePath)
	case ".ppt":
		text, images, err = c.loadPPT(ctx, filePath)
	}

	if err != nil {
		log.Warn().Err(err).Str("file", filePath).Msg("document load degraded to empty result")
		return "", nil, nil
	}

	filtered := make([]EvidenceImage, 0, len(images))
	for _, img := range images {
		if isDecorative(img.Base64JPEG) {
			continue
		}
		filtered = append(filtered, img)
	}

	return text, filtered, nil
}

// isLocalPath reports whether ref names a path on this filesystem, as
// opposed to a remote reference resolveLocal would need to download first.
// Magic-byte detection only runs against local paths since mimetype.DetectFile
// needs a real file to open.
func isLocalPath(ref string) bool {
	return !strings.HasPrefix(ref, "s3://") &&
		!strings.HasPrefix(ref, "http://") &&
		!strings.HasPrefix(ref, "https://")
}

// detectedDeckExtension maps a magic-byte detected MIME type to the deck
// extension it corresponds to, or "" when the detection isn't one of the
// three supported deck types (in which case the claimed extension wins).
func detectedDeckExtension(info *filetype.FileTypeInfo) string {
	switch info.MIMEType {
	case "application/pdf":
		return ".pdf"
	case "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return ".pptx"
	case "application/vnd.ms-powerpoint":
		return ".ppt"
	default:
		return ""
	}
}
