package docloader

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/hackeval/internal/imagerender"
)

// PPTX files are ZIP archives; slides live at ppt/slides/slideN.xml and each
// slide's embedded-picture relationships live in the sibling
// ppt/slides/_rels/slideN.xml.rels part.
var pptxSlideRE = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// loadPPTX walks the OOXML zip archive directly: shape text via <a:t> runs
// inside <p:txBody>, embedded pictures via <a:blip r:embed="..."> resolved
// through the slide's .rels part to ppt/media/*. Slide renders (via the
// platform-probed SlideRenderer) are gathered independently and precede the
// embedded images in the returned list.
func (c *Config) loadPPTX(ctx context.Context, ref string) (string, []EvidenceImage, error) {
	localPath, cleanup, err := resolveLocal(ctx, ref)
	if err != nil {
		return "", nil, err
	}
	defer cleanup()

	zr, err := zip.OpenReader(localPath)
	if err != nil {
		return "", nil, fmt.Errorf("open pptx: %w", err)
	}
	defer zr.Close()

	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
	}

	type slideEntry struct {
		num  int
		file *zip.File
	}
	var entries []slideEntry
	for name, f := range byName {
		if m := pptxSlideRE.FindStringSubmatch(name); m != nil {
			n, _ := strconv.Atoi(m[1])
			entries = append(entries, slideEntry{n, f})
		}
	}
	if len(entries) == 0 {
		return "", nil, fmt.Errorf("no slides found in pptx")
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].num < entries[j].num })

	quality := c.JPEGQuality
	if quality <= 0 {
		quality = 85
	}

	var textParts []string
	var embedded []EvidenceImage

	for _, e := range entries {
		rc, oerr := e.file.Open()
		if oerr != nil {
			continue
		}
		slideText, terr := parseSlideText(rc)
		rc.Close()
		if terr != nil {
			log.Warn().Err(terr).Int("slide", e.num).Msg("pptx slide text parse failed")
		} else if strings.TrimSpace(slideText) != "" {
			textParts = append(textParts, slideText)
		}

		imgs := extractSlidePictures(byName, e.num, quality)
		embedded = append(embedded, imgs...)
	}

	renderer := c.newSlideRenderer()
	maxRender := c.MaxRenderPages
	if maxRender <= 0 {
		maxRender = 12
	}
	dpi := c.RenderDPI
	if dpi <= 0 {
		dpi = 150
	}
	rendered, rerr := renderer.RenderSlides(ctx, localPath, maxRender, dpi, quality)
	if rerr != nil {
		log.Warn().Err(rerr).Str("file", localPath).Msg("slide render failed, using embedded images only")
	}

	images := append(rendered, embedded...)
	return strings.Join(textParts, "\n\n"), images, nil
}

// loadPPT handles legacy binary PPT: there is no OOXML to parse, so only the
// renderer fallback contributes evidence (via an internal PPT->PDF/PNG
// conversion through the headless office strategy).
func (c *Config) loadPPT(ctx context.Context, ref string) (string, []EvidenceImage, error) {
	localPath, cleanup, err := resolveLocal(ctx, ref)
	if err != nil {
		return "", nil, err
	}
	defer cleanup()

	renderer := c.newSlideRenderer()
	maxRender := c.MaxRenderPages
	if maxRender <= 0 {
		maxRender = 12
	}
	dpi := c.RenderDPI
	if dpi <= 0 {
		dpi = 150
	}
	quality := c.JPEGQuality
	if quality <= 0 {
		quality = 85
	}

	images, err := renderer.RenderSlides(ctx, localPath, maxRender, dpi, quality)
	if err != nil {
		return "", nil, err
	}
	return "", images, nil
}

// parseSlideText concatenates <a:t> run text inside a slide's <p:txBody>
// shapes, separating paragraphs (</a:p>) with newlines.
func parseSlideText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var out strings.Builder
	var inT bool

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse slide xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inT = true
			}
		case xml.CharData:
			if inT {
				out.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inT = false
			case "p":
				out.WriteByte('\n')
			}
		}
	}
	return out.String(), nil
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

type relationships struct {
	Relationships []relationship `xml:"Relationship"`
}

var blipEmbedRE = regexp.MustCompile(`<a:blip[^>]*r:embed="([^"]+)"`)

// extractSlidePictures resolves every <a:blip r:embed="rIdN"> in slide N's
// XML through ppt/slides/_rels/slideN.xml.rels to its ppt/media/* target.
func extractSlidePictures(byName map[string]*zip.File, slideNum, quality int) []EvidenceImage {
	slideName := fmt.Sprintf("ppt/slides/slide%d.xml", slideNum)
	relsName := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", slideNum)

	slideFile, ok := byName[slideName]
	if !ok {
		return nil
	}
	relsFile, ok := byName[relsName]
	if !ok {
		return nil
	}

	slideXML, err := readZipFile(slideFile)
	if err != nil {
		return nil
	}
	relsXML, err := readZipFile(relsFile)
	if err != nil {
		return nil
	}

	var rels relationships
	if err := xml.Unmarshal(relsXML, &rels); err != nil {
		return nil
	}
	targetByID := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		targetByID[r.ID] = r.Target
	}

	var out []EvidenceImage
	for _, m := range blipEmbedRE.FindAllStringSubmatch(string(slideXML), -1) {
		rID := m[1]
		target, ok := targetByID[rID]
		if !ok {
			continue
		}
		mediaPath := path.Clean(path.Join("ppt/slides", target))
		mediaFile, ok := byName[mediaPath]
		if !ok {
			continue
		}
		raw, err := readZipFile(mediaFile)
		if err != nil {
			continue
		}
		img, _, derr := image.Decode(bytes.NewReader(raw))
		if derr != nil {
			continue
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			continue
		}
		idx := slideNum
		out = append(out, EvidenceImage{
			Base64JPEG: imagerender.EncodeToBase64(buf.Bytes()),
			SlideIndex: &idx,
		})
	}
	return out
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
