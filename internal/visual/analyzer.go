package visual

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/hackeval/internal/ai"
	"github.com/local/hackeval/internal/dispatcher"
	"github.com/local/hackeval/internal/docloader"
	"github.com/local/hackeval/internal/jsonextract"
)

// visionPrompt is grounded on the original WorkflowAnalysisAgent's "System
// Design and Process Analysis Specialist" persona: classify each image,
// describe diagrams step by step, and call out positive/critical/technical
// observations plus suggestions, ending in a JSON-only response.
const visionPrompt = `You are a System Design and Process Analysis Specialist reviewing images extracted from a hackathon pitch deck.

For each image, in order:
- Classify its type (architecture_diagram, flowchart, sequence_diagram, data_model, ui_mockup, chart, photo, other).
- Decide is_diagram: true only for diagrams that convey system design, architecture, or process (not photos, logos, or decorative mockups).
- If it is a diagram, describe it step by step: components, data flow, and any labeled steps.
- Note Positive observations, Criticism (gaps, inconsistencies, unlabeled flows), and Technical observations.
- Suggest improvements in bold.
- Rate importance as one of: critical, supporting, decorative, irrelevant. A diagram central to the architecture or workflow is critical; one illustrating a secondary point is supporting; a logo, background, or photo is decorative or irrelevant.
- Give a confidence score between 0 and 1 for the classification.

After reviewing every image, write one overall_summary paragraph covering: the deck's overall visual communication quality, architecture clarity, process clarity, and any concerns.

Return ONLY JSON matching this schema:
{"overall_summary": string, "image_analyses": [{"image_index": int, "description": string, "type": string, "is_diagram": bool, "importance": string, "confidence": number}]}`

// Analyzer runs the vision stage over a single deck's evidence images.
type Analyzer struct {
	DocLoader    *docloader.Config
	Failover     *dispatcher.Failover
	Timeout      time.Duration
	MaxImages    int
	VisionLimit  Limiter
}

// Limiter is satisfied by the process-global vision rate limiter; kept as an
// interface here so the visual package has no dependency on its concrete type.
type Limiter interface {
	Wait(ctx context.Context)
}

// Analyze independently extracts filePath's images (mirroring the document
// loader's own extraction), dedups/subsamples them, and issues a single
// multimodal call classifying each surviving image. Returns (nil, nil) when
// no images remain after decorative filtering and dedup.
func (a *Analyzer) Analyze(ctx context.Context, filePath string) (*WorkflowReport, error) {
	_, images, err := a.DocLoader.Load(ctx, filePath)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, nil
	}

	images = dedupAndOrder(images)
	images = subsample(images, a.MaxImages)
	if len(images) == 0 {
		return nil, nil
	}

	parts := make([]ai.ImagePart, 0, len(images))
	for _, img := range images {
		parts = append(parts, ai.ImagePart{Base64: img.Base64JPEG, MIME: "image/jpeg"})
	}

	req := ai.Request{
		UserPrompt: visionPrompt,
		Images:     parts,
	}

	if a.VisionLimit != nil {
		a.VisionLimit.Wait(ctx)
	}

	_, model, text, err := a.Failover.Call(ctx, req, a.Timeout)
	if err != nil {
		log.Warn().Err(err).Str("file", filePath).Msg("visual analysis failed, proceeding without diagram evidence")
		return nil, nil
	}

	jsonText, err := jsonextract.Extract(text)
	if err != nil {
		log.Warn().Err(err).Str("model", model).Msg("visual analysis response had no recoverable JSON")
		return nil, nil
	}

	var report WorkflowReport
	if err := json.Unmarshal([]byte(jsonText), &report); err != nil {
		log.Warn().Err(err).Str("model", model).Msg("visual analysis response failed to parse")
		return nil, nil
	}

	postProcess(&report, images)
	return &report, nil
}

// postProcess fills in defaults the model may omit and re-attaches the
// slide/page provenance of the image each analysis refers to, by position.
func postProcess(report *WorkflowReport, images []docloader.EvidenceImage) {
	for i := range report.ImageAnalyses {
		ia := &report.ImageAnalyses[i]

		if ia.ImageIndex >= 0 && ia.ImageIndex < len(images) {
			img := images[ia.ImageIndex]
			ia.SlideIndex = img.SlideIndex
			ia.PageIndex = img.PageIndex
		}

		if ia.IsDiagram == nil {
			isDiagram := !nonDiagramTypes[strings.ToLower(ia.Type)]
			ia.IsDiagram = &isDiagram
		}

		if ia.Importance == "" {
			if *ia.IsDiagram {
				ia.Importance = ImportanceSupporting
			} else {
				ia.Importance = ImportanceDecorative
			}
		}

		if ia.Confidence == nil {
			defaultConfidence := 0.7
			ia.Confidence = &defaultConfidence
		}
	}
}

// CondensedEvidenceText renders a single paragraph: the report's overall
// summary, followed by only the analyses that are diagrams and at least
// supporting importance, preserving slide/page references, for injection
// into the scoring/feedback prompts.
func CondensedEvidenceText(report *WorkflowReport) string {
	if report == nil {
		return ""
	}

	var b strings.Builder
	if report.OverallSummary != "" {
		b.WriteString(report.OverallSummary)
		b.WriteString(" ")
	}

	for _, ia := range report.ImageAnalyses {
		if ia.IsDiagram == nil || !*ia.IsDiagram {
			continue
		}
		if ia.Importance != ImportanceCritical && ia.Importance != ImportanceSupporting {
			continue
		}
		ref := "image"
		if ia.SlideIndex != nil {
			ref = fmt.Sprintf("slide %d", *ia.SlideIndex)
		} else if ia.PageIndex != nil {
			ref = fmt.Sprintf("page %d", *ia.PageIndex)
		}
		fmt.Fprintf(&b, "On %s (%s, %s importance): %s ", ref, ia.Type, ia.Importance, ia.Description)
	}

	return strings.TrimSpace(b.String())
}

// DiagramEvidenceCount counts analyses that count as core diagram evidence
// for calibration purposes: is_diagram true and importance critical or
// supporting.
func DiagramEvidenceCount(report *WorkflowReport) int {
	if report == nil {
		return 0
	}
	n := 0
	for _, ia := range report.ImageAnalyses {
		if ia.IsDiagram != nil && *ia.IsDiagram &&
			(ia.Importance == ImportanceCritical || ia.Importance == ImportanceSupporting) {
			n++
		}
	}
	return n
}
