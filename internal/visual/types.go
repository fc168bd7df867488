// Package visual implements the visual analyzer (C2): independent image
// extraction, perceptual-hash dedup, and a single multimodal vision call
// that classifies diagrams for the scoring/feedback agents.
package visual

// Importance classifies how much an image analysis should weigh in scoring.
const (
	ImportanceCritical   = "critical"
	ImportanceSupporting = "supporting"
	ImportanceDecorative = "decorative"
	ImportanceIrrelevant = "irrelevant"
)

// ImageAnalysis is the vision model's verdict on one evidence image.
type ImageAnalysis struct {
	ImageIndex  int     `json:"image_index"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	SlideIndex  *int    `json:"slide_index,omitempty"`
	PageIndex   *int    `json:"page_index,omitempty"`
	IsDiagram   *bool   `json:"is_diagram,omitempty"`
	Importance  string  `json:"importance,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
}

// WorkflowReport is the vision model's output over every surviving image.
type WorkflowReport struct {
	OverallSummary string          `json:"overall_summary"`
	ImageAnalyses  []ImageAnalysis `json:"image_analyses"`
}

// nonDiagramTypes are image "type" values the model may return that default
// IsDiagram to false when the model omits the field.
var nonDiagramTypes = map[string]bool{
	"photo":  true,
	"image":  true,
	"mockup": true,
}
