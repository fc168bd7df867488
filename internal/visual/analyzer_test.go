package visual

import (
	"testing"

	"github.com/local/hackeval/internal/docloader"
)

func intp(n int) *int { return &n }

func TestPostProcessFillsDefaultsAndReattachesProvenance(t *testing.T) {
	images := []docloader.EvidenceImage{
		{PageIndex: intp(1)},
		{PageIndex: intp(2)},
	}
	report := &WorkflowReport{
		ImageAnalyses: []ImageAnalysis{
			{ImageIndex: 0, Type: "architecture_diagram"},
			{ImageIndex: 1, Type: "photo"},
		},
	}

	postProcess(report, images)

	diagram := report.ImageAnalyses[0]
	if diagram.IsDiagram == nil || !*diagram.IsDiagram {
		t.Fatal("expected architecture_diagram to default is_diagram=true")
	}
	if diagram.Importance != ImportanceSupporting {
		t.Fatalf("importance = %q, want supporting", diagram.Importance)
	}
	if diagram.PageIndex == nil || *diagram.PageIndex != 1 {
		t.Fatal("expected page_index re-attached from image 0")
	}
	if diagram.Confidence == nil || *diagram.Confidence != 0.7 {
		t.Fatal("expected default confidence 0.7")
	}

	photo := report.ImageAnalyses[1]
	if photo.IsDiagram == nil || *photo.IsDiagram {
		t.Fatal("expected photo to default is_diagram=false")
	}
	if photo.Importance != ImportanceDecorative {
		t.Fatalf("importance = %q, want decorative", photo.Importance)
	}
}

func TestPostProcessKeepsModelSuppliedDefaults(t *testing.T) {
	images := []docloader.EvidenceImage{{PageIndex: intp(3)}}
	trueVal := true
	report := &WorkflowReport{
		ImageAnalyses: []ImageAnalysis{
			{ImageIndex: 0, Type: "flowchart", IsDiagram: &trueVal, Importance: ImportanceCritical},
		},
	}
	postProcess(report, images)
	if report.ImageAnalyses[0].Importance != ImportanceCritical {
		t.Fatal("should not override an explicit importance")
	}
}

func TestCondensedEvidenceTextFiltersToSupportingOrAboveDiagrams(t *testing.T) {
	trueVal, falseVal := true, false
	report := &WorkflowReport{
		OverallSummary: "Deck shows a clear three-tier architecture.",
		ImageAnalyses: []ImageAnalysis{
			{Type: "architecture_diagram", IsDiagram: &trueVal, Importance: ImportanceCritical, Description: "ingest -> process -> store", SlideIndex: intp(4)},
			{Type: "photo", IsDiagram: &falseVal, Importance: ImportanceDecorative, Description: "team photo"},
			{Type: "chart", IsDiagram: &trueVal, Importance: ImportanceIrrelevant, Description: "decorative chart"},
		},
	}

	text := CondensedEvidenceText(report)
	if text == "" {
		t.Fatal("expected non-empty condensed text")
	}
	if !contains(text, "slide 4") || !contains(text, "ingest -> process -> store") {
		t.Fatalf("condensed text missing critical diagram reference: %q", text)
	}
	if contains(text, "team photo") || contains(text, "decorative chart") {
		t.Fatalf("condensed text leaked non-qualifying image: %q", text)
	}
}

func TestCondensedEvidenceTextNilReport(t *testing.T) {
	if got := CondensedEvidenceText(nil); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestDiagramEvidenceCountOnlyCountsSupportingOrAbove(t *testing.T) {
	trueVal, falseVal := true, false
	report := &WorkflowReport{
		ImageAnalyses: []ImageAnalysis{
			{IsDiagram: &trueVal, Importance: ImportanceCritical},
			{IsDiagram: &trueVal, Importance: ImportanceSupporting},
			{IsDiagram: &trueVal, Importance: ImportanceDecorative},
			{IsDiagram: &falseVal, Importance: ImportanceCritical},
		},
	}
	if got := DiagramEvidenceCount(report); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

func TestSubsampleEvenlySamplesByStride(t *testing.T) {
	images := make([]docloader.EvidenceImage, 20)
	for i := range images {
		images[i] = docloader.EvidenceImage{PageIndex: intp(i)}
	}

	out := subsample(images, 4)
	if len(out) != 4 {
		t.Fatalf("got %d images, want 4", len(out))
	}
	wantIndices := []int{0, 5, 10, 15}
	for i, img := range out {
		if img.PageIndex == nil || *img.PageIndex != wantIndices[i] {
			t.Fatalf("index %d: got page %v, want %d", i, img.PageIndex, wantIndices[i])
		}
	}
}

func TestSubsampleNoOpWhenUnderLimit(t *testing.T) {
	images := make([]docloader.EvidenceImage, 3)
	out := subsample(images, 10)
	if len(out) != 3 {
		t.Fatalf("got %d, want 3", len(out))
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && indexOfSubstring(s, substr) >= 0
}

func indexOfSubstring(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
