package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

type jsonWorkflowAnalysis struct {
	Overall string `json:"overall"`
}

type jsonFeedback struct {
	Positive    []string `json:"positive"`
	Criticism   []string `json:"criticism"`
	Technical   []string `json:"technical"`
	Suggestions []string `json:"suggestions"`
}

type jsonReport struct {
	TeamName         string               `json:"team_name"`
	Scores           map[string]int       `json:"scores,omitempty"`
	TotalRaw         int                  `json:"total_raw,omitempty"`
	TotalWeighted    float64              `json:"total_weighted,omitempty"`
	Summary          string               `json:"summary,omitempty"`
	WorkflowAnalysis jsonWorkflowAnalysis `json:"workflow_analysis"`
	Feedback         jsonFeedback         `json:"feedback"`
	EvaluationError  string               `json:"evaluation_error,omitempty"`
}

// BuildJSONReport renders r into the per-file JSON report shape (§6).
func BuildJSONReport(r TeamResult) ([]byte, error) {
	doc := jsonReport{
		TeamName:         r.TeamName,
		Scores:           r.Scores,
		TotalRaw:         r.RawTotal,
		TotalWeighted:    r.WeightedTotal,
		Summary:          r.Summary,
		WorkflowAnalysis: jsonWorkflowAnalysis{Overall: r.WorkflowOverall},
		Feedback: jsonFeedback{
			Positive:    r.Feedback.Positive,
			Criticism:   r.Feedback.Criticism,
			Technical:   r.Feedback.Technical,
			Suggestions: r.Feedback.Suggestions,
		},
		EvaluationError: r.EvaluationError,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// WriteJSONReport logs the per-team JSON report and persists it to
// <resultDir>/<team_name>.json for collaborator pickup.
func WriteJSONReport(resultDir string, r TeamResult) error {
	body, err := BuildJSONReport(r)
	if err != nil {
		return fmt.Errorf("marshal report for %s: %w", r.TeamName, err)
	}

	log.Info().RawJSON("report", body).Str("team", r.TeamName).Msg("team evaluation report")

	path := filepath.Join(resultDir, sanitizeFilename(r.TeamName)+".json")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write report file %s: %w", path, err)
	}
	return nil
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

func sanitizeFilename(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "team"
	}
	return string(out)
}
