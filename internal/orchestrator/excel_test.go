package orchestrator

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/local/hackeval/internal/calibrator"
)

func TestWriteConsolidatedReportRoundTrips(t *testing.T) {
	results := []TeamResult{
		{
			TeamName: "Team Rocket", FilePath: "decks/rocket.pdf",
			Scores:        calibrator.Scores{calibrator.KeyInnovation: 8, calibrator.KeyPotentialImpact: 6},
			RawTotal:      38,
			WeightedTotal: 41.5,
			Summary:       "solid pitch",
		},
		{TeamName: "Team Broken", FilePath: "decks/broken.pptx", EvaluationError: "load failed: corrupt zip"},
	}

	path := filepath.Join(t.TempDir(), "consolidated_reports.xlsx")
	if err := WriteConsolidatedReport(path, results); err != nil {
		t.Fatalf("WriteConsolidatedReport: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Reports")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (header + 2 teams)", len(rows))
	}
	if rows[0][0] != "team_name" {
		t.Fatalf("header[0] = %q, want team_name", rows[0][0])
	}
	if rows[1][0] != "Team Rocket" {
		t.Fatalf("row1 team = %q", rows[1][0])
	}
	if rows[2][2] != "load failed: corrupt zip" {
		t.Fatalf("row2 evaluation_error = %q", rows[2][2])
	}
}

func TestWriteLeaderboardShowsErrorForFailedContexts(t *testing.T) {
	sorted := []TeamResult{
		{TeamName: "Winner", FilePath: "decks/winner.pdf", WeightedTotal: 50.0,
			Scores: calibrator.Scores{calibrator.KeyInnovation: 9, calibrator.KeyTechnicalFeasibility: 8, calibrator.KeyPotentialImpact: 7}},
		{TeamName: "Loser", FilePath: "decks/loser.pdf", EvaluationError: "agent call exhausted retries"},
	}

	path := filepath.Join(t.TempDir(), "leaderboard.xlsx")
	if err := WriteLeaderboard(path, sorted); err != nil {
		t.Fatalf("WriteLeaderboard: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Leaderboard")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[1][0] != "1" || rows[1][1] != "Winner" {
		t.Fatalf("row1 = %v", rows[1])
	}
	if rows[2][2] != "ERROR" {
		t.Fatalf("errored row Weighted Total = %q, want ERROR", rows[2][2])
	}
}
