package orchestrator

import (
	"testing"

	"github.com/local/hackeval/internal/calibrator"
)

func allScores(v int) calibrator.Scores {
	s := make(calibrator.Scores, len(calibrator.RubricKeys))
	for _, k := range calibrator.RubricKeys {
		s[k] = v
	}
	return s
}

func TestSortLeaderboardOrdersByWeightedTotalDescending(t *testing.T) {
	results := []TeamResult{
		{TeamName: "Low", WeightedTotal: 40, Scores: allScores(4)},
		{TeamName: "High", WeightedTotal: 90, Scores: allScores(9)},
		{TeamName: "Mid", WeightedTotal: 60, Scores: allScores(6)},
	}
	SortLeaderboard(results)
	if results[0].TeamName != "High" || results[1].TeamName != "Mid" || results[2].TeamName != "Low" {
		t.Fatalf("unexpected order: %+v", results)
	}
}

func TestSortLeaderboardPlacesErroredContextsLast(t *testing.T) {
	results := []TeamResult{
		{TeamName: "Broken", EvaluationError: "timeout"},
		{TeamName: "Fine", WeightedTotal: 10, Scores: allScores(1)},
	}
	SortLeaderboard(results)
	if results[0].TeamName != "Fine" || results[1].TeamName != "Broken" {
		t.Fatalf("unexpected order: %+v", results)
	}
}

func TestSortLeaderboardTieBreaksByNameAscending(t *testing.T) {
	// S3: identical scores, different names -> Alpha before Zeta.
	results := []TeamResult{
		{TeamName: "Zeta", WeightedTotal: 70, Scores: allScores(7)},
		{TeamName: "Alpha", WeightedTotal: 70, Scores: allScores(7)},
	}
	SortLeaderboard(results)
	if results[0].TeamName != "Alpha" || results[1].TeamName != "Zeta" {
		t.Fatalf("unexpected order: %+v", results)
	}
}

func TestStableJitterIsDeterministicAndBounded(t *testing.T) {
	a := stableJitter("Team Rocket")
	b := stableJitter("Team Rocket")
	if a != b {
		t.Fatalf("jitter not deterministic: %v vs %v", a, b)
	}
	if a < 0 || a > 0.009 {
		t.Fatalf("jitter out of bounds: %v", a)
	}
}
