// Package orchestrator drives the batch pipeline (C5): expanding a glob of
// pitch decks, running each through the loader/visual/agents/calibrator
// stages under bounded concurrency, and emitting the console leaderboard,
// Excel workbooks, and per-team JSON reports.
package orchestrator

import (
	"github.com/local/hackeval/internal/agents"
	"github.com/local/hackeval/internal/calibrator"
)

// TeamResult is the fully evaluated Evaluation Context for one deck, either
// carrying a complete Score Vector or an EvaluationError.
type TeamResult struct {
	TeamName        string
	FilePath        string
	EvaluationError string

	Scores        calibrator.Scores
	RawTotal      int
	WeightedTotal float64

	Summary         string
	WorkflowOverall string
	Feedback        agents.FeedbackResult
}

// HasError reports whether this context failed evaluation.
func (r TeamResult) HasError() bool { return r.EvaluationError != "" }
