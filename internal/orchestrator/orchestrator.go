package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/local/hackeval/internal/agents"
	"github.com/local/hackeval/internal/calibrator"
	"github.com/local/hackeval/internal/docloader"
	"github.com/local/hackeval/internal/metrics"
	"github.com/local/hackeval/internal/visual"
)

// Config bounds a single batch run.
type Config struct {
	DocLoader      *docloader.Config
	Visual         *visual.Analyzer
	Agents         *agents.Config
	MaxConcurrency int
	ResultDir      string
	UseCombined    bool
}

func (c *Config) maxConcurrency() int {
	if c.MaxConcurrency > 0 {
		return c.MaxConcurrency
	}
	return 2
}

// RunFiles evaluates every file in files under a MaxConcurrency-bounded
// goroutine pool, then writes the leaderboard, both Excel workbooks, and
// per-team JSON reports to ResultDir. Returns the sorted leaderboard.
// ctx cancellation (SIGINT/SIGTERM, handled by the caller) stops new file
// goroutines from starting but lets in-flight ones finish.
func RunFiles(ctx context.Context, cfg Config, files []string) ([]TeamResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFilesMatched
	}

	sem := make(chan struct{}, cfg.maxConcurrency())
	var wg sync.WaitGroup
	var mu sync.Mutex
	var results []TeamResult

	for _, f := range files {
		if ctx.Err() != nil {
			log.Warn().Str("file", f).Msg("skipping file: shutdown in progress")
			continue
		}

		wg.Add(1)
		go func(filePath string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			result := cfg.processFile(ctx, filePath)
			if result.HasError() {
				metrics.IncFileEvaluated("error")
			} else {
				metrics.IncFileEvaluated("ok")
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(f)
	}

	wg.Wait()

	SortLeaderboard(results)

	if err := cfg.emitOutputs(results); err != nil {
		return results, err
	}

	return results, nil
}

// processFile runs the full sequential per-file pipeline (Loader -> Visual
// Analyzer -> Agents -> Calibrator). It never returns an error: failures are
// recorded on the returned TeamResult's EvaluationError field.
func (c *Config) processFile(ctx context.Context, filePath string) TeamResult {
	teamName := deriveTeamName(filePath)
	result := TeamResult{TeamName: teamName, FilePath: filePath}

	rawText, _, err := c.DocLoader.Load(ctx, filePath)
	if err != nil {
		result.EvaluationError = fmt.Sprintf("load failed: %v", err)
		return result
	}

	var report *visual.WorkflowReport
	if c.Visual != nil {
		report, err = c.Visual.Analyze(ctx, filePath)
		if err != nil {
			log.Warn().Err(err).Str("file", filePath).Msg("visual analysis failed, proceeding without diagram evidence")
		}
	}
	evidenceText := visual.CondensedEvidenceText(report)
	diagramCount := visual.DiagramEvidenceCount(report)

	var rawScores map[string]int
	if c.UseCombined {
		combined, cerr := c.Agents.Combined(ctx, rawText, evidenceText)
		if cerr != nil {
			result.EvaluationError = cerr.Error()
			return result
		}
		if combined.TeamName != "" {
			result.TeamName = combined.TeamName
		}
		rawScores = combined.Scores
		result.Summary = combined.Summary
		if combined.WorkflowAnalysis != nil {
			result.WorkflowOverall = combined.WorkflowAnalysis.Overall
		}
		result.Feedback = combined.Feedback
	} else {
		scoring, serr := c.Agents.Score(ctx, rawText, evidenceText)
		if serr != nil {
			result.EvaluationError = serr.Error()
			return result
		}
		if scoring.TeamName != "" {
			result.TeamName = scoring.TeamName
		}
		rawScores = scoring.Scores
		result.Summary = scoring.Summary
		if scoring.WorkflowAnalysis != nil {
			result.WorkflowOverall = scoring.WorkflowAnalysis.Overall
		}

		feedback, ferr := c.Agents.Feedback(ctx, rawText, evidenceText, scoring.Summary, scoring.Scores)
		if ferr != nil {
			log.Warn().Err(ferr).Str("file", filePath).Msg("feedback agent failed, report will omit feedback")
		} else {
			result.Feedback = feedback
		}
	}

	fused := calibrator.Fuse(rawScores, rawText, diagramCount)
	result.Scores = fused.Scores
	result.RawTotal = fused.RawTotal
	result.WeightedTotal = fused.WeightedTotal

	return result
}

func (c *Config) emitOutputs(results []TeamResult) error {
	resultDir := c.ResultDir
	if resultDir == "" {
		resultDir = "./reports"
	}
	if err := ensureDir(resultDir); err != nil {
		return fmt.Errorf("create result dir: %w", err)
	}

	for _, r := range results {
		printLeaderboardRow(r)
		if err := WriteJSONReport(resultDir, r); err != nil {
			log.Error().Err(err).Str("team", r.TeamName).Msg("failed to write per-team JSON report")
		}
	}

	if err := WriteConsolidatedReport(filepath.Join(resultDir, "consolidated_reports.xlsx"), results); err != nil {
		return err
	}
	if err := WriteLeaderboard(filepath.Join(resultDir, "leaderboard.xlsx"), results); err != nil {
		return err
	}
	return nil
}

func printLeaderboardRow(r TeamResult) {
	if r.HasError() {
		log.Info().Str("team", r.TeamName).Str("file", r.FilePath).Str("evaluation_error", r.EvaluationError).Msg("evaluation result")
		return
	}
	log.Info().
		Str("team", r.TeamName).
		Str("file", r.FilePath).
		Int("raw_total", r.RawTotal).
		Float64("weighted_total", r.WeightedTotal).
		Msg("evaluation result")
}

func deriveTeamName(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
