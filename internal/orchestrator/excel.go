package orchestrator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/local/hackeval/internal/calibrator"
)

var consolidatedColumns = []string{
	"team_name", "file_path", "evaluation_error",
	calibrator.KeyProblemUnderstanding, calibrator.KeyInnovation,
	calibrator.KeyTechnicalFeasibility, calibrator.KeyImplementationApproach,
	calibrator.KeyTeamReadiness, calibrator.KeyPotentialImpact,
	"total_raw", "total_weighted", "summary", "workflow_overall",
	"feedback_positive", "feedback_criticism", "feedback_technical", "feedback_suggestions",
}

var leaderboardColumns = []string{
	"Rank", "Team Name", "Weighted Total",
	calibrator.KeyInnovation, calibrator.KeyTechnicalFeasibility, calibrator.KeyPotentialImpact,
	"File Name",
}

// WriteConsolidatedReport emits consolidated_reports.xlsx: one row per team,
// columns exactly per §6, rows in the order of results (RunFiles passes the
// sorted leaderboard order).
func WriteConsolidatedReport(path string, results []TeamResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Reports"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, name := range consolidatedColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, name)
	}

	for row, r := range results {
		rowNum := row + 2
		values := []any{
			r.TeamName, r.FilePath, r.EvaluationError,
			scoreOrBlank(r, calibrator.KeyProblemUnderstanding),
			scoreOrBlank(r, calibrator.KeyInnovation),
			scoreOrBlank(r, calibrator.KeyTechnicalFeasibility),
			scoreOrBlank(r, calibrator.KeyImplementationApproach),
			scoreOrBlank(r, calibrator.KeyTeamReadiness),
			scoreOrBlank(r, calibrator.KeyPotentialImpact),
			totalRawOrBlank(r), totalWeightedOrBlank(r),
			r.Summary, r.WorkflowOverall,
			strings.Join(r.Feedback.Positive, "\n"),
			strings.Join(r.Feedback.Criticism, "\n"),
			strings.Join(r.Feedback.Technical, "\n"),
			strings.Join(r.Feedback.Suggestions, "\n"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save consolidated report: %w", err)
	}
	return nil
}

// WriteLeaderboard emits leaderboard.xlsx from an already-sorted result list
// (see SortLeaderboard), showing "ERROR" in place of Weighted Total for
// contexts that failed evaluation.
func WriteLeaderboard(path string, sorted []TeamResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Leaderboard"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, name := range leaderboardColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, name)
	}

	for row, r := range sorted {
		rowNum := row + 2
		weighted := any("ERROR")
		innovation := any("ERROR")
		technical := any("ERROR")
		impact := any("ERROR")
		if !r.HasError() {
			weighted = r.WeightedTotal
			innovation = r.Scores[calibrator.KeyInnovation]
			technical = r.Scores[calibrator.KeyTechnicalFeasibility]
			impact = r.Scores[calibrator.KeyPotentialImpact]
		}
		values := []any{row + 1, r.TeamName, weighted, innovation, technical, impact, r.FilePath}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save leaderboard: %w", err)
	}
	return nil
}

func scoreOrBlank(r TeamResult, key string) any {
	if r.HasError() {
		return ""
	}
	return r.Scores[key]
}

func totalRawOrBlank(r TeamResult) any {
	if r.HasError() {
		return ""
	}
	return r.RawTotal
}

func totalWeightedOrBlank(r TeamResult) any {
	if r.HasError() {
		return ""
	}
	return strconv.FormatFloat(r.WeightedTotal, 'f', 2, 64)
}
