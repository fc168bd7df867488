package calibrator

import (
	"math"
	"strings"
)

// Result is a fully calibrated Score Vector plus its totals.
type Result struct {
	Scores         Scores
	RawTotal       int
	WeightedTotal  float64
}

// Fuse applies the nine fusion rules, in order, to combine modelScores with
// the deterministic text baseline. rawText and imageCount are the same
// inputs used to compute the baseline; diagramEvidenceCount (not the raw
// embedded-image count) governs the image-based boosts.
func Fuse(modelScores Scores, rawText string, diagramEvidenceCount int) Result {
	baseline := ComputeBaseline(rawText, diagramEvidenceCount)
	lower := strings.ToLower(rawText)

	scores := make(Scores, len(RubricKeys))

	// 1. Replace any missing/invalid model value with the baseline.
	for _, key := range RubricKeys {
		v, ok := modelScores[key]
		if !ok || v < 1 || v > 10 {
			v = baseline.Scores[key]
		}
		scores[key] = v
	}

	// 2. Global cap.
	cap := 10
	if baseline.WordCount < 150 {
		cap = 9
	}
	for _, key := range RubricKeys {
		if scores[key] > cap {
			scores[key] = cap
		}
	}

	// 3. Extra-evidence subtraction.
	if !hasAny(lower, extraEvidenceKeywords) {
		scores[KeyTechnicalFeasibility] = maxInt(scores[KeyTechnicalFeasibility]-1, 3)
		scores[KeyPotentialImpact] = maxInt(scores[KeyPotentialImpact]-1, 3)
	}

	// 4. Numeric boost.
	if baseline.NumericCount >= 5 {
		scores[KeyPotentialImpact] = minInt(scores[KeyPotentialImpact]+1, 10)
		scores[KeyTechnicalFeasibility] = minInt(scores[KeyTechnicalFeasibility]+1, 10)
	}

	// 5. Technical-density penalty.
	if baseline.TechnicalDensity < 0.01 && baseline.WordCount > 150 {
		scores[KeyTechnicalFeasibility] = maxInt(scores[KeyTechnicalFeasibility]-1, 3)
		scores[KeyImplementationApproach] = maxInt(scores[KeyImplementationApproach]-1, 3)
	}

	// 6. Floor at 3 when there's enough substance.
	if baseline.WordCount >= 120 || diagramEvidenceCount > 0 {
		for _, key := range RubricKeys {
			scores[key] = maxInt(scores[key], 3)
		}
	}

	// 7. Anti-uniform-10: at most one criterion may round to >=10.
	tensAt := map[string]bool{}
	for _, key := range RubricKeys {
		if roundScore(scores[key]) >= 10 {
			tensAt[key] = true
		}
	}
	if len(tensAt) > 1 {
		kept := false
		for _, key := range antiUniformPriority {
			if tensAt[key] {
				if kept {
					scores[key] = 9
				} else {
					kept = true
				}
			}
		}
	}

	// 8. Anti-flat: all rounded values identical.
	allSame := true
	first := roundScore(scores[RubricKeys[0]])
	for _, key := range RubricKeys[1:] {
		if roundScore(scores[key]) != first {
			allSame = false
			break
		}
	}
	if allSame {
		scores[KeyTeamReadiness] = maxInt(scores[KeyTeamReadiness]-1, 3)
		scores[KeyImplementationApproach] = maxInt(scores[KeyImplementationApproach]-1, 3)
		scores[KeyProblemUnderstanding] = maxInt(scores[KeyProblemUnderstanding]-1, 3)
	}

	// 9. Final round + clamp.
	final := make(Scores, len(RubricKeys))
	rawTotal := 0
	weighted := 0.0
	for _, key := range RubricKeys {
		v := clamp(roundScore(scores[key]), 1, 10)
		final[key] = v
		rawTotal += v
		weighted += float64(v) / 10 * Weights[key]
	}
	weighted = math.Round(weighted*100) / 100

	return Result{Scores: final, RawTotal: rawTotal, WeightedTotal: weighted}
}

func roundScore(v int) int { return v }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
