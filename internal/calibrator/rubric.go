// Package calibrator fuses raw LLM rubric scores with a deterministic
// text-derived baseline, applying anti-inflation caps so a run's scores
// stay reproducible even when the model output is noisy.
package calibrator

// Rubric keys, in the canonical order used wherever a Score Vector is
// iterated (Excel column order, console table order). Anti-uniform-10
// demotion uses its own order, antiUniformPriority below.
const (
	KeyProblemUnderstanding   = "Problem Understanding"
	KeyInnovation             = "Innovation & Uniqueness"
	KeyTechnicalFeasibility   = "Technical Feasibility"
	KeyImplementationApproach = "Implementation Approach"
	KeyTeamReadiness          = "Team Readiness"
	KeyPotentialImpact        = "Potential Impact"
)

// RubricKeys is the fixed six-key order.
var RubricKeys = []string{
	KeyProblemUnderstanding,
	KeyInnovation,
	KeyTechnicalFeasibility,
	KeyImplementationApproach,
	KeyTeamReadiness,
	KeyPotentialImpact,
}

// Weights sum to 100; used for weighted_total.
var Weights = map[string]float64{
	KeyProblemUnderstanding:   15,
	KeyInnovation:             20,
	KeyTechnicalFeasibility:   20,
	KeyImplementationApproach: 15,
	KeyTeamReadiness:          15,
	KeyPotentialImpact:        15,
}

// antiUniformPriority is the order in which a criterion is allowed to keep
// a rounded value of 10 when more than one does; all others are demoted to 9.
var antiUniformPriority = []string{
	KeyInnovation,
	KeyTechnicalFeasibility,
	KeyPotentialImpact,
	KeyProblemUnderstanding,
	KeyImplementationApproach,
	KeyTeamReadiness,
}

// Scores is a Score Vector: every rubric key mapped to an integer in [1,10].
type Scores map[string]int

// Clone returns a shallow copy.
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
