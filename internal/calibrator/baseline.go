package calibrator

import (
	"regexp"
	"strings"
)

// keywordSets maps each rubric key to the text keywords that earn it a +1
// baseline bump when present anywhere in the deck text.
var keywordSets = map[string][]string{
	KeyProblemUnderstanding:   {"problem", "pain point", "challenge", "user need", "market gap", "customer"},
	KeyInnovation:             {"novel", "unique", "patent", "state-of-the-art", "sota", "first"},
	KeyTechnicalFeasibility:   {"architecture", "algorithm", "api", "database", "model", "pipeline", "stack"},
	KeyImplementationApproach: {"implementation", "built", "developed", "integrate", "deploy", "prototype"},
	KeyTeamReadiness:          {"team", "roadmap", "timeline", "experience", "background", "plan"},
	KeyPotentialImpact:        {"impact", "scale", "revenue", "market size", "users", "growth", "adoption"},
}

// innovationBoostKeywords independently boosts Innovation & Uniqueness,
// mirrored from keywordSets[KeyInnovation] but named per the fusion rule
// that references it as its own standalone check.
var innovationBoostKeywords = keywordSets[KeyInnovation]

// extraEvidenceKeywords gates the fusion-rule-3 subtraction: their absence
// signals a deck that never engages with depth topics like privacy/cost/risk.
var extraEvidenceKeywords = []string{
	"baseline", "privacy", "security", "gdpr", "hipaa",
	"cost", "budget", "infra", "cloud", "risk", "mitigation",
}

// technicalTerms is the fixed vocabulary used to compute technical_density:
// the fraction of tokens that are technical jargon.
var technicalTerms = map[string]bool{
	"algorithm": true, "architecture": true, "api": true, "database": true,
	"model": true, "neural": true, "pipeline": true, "infrastructure": true,
	"latency": true, "throughput": true, "scalability": true, "microservice": true,
	"microservices": true, "kubernetes": true, "docker": true, "cloud": true,
	"ml": true, "ai": true, "llm": true, "backend": true, "frontend": true,
	"framework": true, "deployment": true, "inference": true, "training": true,
}

var tokenRE = regexp.MustCompile(`[A-Za-z][A-Za-z0-9\-]*`)
var numericRE = regexp.MustCompile(`\d+(\.\d+)?%?`)

// Baseline is the deterministic text-derived metrics and per-key scores
// computed independent of any LLM call.
type Baseline struct {
	WordCount         int
	NumericCount      int
	TechnicalDensity  float64
	Scores            Scores
}

// ComputeBaseline derives a heuristic Score Vector plus the raw metrics from
// deck text alone. imageCount is the count of surviving (non-decorative)
// evidence images, used for the Technical Feasibility / Implementation
// Approach image boost.
func ComputeBaseline(text string, imageCount int) Baseline {
	tokens := tokenRE.FindAllString(text, -1)
	wordCount := len(tokens)
	numericCount := len(numericRE.FindAllString(text, -1))

	technicalCount := 0
	for _, tok := range tokens {
		if technicalTerms[strings.ToLower(tok)] {
			technicalCount++
		}
	}
	density := 0.0
	if wordCount > 0 {
		density = float64(technicalCount) / float64(wordCount)
	}

	base := 3
	switch {
	case wordCount >= 400:
		base = 6
	case wordCount >= 200:
		base = 5
	case wordCount >= 100:
		base = 4
	}
	if density < 0.01 && wordCount > 150 {
		base--
	}

	lower := strings.ToLower(text)

	scores := make(Scores, len(RubricKeys))
	for _, key := range RubricKeys {
		v := base
		for _, kw := range keywordSets[key] {
			if strings.Contains(lower, kw) {
				v++
				break
			}
		}
		scores[key] = v
	}

	if numericCount >= 2 {
		scores[KeyTechnicalFeasibility]++
		scores[KeyPotentialImpact]++
	}
	if imageCount > 0 {
		scores[KeyTechnicalFeasibility]++
		scores[KeyImplementationApproach]++
	}
	for _, kw := range innovationBoostKeywords {
		if strings.Contains(lower, kw) {
			scores[KeyInnovation]++
			break
		}
	}

	for key, v := range scores {
		scores[key] = clamp(v, 3, 8)
	}

	return Baseline{
		WordCount:        wordCount,
		NumericCount:     numericCount,
		TechnicalDensity: density,
		Scores:           scores,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func hasAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
