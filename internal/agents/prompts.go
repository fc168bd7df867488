// Package agents implements the scoring, feedback, and combined LLM agents
// (C3): rubric-driven JSON verdicts over deck text and condensed diagram
// evidence, invoked through the dispatcher's failover/circuit-breaker stack.
package agents

import (
	"fmt"
	"sort"
	"strings"
)

// StrictRubric is the shared scoring contract injected into the scoring and
// combined agent prompts.
const StrictRubric = `Scoring rubric. Use INTEGER 1-10. Avoid default 10s.

Anchors:
- 10: Exceptional and proven in-deck with clear metrics, full architecture or demo.
- 8: Strong with one notable gap.
- 6: Adequate with multiple gaps; little hard evidence.
- 4: Minimal coverage; mostly claims.
- 2: Not addressed.

Rules:
- Treat diagram evidence equal to text evidence. If text and diagram conflict, prefer the diagram.
- Missing or vague -> 2-4; partial 5-7; low evidence cap 8.
- At most one criterion may be 10; bias downward if uncertain.

Checklist to consider:
problem framing, assumptions, baselines, datasets, metrics/KPIs & eval plan,
architecture & scalability, latency/cost estimates, risks & mitigations,
privacy/compliance, security, deployment plan, adoption path.`

// rubricKeysLine lists the six exact score keys, reused verbatim by the
// scoring and combined prompts so the model's JSON keys match
// calibrator.RubricKeys.
const rubricKeysLine = "Problem Understanding, Innovation & Uniqueness, Technical Feasibility, Implementation Approach, Team Readiness, Potential Impact"

func scoringPrompt(rawText, evidenceText string) string {
	if evidenceText == "" {
		evidenceText = "(no diagrams found)"
	}
	return "You are a strict hackathon judge. Use BOTH sources of evidence with equal weight:\n" +
		"(A) Deck text\n(B) Diagram summary extracted from images (only images classified as diagrams and important)\n\n" +
		StrictRubric + "\n\n" +
		"Diagram Summary (evidence):\n" + evidenceText + "\n\n" +
		"Deck text:\n" + rawText + "\n\n" +
		"Return ONLY a JSON object: {\"team_name\": string, \"scores\": {" + rubricKeysLine + "}, " +
		"\"summary\": string, \"workflow_analysis\": {\"overall\": string}}. " +
		"Score each key as an INTEGER 1-10."
}

func feedbackPrompt(rawText, evidenceText, summary string, scores map[string]int) string {
	if evidenceText == "" {
		evidenceText = "(no diagrams found)"
	}
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	priorScores := make([]string, 0, len(keys))
	for _, k := range keys {
		priorScores = append(priorScores, fmt.Sprintf("%s: %d", k, scores[k]))
	}
	return "You are a mentor giving a hackathon team structured feedback. Use deck text and diagram evidence " +
		"with equal weight, and the prior scores and scoring summary for context.\n\n" +
		"Diagram Summary (evidence):\n" + evidenceText + "\n\n" +
		"Deck text:\n" + rawText + "\n\n" +
		"Prior scores: " + strings.Join(priorScores, ", ") + "\n" +
		"Prior scoring summary: " + summary + "\n\n" +
		"Return ONLY a JSON object: {\"positive\": [string,...], \"criticism\": [string,...], " +
		"\"technical\": [string,...], \"suggestions\": [string,...]}. " +
		"Each list is numbered in prose and references slides/diagrams where possible."
}

func combinedPrompt(rawText, evidenceText string) string {
	if evidenceText == "" {
		evidenceText = "(no diagrams found)"
	}
	return "You are a strict hackathon judge and mentor. Use deck text + diagram summary with equal weight. " +
		"Consider only images that are diagrams and marked critical/supporting as core evidence.\n\n" +
		StrictRubric + "\n\n" +
		"Diagram Summary (evidence):\n" + evidenceText + "\n\n" +
		"Deck text:\n" + rawText + "\n\n" +
		"Return ONLY a JSON object: {\"team_name\": string, \"scores\": {" + rubricKeysLine + "}, " +
		"\"summary\": string, \"workflow_analysis\": {\"overall\": string}, " +
		"\"feedback\": {\"positive\": [string,...], \"criticism\": [string,...], " +
		"\"technical\": [string,...], \"suggestions\": [string,...]}}. " +
		"Score each key as an INTEGER 1-10."
}
