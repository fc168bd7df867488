package orchestrator

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sort"
	"strings"

	"github.com/local/hackeval/internal/calibrator"
)

// stableJitter is a deterministic, SHA-256-derived float in [0, 0.009] used
// only to break ties among otherwise-identical score vectors, so repeated
// runs over the same input order the leaderboard identically without ever
// depending on goroutine completion order.
func stableJitter(name string) float64 {
	h := sha256.Sum256([]byte(strings.ToLower(name)))
	v := binary.BigEndian.Uint64(h[:8])
	return float64(v) / float64(math.MaxUint64) * 0.009
}

// tieBreakKeys is the priority order used after WeightedTotal when breaking
// ties between two contexts' score vectors.
var tieBreakKeys = []string{
	calibrator.KeyInnovation,
	calibrator.KeyTechnicalFeasibility,
	calibrator.KeyPotentialImpact,
	calibrator.KeyProblemUnderstanding,
	calibrator.KeyImplementationApproach,
	calibrator.KeyTeamReadiness,
}

// less implements the leaderboard ordering: non-errored contexts first (by
// WeightedTotal descending, then the tie-break key tuple, then descending
// stable jitter, then ascending lower-cased name); errored contexts sort
// last, among themselves by ascending lower-cased name.
func less(a, b TeamResult) bool {
	if a.HasError() != b.HasError() {
		return !a.HasError()
	}
	if a.HasError() && b.HasError() {
		return strings.ToLower(a.TeamName) < strings.ToLower(b.TeamName)
	}

	if a.WeightedTotal != b.WeightedTotal {
		return a.WeightedTotal > b.WeightedTotal
	}

	for _, key := range tieBreakKeys {
		if a.Scores[key] != b.Scores[key] {
			return a.Scores[key] > b.Scores[key]
		}
	}

	ja, jb := stableJitter(a.TeamName), stableJitter(b.TeamName)
	if ja != jb {
		return ja > jb
	}

	return strings.ToLower(a.TeamName) < strings.ToLower(b.TeamName)
}

// SortLeaderboard sorts results in place per the tie-break key (§8 property 12).
func SortLeaderboard(results []TeamResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return less(results[i], results[j])
	})
}
