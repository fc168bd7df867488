package calibrator

import "testing"

func TestFuseEmptyDeckFallsBackToBaseline(t *testing.T) {
	res := Fuse(Scores{}, "", 0)
	for _, key := range RubricKeys {
		if res.Scores[key] != 3 {
			t.Errorf("key %s = %d, want 3", key, res.Scores[key])
		}
	}
	if res.WeightedTotal != 30.00 {
		t.Errorf("weighted_total = %v, want 30.00", res.WeightedTotal)
	}
	if res.RawTotal != 18 {
		t.Errorf("raw_total = %d, want 18", res.RawTotal)
	}
}

func TestFuseSingleWordDeck(t *testing.T) {
	res := Fuse(Scores{}, "Hello", 0)
	for _, key := range RubricKeys {
		if res.Scores[key] != 3 {
			t.Errorf("key %s = %d, want 3", key, res.Scores[key])
		}
	}
	if res.WeightedTotal != 30.00 {
		t.Errorf("weighted_total = %v, want 30.00", res.WeightedTotal)
	}
}

func TestFuseTechnicalDeckBoostsFeasibilityAndImpact(t *testing.T) {
	text := buildWordyText(200, "architecture API dataset latency baseline privacy 10 20")
	res := Fuse(Scores{}, text, 0)
	if res.Scores[KeyTechnicalFeasibility] < 6 {
		t.Errorf("Technical Feasibility = %d, want >= 6", res.Scores[KeyTechnicalFeasibility])
	}
	if res.Scores[KeyPotentialImpact] < 5 {
		t.Errorf("Potential Impact = %d, want >= 5", res.Scores[KeyPotentialImpact])
	}
	for _, key := range RubricKeys {
		if res.Scores[key] >= 10 {
			t.Errorf("key %s = %d, no baseline-only key should reach 10", key, res.Scores[key])
		}
	}
}

func TestFuseAntiUniformTenKeepsOnlyOne(t *testing.T) {
	all10 := Scores{}
	for _, key := range RubricKeys {
		all10[key] = 10
	}
	text := buildWordyText(400, "")
	res := Fuse(all10, text, 0)

	tens := 0
	for _, key := range RubricKeys {
		if res.Scores[key] == 10 {
			tens++
		}
	}
	if tens > 1 {
		t.Errorf("expected at most one rubric value of 10, got %d", tens)
	}
}

func TestFuseWordCountUnder150Caps9(t *testing.T) {
	all10 := Scores{}
	for _, key := range RubricKeys {
		all10[key] = 10
	}
	res := Fuse(all10, buildWordyText(50, ""), 0)
	for _, key := range RubricKeys {
		if res.Scores[key] > 9 {
			t.Errorf("key %s = %d, want <= 9 under word_count<150", key, res.Scores[key])
		}
	}
}

func TestFuseAntiFlatDemotesWhenAllIdentical(t *testing.T) {
	same := Scores{}
	for _, key := range RubricKeys {
		same[key] = 5
	}
	// Include an extra-evidence keyword and enough technical density that
	// rules 3 and 5 don't perturb the scores before anti-flat (rule 8) runs.
	text := buildWordyText(300, "privacy algorithm architecture api model pipeline")
	res := Fuse(same, text, 0)
	if res.Scores[KeyTeamReadiness] >= 5 {
		t.Errorf("Team Readiness = %d, want demoted below 5 after anti-flat", res.Scores[KeyTeamReadiness])
	}
}

func buildWordyText(n int, extra string) string {
	text := ""
	for i := 0; i < n; i++ {
		text += "word "
	}
	return text + extra
}
