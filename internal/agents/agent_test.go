package agents

import (
	"context"
	"testing"
	"time"

	"github.com/local/hackeval/internal/ai"
	"github.com/local/hackeval/internal/dispatcher"
)

// fakeClient returns a canned response, optionally failing the first N calls
// with a retryable error to exercise the backoff/retry contract.
type fakeClient struct {
	name       string
	failTimes  int
	calls      int
	response   string
	lastTopP   *float64
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) Do(ctx context.Context, req ai.Request) (ai.Response, error) {
	f.calls++
	f.lastTopP = req.TopP
	if f.calls <= f.failTimes {
		return ai.Response{}, &dispatcher.RateLimitError{Provider: f.name, Model: req.Model, Reason: "test"}
	}
	return ai.Response{Text: f.response}, nil
}

func newFailover(client *fakeClient) *dispatcher.Failover {
	return &dispatcher.Failover{
		PrimaryProvider: "openai",
		Models:          map[string]dispatcher.ProviderModels{"openai": {Primary: "gpt-test", Secondary: "gpt-test-2"}},
		Clients:         map[string]ai.Client{"openai": client},
	}
}

func TestScoreParsesValidResponse(t *testing.T) {
	client := &fakeClient{name: "openai", response: `{"team_name":"Alpha","scores":{"Problem Understanding":7},"summary":"ok"}`}
	cfg := &Config{Failover: newFailover(client), Timeout: time.Second}

	got, err := cfg.Score(context.Background(), "deck text", "evidence")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.TeamName != "Alpha" || got.Scores["Problem Understanding"] != 7 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCallRetriesOnMalformedJSONThenFails(t *testing.T) {
	client := &fakeClient{name: "openai", response: "not json at all"}
	cfg := &Config{Failover: newFailover(client), Timeout: time.Second, MaxRetries: 2}

	var out ScoringResult
	err := cfg.call(context.Background(), "prompt", 0.0, 0.0, &out)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	// the primary model answers every round (with unparseable text), so the
	// failover makes one call per round, and MaxRetries=2 gives 3 rounds
	if client.calls != 3 {
		t.Fatalf("calls = %d, want 3", client.calls)
	}
}

func TestFeedbackUsesTopP01(t *testing.T) {
	client := &fakeClient{name: "openai", response: `{"positive":["good"],"criticism":[],"technical":[],"suggestions":[]}`}
	cfg := &Config{Failover: newFailover(client), Timeout: time.Second}

	got, err := cfg.Feedback(context.Background(), "text", "evidence", "summary", nil)
	if err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(got.Positive) != 1 || got.Positive[0] != "good" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if client.lastTopP == nil || *client.lastTopP != 0.1 {
		t.Fatalf("top_p = %v, want 0.1", client.lastTopP)
	}
}

func TestCombinedParsesNestedFeedback(t *testing.T) {
	client := &fakeClient{name: "openai", response: `{"team_name":"Beta","scores":{"Team Readiness":5},"summary":"s","feedback":{"positive":["p"],"criticism":["c"],"technical":["t"],"suggestions":["s"]}}`}
	cfg := &Config{Failover: newFailover(client), Timeout: time.Second}

	got, err := cfg.Combined(context.Background(), "text", "evidence")
	if err != nil {
		t.Fatalf("Combined: %v", err)
	}
	if got.TeamName != "Beta" || got.Feedback.Criticism[0] != "c" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
