package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/hackeval/internal/ai"
	"github.com/local/hackeval/internal/dispatcher"
	"github.com/local/hackeval/internal/jsonextract"
	"github.com/local/hackeval/internal/limiter"
	"github.com/local/hackeval/internal/metrics"
)

// Config wires the agents to the shared failover/rate-limiting stack. Zero
// MaxRetries/Timeout fall back to the spec defaults (2 retries, 90s).
type Config struct {
	Failover    *dispatcher.Failover
	TextLimiter *limiter.RPMLimiter
	Timeout     time.Duration
	MaxRetries  int
	Seed        string
}

func (c *Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 90 * time.Second
}

func (c *Config) maxRetries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return 2
}

// WorkflowAnalysis mirrors the visual analyzer's overall-summary field as
// echoed back by the scoring/combined agent.
type WorkflowAnalysis struct {
	Overall string `json:"overall"`
}

// ScoringResult is the Scoring Agent's output (§4.3.a).
type ScoringResult struct {
	TeamName         string            `json:"team_name"`
	Scores           map[string]int    `json:"scores"`
	Summary          string            `json:"summary"`
	WorkflowAnalysis *WorkflowAnalysis `json:"workflow_analysis,omitempty"`
}

// FeedbackResult is the Feedback Agent's output (§4.3.a).
type FeedbackResult struct {
	Positive    []string `json:"positive"`
	Criticism   []string `json:"criticism"`
	Technical   []string `json:"technical"`
	Suggestions []string `json:"suggestions"`
}

// CombinedResult is the Combined Agent's output (§4.3.b).
type CombinedResult struct {
	TeamName         string            `json:"team_name"`
	Scores           map[string]int    `json:"scores"`
	Summary          string            `json:"summary"`
	WorkflowAnalysis *WorkflowAnalysis `json:"workflow_analysis,omitempty"`
	Feedback         FeedbackResult    `json:"feedback"`
}

// Score invokes the Scoring Agent over deck text and condensed diagram
// evidence, with temperature 0.0 / top_p 0.0 for near-deterministic output.
func (c *Config) Score(ctx context.Context, rawText, evidenceText string) (ScoringResult, error) {
	var out ScoringResult
	err := c.call(ctx, scoringPrompt(rawText, evidenceText), 0.0, 0.0, &out)
	return out, err
}

// Feedback invokes the Feedback Agent, given the prior scoring summary and
// scores, at top_p 0.1 per the rubric contract.
func (c *Config) Feedback(ctx context.Context, rawText, evidenceText, summary string, scores map[string]int) (FeedbackResult, error) {
	var out FeedbackResult
	err := c.call(ctx, feedbackPrompt(rawText, evidenceText, summary, scores), 0.0, 0.1, &out)
	return out, err
}

// Combined invokes the single combined scoring+feedback agent (§4.3.b),
// selected when USE_COMBINED is set to halve the LLM call count per team.
func (c *Config) Combined(ctx context.Context, rawText, evidenceText string) (CombinedResult, error) {
	var out CombinedResult
	err := c.call(ctx, combinedPrompt(rawText, evidenceText), 0.0, 0.0, &out)
	return out, err
}

// call implements the shared LLM invocation contract (§4.3): rate limiter
// acquire, per-call timeout, fence-stripped balanced-brace JSON extraction,
// schema parse, and exponential backoff retry (1.5 * 2^attempt seconds) on
// any failure up to maxRetries, never raising past the caller.
func (c *Config) call(ctx context.Context, prompt string, temperature, topP float64, out any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries(); attempt++ {
		if c.TextLimiter != nil {
			c.TextLimiter.Wait(ctx)
		}

		req := ai.Request{
			UserPrompt:  prompt,
			Temperature: &temperature,
			TopP:        &topP,
			Seed:        c.Seed,
		}

		_, model, text, err := c.Failover.Call(ctx, req, c.timeout())
		if err == nil {
			jsonText, jerr := jsonextract.Extract(text)
			if jerr == nil {
				if uerr := json.Unmarshal([]byte(jsonText), out); uerr == nil {
					return nil
				} else {
					err = fmt.Errorf("parse agent response: %w", uerr)
				}
			} else {
				err = fmt.Errorf("extract agent response: %w", jerr)
			}
		}

		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt+1).Str("model", model).Msg("agent call failed")

		if attempt == c.maxRetries() {
			break
		}
		metrics.IncAgentRetry()
		backoff := time.Duration(1.5*math.Pow(2, float64(attempt))*1000) * time.Millisecond
		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return fmt.Errorf("agent call exhausted retries: %w", lastErr)
}
