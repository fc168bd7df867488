package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/local/hackeval/internal/ai"
	mpkg "github.com/local/hackeval/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ModelTier selects which model slot a provider is asked to use.
type ModelTier string

const (
	TierPrimary   ModelTier = "primary"
	TierSecondary ModelTier = "secondary"
)

// ProviderModels names the model identifiers a provider exposes for each tier.
type ProviderModels struct {
	Primary   string
	Secondary string
}

// Failover drives the 4-step primary/secondary provider x primary/secondary
// model escalation, gated by a CircuitBreaker and classified by
// isTransientError/isFatalError.
type Failover struct {
	PrimaryProvider   string
	SecondaryProvider string
	Models            map[string]ProviderModels // provider name -> models
	Clients           map[string]ai.Client      // provider name -> client
	Breaker           *CircuitBreaker
}

// Call runs the 4-step failover for a single LLM request, returning the
// provider/model that served it and the raw response text.
func (f *Failover) Call(ctx context.Context, req ai.Request, timeout time.Duration) (provider, model, text string, err error) {
	type attempt struct {
		provider string
		tier     ModelTier
	}
	attempts := []attempt{
		{f.PrimaryProvider, TierPrimary},
		{f.PrimaryProvider, TierSecondary},
		{f.SecondaryProvider, TierPrimary},
		{f.SecondaryProvider, TierSecondary},
	}

	var lastErr error
	seenModels := map[string]bool{}

	for i, a := range attempts {
		models, ok := f.Models[a.provider]
		if !ok {
			continue
		}
		m := models.Primary
		if a.tier == TierSecondary {
			m = models.Secondary
		}
		if m == "" || seenModels[a.provider+":"+m] {
			continue
		}
		seenModels[a.provider+":"+m] = true

		if f.Breaker != nil && f.Breaker.IsCircuitOpen(ctx, a.provider, m) {
			log.Debug().Str("provider", a.provider).Str("model", m).Msg("circuit breaker OPEN - skipping attempt")
			continue
		}

		client, ok := f.Clients[a.provider]
		if !ok {
			continue
		}

		log.Info().Int("attempt", i+1).Str("provider", a.provider).Str("model", m).Msg("attempting LLM call")

		resp, callErr := f.callOne(ctx, client, req, a.provider, m, timeout)
		if callErr == nil {
			if f.Breaker != nil {
				f.Breaker.CloseCircuitBreaker(ctx, a.provider, m)
				mpkg.BreakerClosed(a.provider, m)
			}
			return a.provider, m, resp.Text, nil
		}

		lastErr = callErr
		if isFatalError(callErr) {
			return "", "", "", callErr
		}
		if isTransientError(callErr) && f.Breaker != nil {
			f.Breaker.OpenCircuitBreaker(ctx, a.provider, m)
			mpkg.BreakerOpened(a.provider, m)
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no providers configured for failover")
	}
	mpkg.ObserveProvider("all", "all", "exhausted", 0)
	return "", "", "", lastErr
}

func (f *Failover) callOne(ctx context.Context, client ai.Client, req ai.Request, provider, model string, timeout time.Duration) (ai.Response, error) {
	req.Model = model

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := client.Do(cctx, req)
	dur := time.Since(start)

	if err != nil && cctx.Err() == context.DeadlineExceeded {
		mpkg.ObserveProvider(provider, model, "timeout", dur)
		log.Warn().Str("provider", provider).Str("model", model).Dur("timeout", timeout).Msg("LLM request timeout")
		return ai.Response{}, &RateLimitError{Provider: provider, Model: model, Reason: "timeout"}
	}

	result := "success"
	if err != nil {
		switch {
		case ai.IsContentRefused(err):
			result = "content_refused"
			mpkg.IncRefusal(provider, model)
		case ai.IsRateLimited(err):
			result = "rate_limited"
		case isTransientError(err):
			result = "transient"
		case isFatalError(err):
			result = "fatal"
		default:
			result = "unknown"
		}
	}
	mpkg.ObserveProvider(provider, model, result, dur)

	if err != nil {
		log.Warn().Str("provider", provider).Str("model", model).Str("result", result).Err(err).Msg("LLM provider call failed")
	}

	return resp, err
}
