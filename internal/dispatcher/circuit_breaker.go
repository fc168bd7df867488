package dispatcher

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// CircuitBreaker tracks open/half-open/closed state per provider:model pair
// across a batch run. When a Redis client is supplied, state survives process
// restarts; otherwise it falls back to an in-process map so a single laptop
// run never requires standing up Redis.
type CircuitBreaker struct {
	redis       *redis.Client
	baseBackoff time.Duration
	maxBackoff  time.Duration

	mu    sync.Mutex
	local map[string]*breakerState
}

type breakerState struct {
	state    string // "open" | "half_open" | "closed"
	failures int
	retryAt  time.Time
}

// NewCircuitBreaker creates a circuit breaker. redisClient may be nil.
func NewCircuitBreaker(redisClient *redis.Client, baseBackoff, maxBackoff time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		redis:       redisClient,
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
		local:       make(map[string]*breakerState),
	}
}

func backoffForFailures(base, max time.Duration, failures int) time.Duration {
	backoff := base
	for i := 1; i < failures; i++ {
		backoff *= 2
		if backoff > max {
			return max
		}
	}
	return backoff
}

// OpenCircuitBreaker opens the circuit breaker for a provider:model combination.
func (cb *CircuitBreaker) OpenCircuitBreaker(ctx context.Context, provider, model string) {
	if cb.redis == nil {
		cb.openLocal(provider, model)
		return
	}

	key := fmt.Sprintf("cb:%s:%s", provider, model)

	failuresStr, _ := cb.redis.HGet(ctx, key, "failures").Result()
	failures, _ := strconv.Atoi(failuresStr)
	failures++

	backoff := backoffForFailures(cb.baseBackoff, cb.maxBackoff, failures)
	retryAt := time.Now().Add(backoff).Unix()
	openedAt := time.Now().Unix()

	cb.redis.HSet(ctx, key, map[string]interface{}{
		"state":     "open",
		"retry_at":  retryAt,
		"failures":  failures,
		"opened_at": openedAt,
	})
	cb.redis.Expire(ctx, key, 10*time.Minute)

	log.Warn().
		Str("provider", provider).
		Str("model", model).
		Dur("cooldown", backoff).
		Int("failures", failures).
		Time("retry_at", time.Unix(retryAt, 0)).
		Msg("circuit breaker OPENED")
}

func (cb *CircuitBreaker) openLocal(provider, model string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	key := provider + ":" + model
	st, ok := cb.local[key]
	if !ok {
		st = &breakerState{}
		cb.local[key] = st
	}
	st.failures++
	backoff := backoffForFailures(cb.baseBackoff, cb.maxBackoff, st.failures)
	st.state = "open"
	st.retryAt = time.Now().Add(backoff)

	log.Warn().
		Str("provider", provider).
		Str("model", model).
		Dur("cooldown", backoff).
		Int("failures", st.failures).
		Msg("circuit breaker OPENED (in-process)")
}

// IsCircuitOpen checks if circuit breaker is open for a provider:model.
func (cb *CircuitBreaker) IsCircuitOpen(ctx context.Context, provider, model string) bool {
	if cb.redis == nil {
		return cb.isOpenLocal(provider, model)
	}

	key := fmt.Sprintf("cb:%s:%s", provider, model)

	state, err := cb.redis.HGet(ctx, key, "state").Result()
	if err != nil || state == "" {
		return false
	}
	if state != "open" {
		return false
	}

	retryAtStr, _ := cb.redis.HGet(ctx, key, "retry_at").Result()
	retryAt, _ := strconv.ParseInt(retryAtStr, 10, 64)

	if time.Now().Unix() >= retryAt {
		cb.redis.HSet(ctx, key, "state", "half_open")
		log.Info().Str("provider", provider).Str("model", model).Msg("circuit breaker moved to HALF-OPEN")
		return false
	}

	return true
}

func (cb *CircuitBreaker) isOpenLocal(provider, model string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	key := provider + ":" + model
	st, ok := cb.local[key]
	if !ok || st.state != "open" {
		return false
	}

	if time.Now().After(st.retryAt) {
		st.state = "half_open"
		log.Info().Str("provider", provider).Str("model", model).Msg("circuit breaker moved to HALF-OPEN (in-process)")
		return false
	}

	return true
}

// CloseCircuitBreaker closes (resets) the circuit breaker on success.
func (cb *CircuitBreaker) CloseCircuitBreaker(ctx context.Context, provider, model string) {
	if cb.redis == nil {
		cb.mu.Lock()
		delete(cb.local, provider+":"+model)
		cb.mu.Unlock()
		return
	}

	key := fmt.Sprintf("cb:%s:%s", provider, model)

	state, _ := cb.redis.HGet(ctx, key, "state").Result()
	if state == "" || state == "closed" {
		return
	}

	cb.redis.Del(ctx, key)
	log.Info().Str("provider", provider).Str("model", model).Msg("circuit breaker CLOSED (reset)")
}
