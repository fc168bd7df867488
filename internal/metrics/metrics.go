package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    providerReqs = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "hackeval",
            Name:      "provider_requests_total",
            Help:      "Total LLM provider requests by provider, model and result",
        },
        []string{"provider", "model", "result"},
    )

    providerLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "hackeval",
            Name:      "provider_request_duration_seconds",
            Help:      "Duration of LLM provider requests by provider and model",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"provider", "model"},
    )

    filesEvaluated = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "hackeval",
            Name:      "files_evaluated_total",
            Help:      "Total decks evaluated by result (ok, error)",
        },
        []string{"result"},
    )

    agentRetries = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "hackeval",
            Name:      "agent_retries_total",
            Help:      "Total number of scoring/feedback/combined agent call retries",
        },
    )

    breakerEvents = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "hackeval",
            Name:      "breaker_events_total",
            Help:      "Circuit breaker events by provider, model and action",
        },
        []string{"provider", "model", "action"},
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(providerReqs, providerLatency, filesEvaluated, agentRetries, breakerEvents)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveProvider(provider, model, result string, dur time.Duration) {
    providerReqs.WithLabelValues(provider, model, result).Inc()
    providerLatency.WithLabelValues(provider, model).Observe(dur.Seconds())
}

func BreakerOpened(provider, model string) { breakerEvents.WithLabelValues(provider, model, "opened").Inc() }
func BreakerClosed(provider, model string) { breakerEvents.WithLabelValues(provider, model, "closed").Inc() }

// IncRefusal tracks content refusal events by provider and model.
func IncRefusal(provider, model string) {
    providerReqs.WithLabelValues(provider, model, "content_refused").Inc()
}

// IncFileEvaluated tracks one completed per-deck evaluation by result.
func IncFileEvaluated(result string) { filesEvaluated.WithLabelValues(result).Inc() }

// IncAgentRetry tracks one scoring/feedback/combined agent retry.
func IncAgentRetry() { agentRetries.Inc() }
