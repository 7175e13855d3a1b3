package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GeneratedTokensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ggufchat_generated_tokens_total",
		Help: "Total number of completion tokens generated",
	})

	GenerationDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "ggufchat_generation_duration_seconds",
		Help: "Wall time of full generations",
	})

	TimeToFirstToken = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ggufchat_ttft_seconds",
		Help:    "Time from request start to first streamed token",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	TokensPerSecond = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ggufchat_tokens_per_second",
		Help:    "Steady-state generation throughput per request",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 50, 100, 200},
	})

	ContextLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ggufchat_context_length_tokens",
		Help:    "Distribution of prompt context lengths",
		Buckets: []float64{100, 500, 1000, 2000, 4000, 8000, 16000, 32000},
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ggufchat_http_requests_total",
		Help: "HTTP requests served, by path and status",
	}, []string{"path", "status"})
)

// Observe records a completed generation into the aggregate series.
func Observe(r Report) {
	GeneratedTokensTotal.Add(float64(r.CompletionTokens))
	GenerationDuration.Observe(r.WallTimeSeconds)
	ContextLength.Observe(float64(r.PromptTokens))
	if r.TTFTMillis >= 0 {
		TimeToFirstToken.Observe(r.TTFTMillis / 1000)
	}
	if r.TokensPerSecond > 0 {
		TokensPerSecond.Observe(r.TokensPerSecond)
	}
}
