package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		documentsProcessedTotal,
		engineCallsLatencyMs,
		engineFallbackTotal,
		engineTokensIn,
		engineTokensOut,
		engineCostUSD,
	)
}

var (
	documentsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_processed_total",
			Help: "Documents processed by workers, labeled by outcome.",
		},
		[]string{"outcome"}, // 'success', 'failed'
	)

	engineCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engine_calls_latency_ms",
			Help:    "Analysis engine call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000},
		},
		[]string{"provider", "success"},
	)

	engineFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_fallback_total",
			Help: "Documents scored by the heuristic fallback instead of the engine.",
		},
	)

	engineTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_tokens_in",
			Help: "Sum of input tokens per model.",
		},
		[]string{"model"},
	)

	engineTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_tokens_out",
			Help: "Sum of output tokens per model.",
		},
		[]string{"model"},
	)

	engineCostUSD = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_cost_usd",
			Help: "Derived engine cost in USD per model.",
		},
		[]string{"model"},
	)
)

func IncDocumentProcessed(outcome string) {
	documentsProcessedTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveEngineCall(provider string, latencyMs int, success bool) {
	engineCallsLatencyMs.WithLabelValues(norm(provider), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncEngineFallback() { engineFallbackTotal.Inc() }

func ObserveEngineUsage(model string, tokensIn, tokensOut int, costUSD float64) {
	engineTokensIn.WithLabelValues(norm(model)).Add(float64(tokensIn))
	engineTokensOut.WithLabelValues(norm(model)).Add(float64(tokensOut))
	engineCostUSD.WithLabelValues(norm(model)).Add(costUSD)
}
