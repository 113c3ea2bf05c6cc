package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec
	aiTokensTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors. The surface label
// separates recruiter traffic from the public candidate flow.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentgate",
			Name:      "http_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"surface", "method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "talentgate",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"surface", "method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentgate",
			Name:      "http_errors_total",
			Help:      "Total number of error responses.",
		}, []string{"surface", "method", "route", "status"})

		aiTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talentgate",
			Name:      "ai_grading_tokens_total",
			Help:      "Tokens consumed by AI grading calls, per model.",
		}, []string{"model"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, httpErrorsTotal, aiTokensTotal)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AIGradingTokens exposes the per-model token counter.
func AIGradingTokens() *prometheus.CounterVec {
	RegisterMetrics()
	return aiTokensTotal
}
