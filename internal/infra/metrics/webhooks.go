package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		webhookRequestsTotal,
		webhookLatencyMs,
	)
}

var (
	webhookRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_requests_total",
			Help: "Gateway webhook calls by gateway, method and wire-level outcome code.",
		},
		[]string{"gateway", "method", "code"},
	)

	webhookLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_latency_ms",
			Help:    "Webhook handling latency distribution in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
		},
		[]string{"gateway", "method"},
	)
)

func IncWebhookRequest(gateway, method string, code int) {
	webhookRequestsTotal.WithLabelValues(norm(gateway), norm(method), strconv.Itoa(code)).Inc()
}

func ObserveWebhookLatency(gateway, method string, latencyMs int64) {
	webhookLatencyMs.WithLabelValues(norm(gateway), norm(method)).Observe(float64(latencyMs))
}
