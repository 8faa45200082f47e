package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(expirySweepsTotal) }

var expirySweepsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "expiry_sweeps_total",
		Help: "Total number of expiry sweeper runs, labeled by status.",
	},
	[]string{"status"}, // 'completed', 'failed'
)

func IncExpirySweep(status string) {
	expirySweepsTotal.WithLabelValues(norm(status)).Inc()
}
