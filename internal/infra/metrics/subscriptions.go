package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsGrantedTotal,
		subscriptionsExpiredTotal,
		grantFailuresTotal,
	)
}

var (
	subscriptionsGrantedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_granted_total",
			Help: "Total number of plan grants performed after a settled payment.",
		},
	)

	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Total number of subscriptions processed by the expiry worker.",
		},
	)

	grantFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_grant_failures_total",
			Help: "Grants that failed after a payment was already settled.",
		},
		[]string{"gateway"},
	)
)

func IncSubscriptionsGranted() {
	subscriptionsGrantedTotal.Inc()
}

func IncSubscriptionsExpired(count int) {
	subscriptionsExpiredTotal.Add(float64(count))
}

func IncGrantFailure(gateway string) {
	grantFailuresTotal.WithLabelValues(norm(gateway)).Inc()
}
