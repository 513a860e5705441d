package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ipg_gateway_requests_total",
		Help: "Total outbound requests to the payment gateway",
	}, []string{
		"path",    // gateway action path
		"outcome", // ok, rejected, server_error, unreachable, invalid_response
	})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ipg_gateway_request_duration_seconds",
		Help:    "Round-trip time of outbound gateway requests",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"path",
		"outcome",
	})

	initiationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_initiations_total",
		Help: "Total payment initiation attempts",
	}, []string{
		"outcome", // redirected, validation_failed, rejected, unreachable
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_notifications_total",
		Help: "Total gateway payment notifications processed",
	}, []string{
		"result",  // CAPTURED, NOT CAPTURED, ...
		"outcome", // applied, duplicate, rejected
	})

	reconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_return_reconciliations_total",
		Help: "Total browser-return reconciliations",
	}, []string{
		"outcome", // captured, declined, cancelled, errored, processing
	})

	staleSessionsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_stale_sessions_cancelled_total",
		Help: "Orders cancelled after waiting too long for a gateway result",
	})
)

// ObserveGatewayRequest records one outbound gateway round trip.
func ObserveGatewayRequest(path, outcome string, d time.Duration) {
	gatewayRequestsTotal.WithLabelValues(path, outcome).Inc()
	gatewayRequestDuration.WithLabelValues(path, outcome).Observe(d.Seconds())
}

// RecordInitiation records a payment initiation attempt.
func RecordInitiation(outcome string) {
	initiationsTotal.WithLabelValues(outcome).Inc()
}

// RecordNotification records a processed gateway notification.
func RecordNotification(result, outcome string) {
	notificationsTotal.WithLabelValues(result, outcome).Inc()
}

// RecordReconciliation records a browser-return reconciliation outcome.
func RecordReconciliation(outcome string) {
	reconciliationsTotal.WithLabelValues(outcome).Inc()
}

// RecordStaleCancellations records orders expired by the stale-session
// sweep.
func RecordStaleCancellations(n int) {
	staleSessionsCancelled.Add(float64(n))
}
