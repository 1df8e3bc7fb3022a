package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PaymentsConfirmed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lexfirma", Name: "payments_confirmed_total", Help: "Number of documents marked paid, by confirmation channel."},
		[]string{"channel"},
	)
	PaymentConflictsAbsorbed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lexfirma", Name: "payment_conflicts_absorbed_total", Help: "Number of lost paid-write races absorbed as benign, by channel."},
		[]string{"channel"},
	)
	PaymentPollAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "lexfirma", Name: "payment_poll_attempts_total", Help: "Number of gateway status lookups issued by the polling channel."},
	)
	PaymentPollExhausted = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "lexfirma", Name: "payment_poll_windows_exhausted_total", Help: "Number of polling windows that ended without approval."},
	)
	ArtifactDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lexfirma", Name: "artifact_deliveries_total", Help: "Number of artifact delivery attempts by outcome."},
		[]string{"outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lexfirma", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "lexfirma", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(PaymentsConfirmed)
	reg.MustRegister(PaymentConflictsAbsorbed)
	reg.MustRegister(PaymentPollAttempts)
	reg.MustRegister(PaymentPollExhausted)
	reg.MustRegister(ArtifactDeliveries)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
