package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkreserve_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parkreserve_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SpotSelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkreserve_spot_selections_total",
			Help: "Spot selection attempts by outcome",
		},
		[]string{"outcome"},
	)

	ProfileSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkreserve_profile_saves_total",
			Help: "Profile save attempts by outcome",
		},
		[]string{"outcome"},
	)

	SignOutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkreserve_sign_outs_total",
			Help: "Sign-out attempts by outcome",
		},
		[]string{"outcome"},
	)

	ToastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkreserve_toasts_total",
			Help: "Notifications queued for display",
		},
		[]string{"severity"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkreserve_booking_transitions_total",
			Help: "Booking status transitions applied by the sweeper",
		},
		[]string{"to"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parkreserve_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parkreserve_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	WalletTopUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parkreserve_wallet_topups_total",
			Help: "Total number of wallet top-ups",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSpotSelection(outcome string) {
	SpotSelectionsTotal.WithLabelValues(outcome).Inc()
}

func RecordProfileSave(outcome string) {
	ProfileSavesTotal.WithLabelValues(outcome).Inc()
}

func RecordSignOut(outcome string) {
	SignOutsTotal.WithLabelValues(outcome).Inc()
}

func RecordToast(severity string) {
	ToastsTotal.WithLabelValues(severity).Inc()
}

func RecordBookingTransitions(to string, n int) {
	BookingTransitionsTotal.WithLabelValues(to).Add(float64(n))
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordWalletTopUp() {
	WalletTopUpsTotal.Inc()
}
