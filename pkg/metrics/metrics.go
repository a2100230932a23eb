package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "campusnet"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// AuthEvents counts register/login/refresh/logout attempts by outcome.
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "auth_events_total", Help: "Credential operations by event and outcome."},
		[]string{"event", "outcome"},
	)
	Candidatures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "candidatures_total", Help: "Program applications by outcome."},
		[]string{"outcome"},
	)
	LikesToggled = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "likes_toggled_total", Help: "Publication like toggles by direction."},
		[]string{"direction"},
	)
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "uploads_total", Help: "Stored files by storage driver and outcome."},
		[]string{"driver", "outcome"},
	)
	HTTPRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "Request latency by route and status class.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route", "status"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		RateLimitAllowed,
		RateLimitRejected,
		AuthEvents,
		Candidatures,
		LikesToggled,
		Uploads,
		HTTPRequests,
	)
}

// Outcome converts an error into the "ok"/"error" label used across counters.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
