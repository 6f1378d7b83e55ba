package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Generation
	GenerationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt2app_generation_requests_total",
			Help: "Number of model generation calls by model and result",
		},
		[]string{"model", "result"}, // result: success|failure
	)
	GenerationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prompt2app_generation_duration_seconds",
			Help:    "Duration of model generation calls",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s..128s
		},
		[]string{"model"},
	)
	GenerationsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prompt2app_generations_in_flight",
			Help: "Current number of shells in the generating state",
		},
	)

	// Sessions
	SessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prompt2app_sessions_created_total",
			Help: "Total number of shell sessions created",
		},
	)

	// Notifications raised to users
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt2app_notifications_total",
			Help: "Notifications raised by the interactive shell",
		},
		[]string{"kind", "title"},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "prompt2app_rate_limited_total",
			Help: "Generation requests rejected by the rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(
		GenerationRequests,
		GenerationDurationSeconds,
		GenerationsInFlight,
		SessionsCreated,
		Notifications,
		RateLimited,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Generation
func ObserveGeneration(model string, err error, d time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	GenerationRequests.WithLabelValues(model, result).Inc()
	GenerationDurationSeconds.WithLabelValues(model).Observe(d.Seconds())
}

func IncGenerationsInFlight() {
	GenerationsInFlight.Inc()
}

func DecGenerationsInFlight() {
	GenerationsInFlight.Dec()
}

// Sessions
func IncSessionsCreated() {
	SessionsCreated.Inc()
}

func IncNotification(kind, title string) {
	Notifications.WithLabelValues(kind, title).Inc()
}

func IncRateLimited() {
	RateLimited.Inc()
}
