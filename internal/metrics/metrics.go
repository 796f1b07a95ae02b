package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refibot_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "refibot_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refibot_upstream_requests_total",
			Help: "Total number of calls to external services by outcome",
		},
		[]string{"service", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "refibot_upstream_request_duration_seconds",
			Help:    "Duration of calls to external services in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service"},
	)

	RequirementsParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refibot_requirements_parse_failures_total",
			Help: "Lender requirement strings that fell back to the raw value",
		},
	)

	ChatFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refibot_chat_fallback_replies_total",
			Help: "Chat turns answered with the apology message",
		},
	)

	SurveySubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refibot_survey_submissions_total",
			Help: "Completed surveys by whether the user document already existed",
		},
		[]string{"mode"},
	)
)

// Upstream service names
const (
	ServiceIdentity  = "identity"
	ServiceDocuments = "documents"
	ServiceAssistant = "assistant"
	ServiceQuotes    = "quotes"
)

// ObserveUpstream records one external call started at start
func ObserveUpstream(service string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	UpstreamRequests.WithLabelValues(service, outcome).Inc()
	UpstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}
