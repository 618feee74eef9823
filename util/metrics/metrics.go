// Package metrics holds the console's Prometheus metrics. They register
// with the default registry on import and are served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// HTTPRequestsTotal counts console requests.
// Labels: method, route (the gin route template), status.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests served by the console.",
	},
	[]string{"method", "route", "status"},
)

// HTTPRequestDuration measures console request latency.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by the console.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// GuardDecisionsTotal counts route guard outcomes.
// Label outcome: "render", "redirect_login" or "redirect_unauthorized".
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by outcome.",
	},
	[]string{"outcome"},
)

// BackendCallsTotal counts calls made through the API gateway.
// Labels: method, status class ("2xx", "4xx", ..., or "network_error" when
// no response arrived).
var BackendCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_calls_total",
		Help:      "Total number of backend API calls, by method and status.",
	},
	[]string{"method", "status"},
)

// BackendCallDuration measures backend API latency.
var BackendCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_call_duration_seconds",
		Help:      "Duration of backend API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// BackendUp is 1 while the last health probe reached the backend.
var BackendUp = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backend_up",
		Help:      "Whether the last backend health probe succeeded.",
	},
)

// LoginAttemptsTotal counts login and OTP attempts.
// Labels: step ("login" or "otp"), result ("success", "otp_required", "failed", "rate_limited").
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by step and result.",
	},
	[]string{"step", "result"},
)

// ActiveSockets tracks open live-session websocket connections.
var ActiveSockets = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sockets",
		Help:      "Number of open session websocket connections.",
	},
)
