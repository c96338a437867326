// Package stats provides fire-and-forget application metrics on top of
// Prometheus. Callers never handle errors here; a metrics outage must not
// affect a login attempt.
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes used as metric label values.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeUnreachable        = "directory_unreachable"
	OutcomeMalformed          = "malformed_response"
	OutcomeError              = "error"
)

// Directory operations used as metric label values.
const (
	OpBind   = "bind"
	OpSearch = "search"
	OpUnbind = "unbind"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Number of login attempts, differentiated by outcome.",
		},
		[]string{"outcome"},
	)

	loginAttemptsBySource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_by_source_total",
			Help: "Number of login attempts, differentiated by outcome and authentication source.",
		},
		[]string{"outcome", "source"},
	)

	directoryOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "directory_operation_duration_seconds",
			Help:    "Duration of directory protocol operations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Number of currently active login sessions.",
		},
	)
)

// LoginAttempt records one login attempt. The total counter carries the
// outcome only; the by-source counter fans the same increment out with the
// authentication source attached.
func LoginAttempt(source, outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
	loginAttemptsBySource.WithLabelValues(outcome, source).Inc()
}

// ObserveDirectoryOp records the duration of a directory operation started
// at start.
func ObserveDirectoryOp(op string, start time.Time) {
	directoryOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SessionOpened increments the active session gauge.
func SessionOpened() {
	activeSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func SessionClosed() {
	activeSessions.Dec()
}
