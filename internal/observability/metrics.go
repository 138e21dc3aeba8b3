// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package observability

import "github.com/prometheus/client_golang/prometheus"

// Package-level counters let auth code record events without holding a
// Server. They are registered by NewMetrics.
var (
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keygate_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	logouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "keygate_logouts_total",
			Help: "Total number of logout requests",
		},
	)

	sessionExtractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keygate_session_extractions_total",
			Help: "Total number of session extractions by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordLoginAttempt counts a login with the given outcome
// (success, unauthorized, error, unavailable).
func RecordLoginAttempt(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordLogout counts a logout.
func RecordLogout() {
	logouts.Inc()
}

// RecordSessionExtraction counts a session extraction with the given
// outcome (ok, missing, invalid).
func RecordSessionExtraction(outcome string) {
	sessionExtractions.WithLabelValues(outcome).Inc()
}

// Metrics holds metrics owned by a single server instance.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
}

// NewMetrics creates the Keygate metrics and registers them, together with
// the package-level counters, on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keygate_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(loginAttempts)
	reg.MustRegister(logouts)
	reg.MustRegister(sessionExtractions)

	return m
}
