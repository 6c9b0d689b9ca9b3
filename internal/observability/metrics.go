package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AcceptAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "motodispatch", Name: "accept_attempts_total", Help: "Ride accept attempts by outcome"},
		[]string{"outcome"},
	)
	AcceptLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{Namespace: "motodispatch", Name: "accept_latency_seconds", Help: "Accept flow latency seconds"},
	)
	SurgeMultiplier = promauto.NewGauge(
		prometheus.GaugeOpts{Namespace: "motodispatch", Name: "surge_multiplier", Help: "Most recently computed surge multiplier"},
	)
	RidesRequestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "motodispatch", Name: "rides_requested_total", Help: "Total ride requests created"},
	)
	RidesCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "motodispatch", Name: "rides_completed_total", Help: "Total rides completed"},
	)
)

// Accept outcomes recorded on AcceptAttemptsTotal.
const (
	OutcomeAssigned          = "assigned"
	OutcomeLocked            = "locked"
	OutcomeAlreadyAssigned   = "already_assigned"
	OutcomeDriverUnavailable = "driver_unavailable"
	OutcomeError             = "error"
)
