package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallbacksTotal counts inbound widget callbacks by terminal outcome.
	CallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stdpay_callbacks_total",
		Help: "Inbound PG callbacks by outcome",
	}, []string{"outcome"})

	// StateTransitions counts orchestrator state transitions.
	StateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stdpay_state_transitions_total",
		Help: "Approval orchestrator state transitions",
	}, []string{"state"})

	// ApprovalDuration observes the round trip of the PG approval call.
	ApprovalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stdpay_approval_duration_seconds",
		Help:    "PG approval call round-trip time",
		Buckets: prometheus.DefBuckets,
	})

	// NetCancelsTotal counts compensation attempts by result.
	NetCancelsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stdpay_net_cancels_total",
		Help: "Network-cancellation attempts by result",
	}, []string{"result"})
)
