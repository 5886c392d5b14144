// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transactions_activations_total",
		Help: "Activation attempts by result.",
	}, []string{"result"})

	AuthorizationRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transactions_authorization_requests_total",
		Help: "Authorization requests dispatched, by gateway.",
	}, []string{"gateway"})

	AuthorizationOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transactions_authorization_outcomes_total",
		Help: "Normalized authorization outcomes, by gateway and outcome.",
	}, []string{"gateway", "outcome"})

	ClosuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transactions_closures_total",
		Help: "Closure saga results.",
	}, []string{"result"})

	RefundTriggersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transactions_refund_triggers_total",
		Help: "Refund compensations triggered by failed closures.",
	})

	NodoCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transactions_nodo_call_duration_seconds",
		Help:    "Latency of calls to the payment node.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
