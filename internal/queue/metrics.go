package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mspcore_reconciles_total",
		Help: "Reconcile invocations by outcome (ok, error, skipped, invalid).",
	}, []string{"outcome"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mspcore_reconcile_queue_depth",
		Help: "Current length of the reconcile queue.",
	})
)
