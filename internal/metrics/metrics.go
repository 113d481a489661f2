// Package metrics exposes Prometheus counters for the checkout engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "till_checkouts_committed_total",
		Help: "Checkouts fully committed (sales written, all deductions applied).",
	})

	CheckoutsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "till_checkouts_rejected_total",
		Help: "Checkouts rejected during validation before any persistence.",
	})

	PartialCommits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "till_partial_commits_total",
		Help: "Checkouts with sales written but one or more stock deductions failed.",
	})

	Cancellations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "till_cancellations_total",
		Help: "Transactions voided inside the cancellation window.",
	})

	CancellationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "till_cancellations_expired_total",
		Help: "Cancellation windows that elapsed without an explicit cancel.",
	})
)
