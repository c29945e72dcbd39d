// Package metrics defines and registers all custom Prometheus metrics for the
// link dashboard API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import
// (promauto); HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "linkdash"

// ── Link store metrics ────────────────────────────────────────────────────────

// LinkQueriesTotal counts link store queries issued by the API.
// Labels:
//   - op:     "count", "random" or "exists"
//   - result: "ok", "empty" (random on an empty set) or "error"
var LinkQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_queries_total",
		Help:      "Total number of link store queries, by operation and result.",
	},
	[]string{"op", "result"},
)

// ── Project metrics ───────────────────────────────────────────────────────────

// DomainRenamesTotal counts domain rename attempts.
// Label:
//   - result: "ok", "noop", "invalid", "conflict", "busy" or "error"
var DomainRenamesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "domain_renames_total",
		Help:      "Total number of project domain rename attempts, by result.",
	},
	[]string{"result"},
)

// AccessDenialsTotal counts requests rejected by the project guard.
// Label:
//   - reason: "unauthorized", "forbidden" or "not_found"
var AccessDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denials_total",
		Help:      "Total number of requests rejected by the project guard.",
	},
	[]string{"reason"},
)

// ── Migration repair metrics ──────────────────────────────────────────────────

// MigrationRepairsTotal counts repair attempts on pending migration markers.
// Label:
//   - result: "ok" or "error"
var MigrationRepairsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "migration_repairs_total",
		Help:      "Total number of migration marker repairs, by result.",
	},
	[]string{"result"},
)

// RepairQueueDepth tracks the number of markers waiting in each repair worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var RepairQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "repair_queue_depth",
		Help:      "Current number of migrations pending in each repair worker channel.",
	},
	[]string{"worker_id"},
)

// RepairDuration measures how long a single marker repair takes.
var RepairDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "migration_repair_duration_seconds",
		Help:      "Duration of a single migration marker repair.",
		Buckets:   prometheus.DefBuckets,
	},
)
