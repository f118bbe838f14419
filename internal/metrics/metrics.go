// Package metrics defines and registers all custom Prometheus metrics for the
// questd service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "questd"

// ── Progression metrics ───────────────────────────────────────────────────────

// QuestsCompletedTotal counts quests that were completed and credited.
// Label:
//   - category: the skill category credited (e.g. "strength")
var QuestsCompletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quests_completed_total",
		Help:      "Total number of quests completed, by category.",
	},
	[]string{"category"},
)

// XPGrantedTotal sums the experience granted per category.
var XPGrantedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "xp_granted_total",
		Help:      "Total experience granted, by category.",
	},
	[]string{"category"},
)

// TierPromotionsTotal counts stat tier promotions.
var TierPromotionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tier_promotions_total",
		Help:      "Total number of stat tier promotions, by category.",
	},
	[]string{"category"},
)

// QuestBatchesGeneratedTotal counts daily quest batches generated.
var QuestBatchesGeneratedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quest_batches_generated_total",
		Help:      "Total number of daily quest batches generated.",
	},
)

// ── Identity metrics ──────────────────────────────────────────────────────────

// RegistrationsTotal counts successful registrations.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts registered.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "bad_credential" or "unknown_user"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Record store metrics ──────────────────────────────────────────────────────

// StoreSavesTotal counts document saves.
// Labels:
//   - backend: "file" or "mongo"
//   - result: "ok" or "error"
var StoreSavesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_saves_total",
		Help:      "Total number of document saves, by backend and result.",
	},
	[]string{"backend", "result"},
)

// StoreSaveDuration measures how long a document save takes.
var StoreSaveDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_save_duration_seconds",
		Help:      "Duration of a document save.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"backend"},
)

// StoreRecoveriesTotal counts loads that did not come from a healthy live copy.
// Label:
//   - source: "backup" or "empty"
var StoreRecoveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_recoveries_total",
		Help:      "Total number of document loads recovered from a backup or reset to empty.",
	},
	[]string{"source"},
)

// StoreConflictsTotal counts optimistic version conflicts that forced a retry.
var StoreConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_conflicts_total",
		Help:      "Total number of version conflicts on document save.",
	},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts handled requests.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, by method, route and status code.",
	},
	[]string{"method", "route", "code"},
)

// HTTPRequestDuration measures request latency per route.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests, by method and route.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
