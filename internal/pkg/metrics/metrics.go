// Package metrics defines and registers the custom Prometheus metrics of the
// identity service. It is the single source of truth for metric names,
// labels and help strings.
//
// All vectors are registered with the default registry through promauto at
// package init; HTTP-level metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Authentication metrics ────────────────────────────────────────────────────

// AuthAttemptsTotal counts signup, login and federated login attempts.
// Labels:
//   - method: "signup", "login" or "federated"
//   - result: "success" or the stable error code (e.g. "bad_credentials")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// TokenVerificationsTotal counts bearer tokens seen by the auth middleware.
// Label:
//   - result: "valid", "expired", "invalid" or "account_missing"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer token verifications, by result.",
	},
	[]string{"result"},
)

// AuthDuration measures how long login and reconciliation take end-to-end.
// Label:
//   - method: "login" or "federated"
var AuthDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_duration_seconds",
		Help:      "Duration of login and federated reconciliation.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Profile metrics ───────────────────────────────────────────────────────────

// ProfilesCreatedTotal counts role-scoped profiles created on first use.
// Label:
//   - role: "PATIENT", "DOCTOR" or "ADMIN"
var ProfilesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profiles_created_total",
		Help:      "Total number of role-scoped profiles created.",
	},
	[]string{"role"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit records handled by the dispatcher.
// Labels:
//   - type: the auth event type
//   - result: "stored", "failed" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of auth audit events, by type and result.",
	},
	[]string{"type", "result"},
)

// AuditQueueDepth tracks events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
