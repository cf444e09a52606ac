// Package metrics defines and registers all custom Prometheus metrics for the
// login service. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "login"

// ── Registration metrics ──────────────────────────────────────────────────────

// RegistrationsTotal counts registration attempts.
// Label:
//   - outcome: "success" or the error kind (e.g. "conflict", "dependency")
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by outcome.",
	},
	[]string{"outcome"},
)

// CompensationsTotal counts registration rollbacks.
// Label:
//   - result: "ok" when every compensating action succeeded, "failed" otherwise
var CompensationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compensations_total",
		Help:      "Total number of registration sagas that had to compensate, by result.",
	},
	[]string{"result"},
)

// ── Login metrics ─────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - outcome: "success" or the error kind (e.g. "authentication")
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// AuditFailuresTotal counts audit log inserts that failed or affected no rows.
var AuditFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_failures_total",
		Help:      "Total number of login audit entries that could not be recorded.",
	},
)

// ── Employee service metrics ──────────────────────────────────────────────────

// EmployeeRequestDuration measures calls to the employee service.
// Labels:
//   - operation: "create" or "get"
//   - status: the HTTP status code, "timeout", or "error" when no response arrived
var EmployeeRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "employee_request_duration_seconds",
		Help:      "Duration of requests to the employee service.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"operation", "status"},
)
