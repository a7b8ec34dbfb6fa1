// Package metrics defines and registers the custom Prometheus metrics of the
// session gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry through promauto at package
// init; the /metrics route exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "session"

// ── Notification feed ────────────────────────────────────────────────────────

// NotificationFetchesTotal counts poller fetch outcomes.
// Label:
//   - result: "ok", "error", "stale" (discarded response) or "skipped" (tick
//     skipped because a fetch was in flight)
var NotificationFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_fetches_total",
		Help:      "Notification feed fetches by outcome.",
	},
	[]string{"result"},
)

// ── Cross-app handoff ────────────────────────────────────────────────────────

// HandoffsTotal counts handoffs to the management app.
// Labels:
//   - kind: "login" or "logout"
//   - result: "issued" or "failed"
var HandoffsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handoffs_total",
		Help:      "Cross-app session handoffs by kind and result.",
	},
	[]string{"kind", "result"},
)

// BeaconQueueDepth tracks logout beacons waiting per worker.
// Label:
//   - worker_id: numeric worker index
var BeaconQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "beacon_queue_depth",
		Help:      "Logout beacons pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Sessions ─────────────────────────────────────────────────────────────────

// LoginsTotal counts logins by the tier the session was written to.
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Logins recorded, by credential tier.",
	},
	[]string{"tier"},
)

// LogoutsTotal counts transitions to Guest.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Transitions to the guest role.",
	},
)

// ActiveSessions tracks façades held by the registry, by current role.
var ActiveSessions = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Client sessions currently held in memory, by role.",
	},
	[]string{"role"},
)
