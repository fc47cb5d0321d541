package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sessionforge/session-bot/internal/session"
	"github.com/sessionforge/session-bot/internal/sessionapi"
)

var (
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of bot updates handled labeled by kind and status",
		},
		[]string{"kind", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Duration of bot update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	stepTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_step_transitions_total",
			Help: "Total number of flow step transitions",
		},
		[]string{"from", "to"},
	)
	flowsClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flows_closed_total",
			Help: "Total number of flows closed labeled by outcome",
		},
		[]string{"outcome"},
	)
	activeFlows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_flows",
			Help: "Current number of users with a flow in progress",
		},
	)
	serviceCallDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "session_service_call_duration_seconds",
			Help:    "Duration of session service calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "status"},
	)
	messagesCleanedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transient_messages_cleaned_total",
			Help: "Transient message deletions attempted during cleanup",
		},
		[]string{"status"},
	)
)

func init() {
	session.RegisterTransitionRecorder(RecordStepTransition)
	session.RegisterFlowClosedRecorder(RecordFlowClosed)
	session.RegisterCleanupRecorder(RecordMessageCleanup)
	sessionapi.RegisterCallRecorder(RecordServiceCall)
}

// RecordUpdate increments the update counters and records duration.
func RecordUpdate(kind, status string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	updatesTotal.WithLabelValues(kind, status).Inc()
	updateDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordStepTransition counts a flow step transition and tracks the active
// flow gauge: a flow opens on the none→awaiting_phone edge and closes on any
// edge back to none.
func RecordStepTransition(from, to string) {
	stepTransitionsTotal.WithLabelValues(from, to).Inc()

	switch {
	case from == "none" && to != "none":
		activeFlows.Inc()
	case from != "none" && to == "none":
		activeFlows.Dec()
	}
}

// RecordFlowClosed counts a closed flow by outcome.
func RecordFlowClosed(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}

	flowsClosedTotal.WithLabelValues(outcome).Inc()
}

// RecordServiceCall observes one session service call.
func RecordServiceCall(path, status string, duration time.Duration) {
	serviceCallDurationSeconds.WithLabelValues(path, status).Observe(duration.Seconds())
}

// RecordMessageCleanup counts one transient message deletion attempt.
func RecordMessageCleanup(status string) {
	messagesCleanedTotal.WithLabelValues(status).Inc()
}
