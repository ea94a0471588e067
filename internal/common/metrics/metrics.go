// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_job_runs_total",
			Help: "Total number of periodic job runs by outcome",
		},
		[]string{"job", "outcome"},
	)

	JobRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "calendar_job_run_duration_seconds",
			Help: "Duration of periodic job runs in seconds",
		},
		[]string{"job"},
	)

	RemindersDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_reminders_dispatched_total",
			Help: "Reminder dispatch outcomes (sent, rescheduled, failed, invalid)",
		},
		[]string{"outcome"},
	)

	ChannelDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_channel_deliveries_total",
			Help: "Per-channel delivery attempts by outcome",
		},
		[]string{"channel", "outcome"},
	)

	EventsMaterialized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calendar_events_materialized_total",
			Help: "Recurring event occurrences created by the materializer",
		},
	)

	StatusesMarkedMissed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calendar_statuses_marked_missed_total",
			Help: "Status records transitioned to MISSED by the sweeper",
		},
	)
)
