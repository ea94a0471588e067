// internal/jobs/sweep-missed/handler.go
package sweepmissed

import (
	"context"
	"time"

	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/common/metrics"
)

// EventSource lists events whose due date has passed.
type EventSource interface {
	ListOverdueIDs(ctx context.Context, now time.Time) ([]string, error)
}

// StatusSink bulk-transitions non-terminal statuses to MISSED.
type StatusSink interface {
	BulkMarkMissed(ctx context.Context, eventIDs []string, actor string) (int64, error)
}

// ReminderPurger removes delivered reminders older than the retention
// window.
type ReminderPurger interface {
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Lease interface {
	Acquire(ctx context.Context, job string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, job string) error
}

type Dependencies struct {
	Events    EventSource
	Statuses  StatusSink
	Reminders ReminderPurger
	Lease     Lease
}

// RunReport summarizes one sweep run.
type RunReport struct {
	OverdueEvents int   `json:"overdueEvents"`
	MarkedMissed  int64 `json:"markedMissed"`
	Purged        int64 `json:"purged"`
}

// Handler marks overdue non-terminal statuses as MISSED. PAID and already
// MISSED rows are untouched, so a second run over the same window changes
// nothing.
type Handler struct {
	config      *Config
	events      EventSource
	statuses    StatusSink
	reminders   ReminderPurger
	lease       Lease
	systemActor string
	logger      logger.Logger
}

func NewHandler(deps Dependencies, config *Config, systemActor string, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		events:      deps.Events,
		statuses:    deps.Statuses,
		reminders:   deps.Reminders,
		lease:       deps.Lease,
		systemActor: systemActor,
		logger:      log.WithFields(map[string]interface{}{"job": JobName}),
	}
}

func (h *Handler) Run(ctx context.Context) (*RunReport, error) {
	acquired, err := h.lease.Acquire(ctx, JobName, h.config.LeaseTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		h.logger.Info("lease held elsewhere, skipping run", nil)
		return &RunReport{}, nil
	}
	defer func() {
		if err := h.lease.Release(context.WithoutCancel(ctx), JobName); err != nil {
			h.logger.Warn("lease release failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	now := time.Now().UTC()
	report := &RunReport{}

	overdue, err := h.events.ListOverdueIDs(ctx, now)
	if err != nil {
		return nil, err
	}
	report.OverdueEvents = len(overdue)

	if len(overdue) > 0 {
		marked, err := h.statuses.BulkMarkMissed(ctx, overdue, h.systemActor)
		if err != nil {
			return nil, err
		}
		report.MarkedMissed = marked
		metrics.StatusesMarkedMissed.Add(float64(marked))
	}

	// Retention runs piggybacked on the daily sweep; a purge failure is
	// logged but does not fail the sweep itself.
	purged, err := h.reminders.DeleteSentBefore(ctx, now.Add(-h.config.Retention))
	if err != nil {
		h.logger.Warn("reminder retention purge failed", map[string]interface{}{"error": err.Error()})
	} else {
		report.Purged = purged
	}

	h.logger.Info("sweep run complete", map[string]interface{}{
		"overdueEvents": report.OverdueEvents,
		"markedMissed":  report.MarkedMissed,
		"purged":        report.Purged,
	})
	return report, nil
}
