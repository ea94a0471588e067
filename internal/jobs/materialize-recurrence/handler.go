// internal/jobs/materialize-recurrence/handler.go
package materializerecurrence

import (
	"context"
	"time"

	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/common/metrics"
	"compliance-calendar/internal/models"
)

// EventSource is the slice of the event store the materializer needs.
type EventSource interface {
	ListRecurringActive(ctx context.Context) ([]*models.ComplianceEvent, error)
	ExistsOnDay(ctx context.Context, title string, category models.EventCategory, dayStart, dayEnd time.Time) (bool, error)
	Create(ctx context.Context, e *models.ComplianceEvent) error
}

type Lease interface {
	Acquire(ctx context.Context, job string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, job string) error
}

type Dependencies struct {
	Events EventSource
	Lease  Lease
}

// RunReport summarizes one materialization run.
type RunReport struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Handler creates the next occurrence for every active recurring event.
// The same-day existence check makes a re-run after a partial failure pick
// up exactly where the previous run stopped.
type Handler struct {
	config      *Config
	events      EventSource
	lease       Lease
	systemActor string
	logger      logger.Logger
}

func NewHandler(deps Dependencies, config *Config, systemActor string, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		events:      deps.Events,
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

	events, err := h.events.ListRecurringActive(ctx)
	if err != nil {
		return nil, err
	}

	report := &RunReport{Scanned: len(events)}
	for _, e := range events {
		created, err := h.materializeOne(ctx, e)
		if err != nil {
			h.logger.Error("materialization failed for event", map[string]interface{}{
				"eventId": e.ID,
				"title":   e.Title,
				"error":   err.Error(),
			})
			continue
		}
		if created {
			report.Created++
		} else {
			report.Skipped++
		}
	}

	h.logger.Info("materialization run complete", map[string]interface{}{
		"scanned": report.Scanned,
		"created": report.Created,
		"skipped": report.Skipped,
	})
	return report, nil
}

func (h *Handler) materializeOne(ctx context.Context, e *models.ComplianceEvent) (bool, error) {
	next, ok := models.NextDueDate(e.DueDate, e.Recurrence)
	if !ok {
		return false, nil
	}

	dayStart, dayEnd := models.DayWindow(next)
	exists, err := h.events.ExistsOnDay(ctx, e.Title, e.Category, dayStart, dayEnd)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	clone := e.CloneFor(next, h.systemActor)
	if err := h.events.Create(ctx, clone); err != nil {
		return false, err
	}

	metrics.EventsMaterialized.Inc()
	h.logger.Info("occurrence created", map[string]interface{}{
		"sourceEventId": e.ID,
		"newEventId":    clone.ID,
		"dueDate":       next.Format("2006-01-02"),
	})
	return true, nil
}
