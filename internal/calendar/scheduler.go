// internal/calendar/scheduler.go
package calendar

import (
	"context"
	"time"

	stderrors "compliance-calendar/internal/common/errors"
	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/models"
	"compliance-calendar/internal/store"
)

// Scheduler creates the fixed-offset reminder rows for an (event, employer)
// pair. Scheduling is idempotent per offset.
type Scheduler struct {
	events    *store.EventStore
	statuses  *store.StatusStore
	reminders *store.ReminderStore
	logger    logger.Logger
}

func NewScheduler(events *store.EventStore, statuses *store.StatusStore, reminders *store.ReminderStore, log logger.Logger) *Scheduler {
	return &Scheduler{
		events:    events,
		statuses:  statuses,
		reminders: reminders,
		logger:    log.WithFields(map[string]interface{}{"component": "reminder-scheduler"}),
	}
}

// EnableReminders ensures a status record exists for the pair and creates
// one PENDING reminder per offset that does not already have one. The
// returned slice holds only newly created reminders; calling twice is a
// no-op the second time. An empty channel list defaults to IN_APP.
func (s *Scheduler) EnableReminders(ctx context.Context, eventID, employerID string, channels []models.ReminderChannel, actor string) ([]*models.Reminder, error) {
	if len(channels) == 0 {
		channels = []models.ReminderChannel{models.ChannelInApp}
	}
	for _, ch := range channels {
		if !ch.Valid() {
			return nil, stderrors.NewInvalidChannelError(string(ch))
		}
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	status, err := s.statuses.EnsureExists(ctx, eventID, employerID, actor)
	if err != nil {
		return nil, err
	}

	created := make([]*models.Reminder, 0, len(models.AllOffsets()))
	for _, offset := range models.AllOffsets() {
		exists, err := s.reminders.ExistsForOffset(ctx, status.ID, offset)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		r := &models.Reminder{
			StatusID:     status.ID,
			EventID:      eventID,
			EmployerID:   employerID,
			Offset:       offset,
			Channels:     channels,
			State:        models.ReminderPending,
			ScheduledFor: scheduledFor(event.DueDate, offset),
		}
		if err := s.reminders.Create(ctx, r); err != nil {
			return nil, err
		}
		created = append(created, r)
	}

	s.logger.Info("reminders enabled", map[string]interface{}{
		"eventId":    eventID,
		"employerId": employerID,
		"created":    len(created),
		"channels":   channels,
	})
	return created, nil
}

// scheduledFor computes when an offset fires for a due date. Offsets in
// the past are still scheduled; the dispatcher picks them up on its next
// run.
func scheduledFor(dueDate time.Time, offset models.ReminderOffset) time.Time {
	return dueDate.AddDate(0, 0, -offset.Days())
}
