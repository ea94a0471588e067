// internal/calendar/tracker.go
package calendar

import (
	"context"
	"encoding/json"
	"time"

	stderrors "compliance-calendar/internal/common/errors"
	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/models"
	"compliance-calendar/internal/store"

	"github.com/redis/go-redis/v9"
)

const summaryCacheTTL = 60 * time.Second

// Tracker is the authoritative state machine over per-employer compliance
// status records.
type Tracker struct {
	events    *store.EventStore
	statuses  *store.StatusStore
	reminders *store.ReminderStore
	cache     *redis.Client
	logger    logger.Logger
}

func NewTracker(events *store.EventStore, statuses *store.StatusStore, reminders *store.ReminderStore, cache *redis.Client, log logger.Logger) *Tracker {
	return &Tracker{
		events:    events,
		statuses:  statuses,
		reminders: reminders,
		cache:     cache,
		logger:    log.WithFields(map[string]interface{}{"component": "status-tracker"}),
	}
}

// GetOrDefault returns the stored status record, or a virtual UPCOMING
// default without persisting anything. The event must exist.
func (t *Tracker) GetOrDefault(ctx context.Context, eventID, employerID string) (*models.ComplianceStatus, error) {
	if _, err := t.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	st, err := t.statuses.GetByEventAndEmployer(ctx, eventID, employerID)
	if err != nil {
		if stderrors.IsCode(err, stderrors.ErrCodeStatusNotFound) {
			return models.DefaultStatus(eventID, employerID), nil
		}
		return nil, err
	}
	return st, nil
}

// SetStatusInput carries one status update.
type SetStatusInput struct {
	EventID    string
	EmployerID string
	State      models.ComplianceState
	DatePaid   *time.Time
	Notes      string
	Actor      string
}

// SetStatus validates and upserts the status record for the pair.
// Transitioning to PAID without a datePaid is rejected. Moving backward
// out of a terminal state stays possible through this path as a manual
// correction workflow, but is logged.
func (t *Tracker) SetStatus(ctx context.Context, in SetStatusInput) (*models.ComplianceStatus, error) {
	if !in.State.Valid() {
		return nil, stderrors.NewInvalidStatusValueError(string(in.State))
	}
	if in.State == models.StatePaid && in.DatePaid == nil {
		return nil, stderrors.NewPaidWithoutDateError()
	}

	if _, err := t.events.GetByID(ctx, in.EventID); err != nil {
		return nil, err
	}

	existing, err := t.statuses.GetByEventAndEmployer(ctx, in.EventID, in.EmployerID)
	if err != nil && !stderrors.IsCode(err, stderrors.ErrCodeStatusNotFound) {
		return nil, err
	}
	if existing != nil && existing.State.Terminal() && !in.State.Terminal() {
		t.logger.Warn("terminal status moved backward", map[string]interface{}{
			"eventId":    in.EventID,
			"employerId": in.EmployerID,
			"from":       existing.State,
			"to":         in.State,
			"actor":      in.Actor,
		})
	}

	st := &models.ComplianceStatus{
		EventID:    in.EventID,
		EmployerID: in.EmployerID,
		State:      in.State,
		Notes:      in.Notes,
		CreatedBy:  in.Actor,
		UpdatedBy:  in.Actor,
	}
	if in.State == models.StatePaid {
		st.DatePaid = in.DatePaid
	}

	if err := t.statuses.Upsert(ctx, st); err != nil {
		return nil, err
	}

	t.invalidateSummary(ctx, in.EmployerID)
	return st, nil
}

// AppendAttachment adds a proof-of-payment file reference, creating the
// status record first if the pair has none yet.
func (t *Tracker) AppendAttachment(ctx context.Context, eventID, employerID, fileRef, actor string) error {
	if _, err := t.events.GetByID(ctx, eventID); err != nil {
		return err
	}
	if _, err := t.statuses.EnsureExists(ctx, eventID, employerID, actor); err != nil {
		return err
	}
	return t.statuses.AppendAttachment(ctx, eventID, employerID, fileRef, actor)
}

func summaryCacheKey(employerID string) string {
	return "compliance-summary:" + employerID
}

// Summary returns per-state counts for the employer, cached briefly.
func (t *Tracker) Summary(ctx context.Context, employerID string) (map[models.ComplianceState]int, error) {
	if t.cache != nil {
		if val, err := t.cache.Get(ctx, summaryCacheKey(employerID)).Result(); err == nil {
			var counts map[models.ComplianceState]int
			if err := json.Unmarshal([]byte(val), &counts); err == nil {
				return counts, nil
			}
		}
	}

	counts, err := t.statuses.CountByState(ctx, employerID)
	if err != nil {
		return nil, err
	}

	if t.cache != nil {
		if data, err := json.Marshal(counts); err == nil {
			_ = t.cache.Set(ctx, summaryCacheKey(employerID), data, summaryCacheTTL).Err()
		}
	}
	return counts, nil
}

// Statuses returns the employer's status records, most recently updated
// first.
func (t *Tracker) Statuses(ctx context.Context, employerID string, page, limit int) ([]*models.ComplianceStatus, error) {
	return t.statuses.ListByEmployer(ctx, employerID, page, limit)
}

// History returns the employer's reminder history, newest first.
func (t *Tracker) History(ctx context.Context, employerID string, page, limit int) ([]*models.Reminder, error) {
	return t.reminders.ListByEmployer(ctx, employerID, page, limit)
}

func (t *Tracker) invalidateSummary(ctx context.Context, employerID string) {
	if t.cache == nil {
		return
	}
	if err := t.cache.Del(ctx, summaryCacheKey(employerID)).Err(); err != nil {
		t.logger.Debug("summary cache invalidation failed", map[string]interface{}{
			"employerId": employerID,
			"error":      err.Error(),
		})
	}
}
