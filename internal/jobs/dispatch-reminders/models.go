package dispatchreminders

import (
	"context"
	"time"

	"compliance-calendar/internal/models"
	"compliance-calendar/internal/notify"
)

// ReminderSource is the slice of the reminder store the dispatcher needs.
type ReminderSource interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.DueReminder, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	GetRetryCount(ctx context.Context, id string) (int, error)
	Reschedule(ctx context.Context, id string, retryCount int, next time.Time) error
	MarkFailed(ctx context.Context, id, reason string) error
}

// Lease guards against concurrent runs across process instances.
type Lease interface {
	Acquire(ctx context.Context, job string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, job string) error
}

// Dependencies bundles the collaborators injected into the handler.
type Dependencies struct {
	Reminders ReminderSource
	Notifier  notify.Notifier
	Auditor   notify.Auditor
	Lease     Lease
}

// RunReport summarizes one dispatch run for logging and tests.
type RunReport struct {
	Due         int `json:"due"`
	Sent        int `json:"sent"`
	Rescheduled int `json:"rescheduled"`
	Failed      int `json:"failed"`
	Invalid     int `json:"invalid"`
}
