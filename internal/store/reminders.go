// internal/store/reminders.go
package store

import (
	"context"
	"database/sql"
	"time"

	stderrors "compliance-calendar/internal/common/errors"
	"compliance-calendar/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ReminderStore persists scheduled reminder records.
type ReminderStore struct {
	db *sql.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

// Create inserts a new PENDING reminder.
func (s *ReminderStore) Create(ctx context.Context, r *models.Reminder) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	channels := make([]string, len(r.Channels))
	for i, c := range r.Channels {
		channels[i] = string(c)
	}

	query := `INSERT INTO reminders
		(id, status_id, event_id, employer_id, offset_type, channels, state, scheduled_for, retry_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.StatusID, r.EventID, r.EmployerID, string(r.Offset), pq.Array(channels),
		string(r.State), r.ScheduledFor, r.RetryCount, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("create reminder", err)
	}
	return nil
}

// ExistsForOffset reports whether a reminder already exists for the
// (status, offset) pair. The scheduler checks this before insert to keep
// enable-reminders idempotent.
func (s *ReminderStore) ExistsForOffset(ctx context.Context, statusID string, offset models.ReminderOffset) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM reminders WHERE status_id = $1 AND offset_type = $2)`

	var exists bool
	err := s.db.QueryRowContext(ctx, query, statusID, string(offset)).Scan(&exists)
	if err != nil {
		return false, stderrors.NewQueryExecutionFailedError("reminder exists", err)
	}
	return exists, nil
}

// ListDue returns up to limit PENDING reminders whose scheduled time has
// passed, joined with the event fields the dispatcher renders into the
// payload. Ordered oldest first so a bounded batch drains backlog fairly.
func (s *ReminderStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.DueReminder, error) {
	query := `SELECT r.id, r.status_id, r.event_id, r.employer_id, r.offset_type, r.channels,
			r.state, r.scheduled_for, r.sent_at, r.failure_reason, r.retry_count, r.created_at, r.updated_at,
			e.title, e.due_date
		FROM reminders r
		JOIN compliance_events e ON e.id = r.event_id
		WHERE r.state = $1 AND r.scheduled_for <= $2
		ORDER BY r.scheduled_for ASC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, string(models.ReminderPending), now, limit)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("list due reminders", err)
	}
	defer rows.Close()

	var due []*models.DueReminder
	for rows.Next() {
		d, err := scanDueReminder(rows)
		if err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scan due reminder", err)
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

// MarkSent finalizes a reminder after at least one channel succeeded.
func (s *ReminderStore) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	query := `UPDATE reminders
		SET state = $2, sent_at = $3, retry_count = 0, failure_reason = '', updated_at = $4
		WHERE id = $1`

	_, err := s.db.ExecContext(ctx, query, id, string(models.ReminderSent), sentAt, time.Now().UTC())
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("mark reminder sent", err)
	}
	return nil
}

// GetRetryCount re-reads the current retry count. The dispatcher reads the
// stored value rather than trusting its in-memory copy so overlapping runs
// cannot double-count an attempt window.
func (s *ReminderStore) GetRetryCount(ctx context.Context, id string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT retry_count FROM reminders WHERE id = $1`, id).Scan(&count)
	if err != nil {
		return 0, stderrors.NewQueryExecutionFailedError("get retry count", err)
	}
	return count, nil
}

// Reschedule keeps the reminder PENDING with an incremented retry count and
// a pushed-out scheduled time.
func (s *ReminderStore) Reschedule(ctx context.Context, id string, retryCount int, next time.Time) error {
	query := `UPDATE reminders
		SET retry_count = $2, scheduled_for = $3, updated_at = $4
		WHERE id = $1 AND state = $5`

	_, err := s.db.ExecContext(ctx, query, id, retryCount, next, time.Now().UTC(), string(models.ReminderPending))
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("reschedule reminder", err)
	}
	return nil
}

// MarkFailed moves a reminder into its terminal FAILED state.
func (s *ReminderStore) MarkFailed(ctx context.Context, id, reason string) error {
	query := `UPDATE reminders
		SET state = $2, failure_reason = $3, updated_at = $4
		WHERE id = $1`

	_, err := s.db.ExecContext(ctx, query, id, string(models.ReminderFailed), reason, time.Now().UTC())
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("mark reminder failed", err)
	}
	return nil
}

// ListByEmployer returns the employer's reminder history, newest first.
func (s *ReminderStore) ListByEmployer(ctx context.Context, employerID string, page, limit int) ([]*models.Reminder, error) {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	query := `SELECT id, status_id, event_id, employer_id, offset_type, channels,
			state, scheduled_for, sent_at, failure_reason, retry_count, created_at, updated_at
		FROM reminders
		WHERE employer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, employerID, limit, (page-1)*limit)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("list reminders by employer", err)
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scan reminder", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// DeleteSentBefore purges SENT reminders older than the cutoff. This is
// the retention pass for delivered records.
func (s *ReminderStore) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM reminders WHERE state = $1 AND sent_at IS NOT NULL AND sent_at < $2`

	res, err := s.db.ExecContext(ctx, query, string(models.ReminderSent), cutoff)
	if err != nil {
		return 0, stderrors.NewQueryExecutionFailedError("purge sent reminders", err)
	}
	return res.RowsAffected()
}

func scanReminder(row rowScanner) (*models.Reminder, error) {
	var r models.Reminder
	var offset, state string
	var channels pq.StringArray
	var sentAt sql.NullTime
	var failureReason sql.NullString

	err := row.Scan(
		&r.ID, &r.StatusID, &r.EventID, &r.EmployerID, &offset, &channels,
		&state, &r.ScheduledFor, &sentAt, &failureReason, &r.RetryCount, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Offset = models.ReminderOffset(offset)
	r.State = models.ReminderState(state)
	r.Channels = make([]models.ReminderChannel, len(channels))
	for i, c := range channels {
		r.Channels[i] = models.ReminderChannel(c)
	}
	if sentAt.Valid {
		t := sentAt.Time
		r.SentAt = &t
	}
	if failureReason.Valid {
		r.FailureReason = failureReason.String
	}
	return &r, nil
}

func scanDueReminder(row rowScanner) (*models.DueReminder, error) {
	var d models.DueReminder
	var offset, state string
	var channels pq.StringArray
	var sentAt sql.NullTime
	var failureReason sql.NullString

	err := row.Scan(
		&d.ID, &d.StatusID, &d.EventID, &d.EmployerID, &offset, &channels,
		&state, &d.ScheduledFor, &sentAt, &failureReason, &d.RetryCount, &d.CreatedAt, &d.UpdatedAt,
		&d.EventTitle, &d.EventDueDate,
	)
	if err != nil {
		return nil, err
	}

	d.Offset = models.ReminderOffset(offset)
	d.State = models.ReminderState(state)
	d.Channels = make([]models.ReminderChannel, len(channels))
	for i, c := range channels {
		d.Channels[i] = models.ReminderChannel(c)
	}
	if sentAt.Valid {
		t := sentAt.Time
		d.SentAt = &t
	}
	if failureReason.Valid {
		d.FailureReason = failureReason.String
	}
	return &d, nil
}
