package store

import (
	"context"
	"testing"
	"time"

	"compliance-calendar/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderStore_ExistsForOffset(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("st-1", "BEFORE_7_DAYS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	s := NewReminderStore(db)
	exists, err := s.ExistsForOffset(context.Background(), "st-1", models.OffsetBefore7Days)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReminderStore_ListDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)
	due := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	scheduled := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "status_id", "event_id", "employer_id", "offset_type", "channels",
		"state", "scheduled_for", "sent_at", "failure_reason", "retry_count", "created_at", "updated_at",
		"title", "due_date",
	}).AddRow(
		"rem-1", "st-1", "ev-1", "emp-1", "BEFORE_7_DAYS", "{IN_APP}",
		"PENDING", scheduled, nil, nil, 0, scheduled, scheduled,
		"GST Filing", due,
	)

	mock.ExpectQuery(`SELECT r\.id, .+ FROM reminders r`).
		WithArgs("PENDING", now, 100).
		WillReturnRows(rows)

	s := NewReminderStore(db)
	dueReminders, err := s.ListDue(context.Background(), now, 100)
	require.NoError(t, err)
	require.Len(t, dueReminders, 1)

	r := dueReminders[0]
	assert.Equal(t, "rem-1", r.ID)
	assert.Equal(t, models.OffsetBefore7Days, r.Offset)
	assert.Equal(t, []models.ReminderChannel{models.ChannelInApp}, r.Channels)
	assert.Equal(t, "GST Filing", r.EventTitle)
	assert.True(t, r.EventDueDate.Equal(due))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderStore_Reschedule_OnlyPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	next := time.Date(2025, time.June, 3, 11, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE reminders`).
		WithArgs("rem-1", 1, next, sqlmock.AnyArg(), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewReminderStore(db)
	require.NoError(t, s.Reschedule(context.Background(), "rem-1", 1, next))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderStore_MarkSent_ResetsRetries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sentAt := time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE reminders`).
		WithArgs("rem-1", "SENT", sentAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewReminderStore(db)
	require.NoError(t, s.MarkSent(context.Background(), "rem-1", sentAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderStore_MarkFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE reminders`).
		WithArgs("rem-1", "FAILED", "Max retry attempts exceeded", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewReminderStore(db)
	require.NoError(t, s.MarkFailed(context.Background(), "rem-1", "Max retry attempts exceeded"))
}

func TestReminderStore_DeleteSentBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM reminders`).
		WithArgs("SENT", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 12))

	s := NewReminderStore(db)
	n, err := s.DeleteSentBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}
