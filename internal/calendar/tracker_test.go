// internal/calendar/tracker_test.go
package calendar

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-calendar/internal/common/errors"
	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/models"
	"compliance-calendar/internal/store"
)

func eventRow(id string) *sqlmock.Rows {
	due := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "title", "notes", "category", "due_date", "recurrence",
		"document_ref", "tags", "active", "created_by", "created_at", "updated_at",
	}).AddRow(
		id, "GST Filing", "", "STATUTORY_FILING", due, "MONTHLY",
		"", "{gst}", true, "admin-1", due, due,
	)
}

func newTracker(t *testing.T, db *store.EventStore, st *store.StatusStore, rem *store.ReminderStore) *Tracker {
	return NewTracker(db, st, rem, nil, logger.NewTestLogger(t))
}

func TestGetOrDefaultReturnsVirtualUpcoming(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM compliance_events WHERE id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(eventRow("ev-1"))
	mock.ExpectQuery(`SELECT .+ FROM compliance_statuses WHERE event_id = \$1 AND employer_id = \$2`).
		WithArgs("ev-1", "emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	tr := newTracker(t, store.NewEventStore(db), store.NewStatusStore(db), store.NewReminderStore(db))
	st, err := tr.GetOrDefault(context.Background(), "ev-1", "emp-1")
	require.NoError(t, err)
	assert.Empty(t, st.ID)
	assert.Equal(t, models.StateUpcoming, st.State)
	assert.Equal(t, "emp-1", st.EmployerID)
}

func TestGetOrDefaultUnknownEvent(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM compliance_events WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	tr := newTracker(t, store.NewEventStore(db), store.NewStatusStore(db), store.NewReminderStore(db))
	_, err = tr.GetOrDefault(context.Background(), "missing", "emp-1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeEventNotFound))
}

func TestSetStatusPaidRequiresDatePaid(t *testing.T) {
	tr := newTracker(t, nil, nil, nil)
	_, err := tr.SetStatus(context.Background(), SetStatusInput{
		EventID:    "ev-1",
		EmployerID: "emp-1",
		State:      models.StatePaid,
		Actor:      "emp-1",
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodePaidWithoutDate))
}

func TestSetStatusRejectsUnknownState(t *testing.T) {
	tr := newTracker(t, nil, nil, nil)
	_, err := tr.SetStatus(context.Background(), SetStatusInput{
		EventID:    "ev-1",
		EmployerID: "emp-1",
		State:      models.ComplianceState("DONE"),
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidStatusValue))
}

func TestSetStatusUpserts(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM compliance_events WHERE id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(eventRow("ev-1"))
	mock.ExpectQuery(`SELECT .+ FROM compliance_statuses WHERE event_id = \$1 AND employer_id = \$2`).
		WithArgs("ev-1", "emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO compliance_statuses`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_by", "created_at"}).
			AddRow("st-1", "emp-1", created))

	tr := newTracker(t, store.NewEventStore(db), store.NewStatusStore(db), store.NewReminderStore(db))
	paid := time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC)
	st, err := tr.SetStatus(context.Background(), SetStatusInput{
		EventID:    "ev-1",
		EmployerID: "emp-1",
		State:      models.StatePaid,
		DatePaid:   &paid,
		Actor:      "emp-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "st-1", st.ID)
	assert.Equal(t, models.StatePaid, st.State)
	require.NotNil(t, st.DatePaid)
	assert.Equal(t, paid, *st.DatePaid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusInvalidatesSummaryCache(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM compliance_events WHERE id = \$1`).
		WillReturnRows(eventRow("ev-1"))
	mock.ExpectQuery(`SELECT .+ FROM compliance_statuses WHERE event_id = \$1 AND employer_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO compliance_statuses`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_by", "created_at"}).
			AddRow("st-1", "emp-1", time.Now()))

	cache, cacheMock := redismock.NewClientMock()
	cacheMock.ExpectDel("compliance-summary:emp-1").SetVal(1)

	tr := NewTracker(store.NewEventStore(db), store.NewStatusStore(db), store.NewReminderStore(db), cache, logger.NewTestLogger(t))
	_, err = tr.SetStatus(context.Background(), SetStatusInput{
		EventID:    "ev-1",
		EmployerID: "emp-1",
		State:      models.StateYetToPay,
		Actor:      "emp-1",
	})
	require.NoError(t, err)
	require.NoError(t, cacheMock.ExpectationsWereMet())
}

func TestSummaryCacheHitSkipsDatabase(t *testing.T) {
	counts := map[models.ComplianceState]int{
		models.StateUpcoming: 2,
		models.StateYetToPay: 0,
		models.StatePaid:     5,
		models.StateMissed:   1,
	}
	cached, err := json.Marshal(counts)
	require.NoError(t, err)

	cache, cacheMock := redismock.NewClientMock()
	cacheMock.ExpectGet("compliance-summary:emp-1").SetVal(string(cached))

	tr := NewTracker(nil, nil, nil, cache, logger.NewNoOpLogger())
	got, err := tr.Summary(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, counts, got)
	require.NoError(t, cacheMock.ExpectationsWereMet())
}

func TestSummaryCacheMissQueriesAndCaches(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT state, COUNT\(\*\) FROM compliance_statuses`).
		WithArgs("emp-1").
		WillReturnRows(sqlmock.NewRows([]string{"state", "count"}).AddRow("PAID", 3))

	cache, cacheMock := redismock.NewClientMock()
	cacheMock.ExpectGet("compliance-summary:emp-1").RedisNil()
	expected := map[models.ComplianceState]int{
		models.StateUpcoming: 0,
		models.StateYetToPay: 0,
		models.StatePaid:     3,
		models.StateMissed:   0,
	}
	data, err := json.Marshal(expected)
	require.NoError(t, err)
	cacheMock.ExpectSet("compliance-summary:emp-1", data, summaryCacheTTL).SetVal("OK")

	tr := NewTracker(nil, store.NewStatusStore(db), nil, cache, logger.NewNoOpLogger())
	got, err := tr.Summary(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, expected, got)
	require.NoError(t, cacheMock.ExpectationsWereMet())
}

func TestAppendAttachmentEnsuresRecord(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM compliance_events WHERE id = \$1`).
		WillReturnRows(eventRow("ev-1"))
	mock.ExpectQuery(`INSERT INTO compliance_statuses`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "event_id", "employer_id", "state", "date_paid", "notes",
			"attachments", "created_by", "updated_by", "created_at", "updated_at",
		}).AddRow("st-1", "ev-1", "emp-1", "UPCOMING", nil, "", "{}", "emp-1", "emp-1", now, now))
	mock.ExpectExec(`UPDATE compliance_statuses\s+SET attachments = array_append`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tr := newTracker(t, store.NewEventStore(db), store.NewStatusStore(db), store.NewReminderStore(db))
	err = tr.AppendAttachment(context.Background(), "ev-1", "emp-1", "s3://proofs/ch.pdf", "emp-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
