package dispatchreminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/models"
	"compliance-calendar/internal/notify"
	"compliance-calendar/pkg/registry"
)

type mockReminders struct {
	due        []*models.DueReminder
	retryCount int

	sentIDs        []string
	rescheduled    map[string]int
	rescheduledAt  map[string]time.Time
	failedReasons  map[string]string
	listDueErr     error
	getRetryCalled int
}

func newMockReminders(due ...*models.DueReminder) *mockReminders {
	return &mockReminders{
		due:           due,
		rescheduled:   map[string]int{},
		rescheduledAt: map[string]time.Time{},
		failedReasons: map[string]string{},
	}
}

func (m *mockReminders) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.DueReminder, error) {
	if m.listDueErr != nil {
		return nil, m.listDueErr
	}
	if len(m.due) > limit {
		return m.due[:limit], nil
	}
	return m.due, nil
}

func (m *mockReminders) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	m.sentIDs = append(m.sentIDs, id)
	return nil
}

func (m *mockReminders) GetRetryCount(ctx context.Context, id string) (int, error) {
	m.getRetryCalled++
	return m.retryCount, nil
}

func (m *mockReminders) Reschedule(ctx context.Context, id string, retryCount int, next time.Time) error {
	m.rescheduled[id] = retryCount
	m.rescheduledAt[id] = next
	return nil
}

func (m *mockReminders) MarkFailed(ctx context.Context, id, reason string) error {
	m.failedReasons[id] = reason
	return nil
}

type mockNotifier struct {
	result *notify.Result
	calls  []*notify.Payload
}

func (m *mockNotifier) SendNotification(ctx context.Context, p *notify.Payload) *notify.Result {
	m.calls = append(m.calls, p)
	return m.result
}

type mockLease struct {
	acquired bool
	err      error
	released bool
}

func (m *mockLease) Acquire(ctx context.Context, job string, ttl time.Duration) (bool, error) {
	return m.acquired, m.err
}

func (m *mockLease) Release(ctx context.Context, job string) error {
	m.released = true
	return nil
}

type mockAuditor struct {
	records []*notify.DeliveryAudit
}

func (m *mockAuditor) Record(ctx context.Context, a *notify.DeliveryAudit) error {
	m.records = append(m.records, a)
	return nil
}

func dueReminder(id string) *models.DueReminder {
	return &models.DueReminder{
		Reminder: models.Reminder{
			ID:           id,
			StatusID:     "st-1",
			EventID:      "ev-1",
			EmployerID:   "emp-1",
			Offset:       models.OffsetBefore7Days,
			Channels:     []models.ReminderChannel{models.ChannelInApp},
			State:        models.ReminderPending,
			ScheduledFor: time.Now().Add(-time.Hour),
		},
		EventTitle:   "GST Filing",
		EventDueDate: time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
	}
}

func newTestHandler(t *testing.T, rem *mockReminders, n *mockNotifier, lease *mockLease, aud *mockAuditor) *Handler {
	deps := Dependencies{Reminders: rem, Notifier: n, Auditor: aud, Lease: lease}
	return NewHandler(deps, DefaultConfig(), registry.DefaultRegistry(), logger.NewTestLogger(t))
}

func TestRunMarksSentOnSuccess(t *testing.T) {
	rem := newMockReminders(dueReminder("rem-1"))
	n := &mockNotifier{result: &notify.Result{
		Success:  true,
		Channels: map[models.ReminderChannel]bool{models.ChannelInApp: true},
	}}
	lease := &mockLease{acquired: true}
	aud := &mockAuditor{}

	report, err := newTestHandler(t, rem, n, lease, aud).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, []string{"rem-1"}, rem.sentIDs)
	assert.True(t, lease.released)

	require.Len(t, n.calls, 1)
	assert.Equal(t, "Upcoming compliance: GST Filing", n.calls[0].Subject)
	assert.Equal(t, "GST Filing is due on 2025-06-30. You have 7 days left.", n.calls[0].Message)

	require.Len(t, aud.records, 1)
	assert.Equal(t, "sent", aud.records[0].Outcome)
}

func TestRunReschedulesOnFailure(t *testing.T) {
	rem := newMockReminders(dueReminder("rem-1"))
	rem.retryCount = 1
	n := &mockNotifier{result: &notify.Result{
		Success: false,
		Errors:  map[models.ReminderChannel]string{models.ChannelInApp: "boom"},
	}}
	lease := &mockLease{acquired: true}

	started := time.Now().UTC()
	report, err := newTestHandler(t, rem, n, lease, &mockAuditor{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rescheduled)
	assert.Equal(t, 2, rem.rescheduled["rem-1"])
	assert.Empty(t, rem.failedReasons)

	// fixed one hour backoff from the run timestamp
	next := rem.rescheduledAt["rem-1"]
	assert.WithinDuration(t, started.Add(time.Hour), next, 5*time.Second)
}

func TestRunMarksFailedAfterRetriesExhausted(t *testing.T) {
	rem := newMockReminders(dueReminder("rem-1"))
	rem.retryCount = 3
	n := &mockNotifier{result: &notify.Result{
		Success: false,
		Errors:  map[models.ReminderChannel]string{models.ChannelInApp: "boom"},
	}}
	lease := &mockLease{acquired: true}
	aud := &mockAuditor{}

	report, err := newTestHandler(t, rem, n, lease, aud).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, "Max retry attempts exceeded", rem.failedReasons["rem-1"])
	assert.Empty(t, rem.rescheduled)

	require.Len(t, aud.records, 1)
	assert.Equal(t, "failed", aud.records[0].Outcome)
}

func TestRunSkipsWhenLeaseHeld(t *testing.T) {
	rem := newMockReminders(dueReminder("rem-1"))
	n := &mockNotifier{}
	lease := &mockLease{acquired: false}

	report, err := newTestHandler(t, rem, n, lease, &mockAuditor{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Due)
	assert.Empty(t, n.calls)
	assert.False(t, lease.released)
}

func TestRunLeavesInvalidPayloadPending(t *testing.T) {
	broken := dueReminder("rem-1")
	broken.EventTitle = "" // violates the contract's required title
	rem := newMockReminders(broken)
	n := &mockNotifier{}
	lease := &mockLease{acquired: true}

	report, err := newTestHandler(t, rem, n, lease, &mockAuditor{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Invalid)
	assert.Empty(t, n.calls)
	assert.Empty(t, rem.sentIDs)
	assert.Empty(t, rem.failedReasons)
	assert.Equal(t, 0, rem.getRetryCalled)
}

func TestRunBoundsBatchSize(t *testing.T) {
	var due []*models.DueReminder
	for i := 0; i < 5; i++ {
		due = append(due, dueReminder("rem-"+string(rune('a'+i))))
	}
	rem := newMockReminders(due...)
	n := &mockNotifier{result: &notify.Result{
		Success:  true,
		Channels: map[models.ReminderChannel]bool{models.ChannelInApp: true},
	}}
	lease := &mockLease{acquired: true}

	cfg := DefaultConfig()
	cfg.BatchSize = 2
	deps := Dependencies{Reminders: rem, Notifier: n, Auditor: &mockAuditor{}, Lease: lease}
	h := NewHandler(deps, cfg, registry.DefaultRegistry(), logger.NewTestLogger(t))

	report, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Due)
	assert.Len(t, rem.sentIDs, 2)
}

func TestRunPropagatesListError(t *testing.T) {
	rem := newMockReminders()
	rem.listDueErr = errors.New("db down")
	lease := &mockLease{acquired: true}

	_, err := newTestHandler(t, rem, &mockNotifier{}, lease, &mockAuditor{}).Run(context.Background())
	assert.Error(t, err)
	assert.True(t, lease.released)
}
