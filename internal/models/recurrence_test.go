package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name       string
		from       time.Time
		recurrence Recurrence
		want       time.Time
		ok         bool
	}{
		{
			name:       "daily",
			from:       date(2025, time.June, 10),
			recurrence: RecurrenceDaily,
			want:       date(2025, time.June, 11),
			ok:         true,
		},
		{
			name:       "weekly",
			from:       date(2025, time.June, 10),
			recurrence: RecurrenceWeekly,
			want:       date(2025, time.June, 17),
			ok:         true,
		},
		{
			name:       "monthly clamps to month end",
			from:       date(2025, time.January, 31),
			recurrence: RecurrenceMonthly,
			want:       date(2025, time.February, 28),
			ok:         true,
		},
		{
			name:       "monthly clamps to leap day",
			from:       date(2024, time.January, 31),
			recurrence: RecurrenceMonthly,
			want:       date(2024, time.February, 29),
			ok:         true,
		},
		{
			name:       "monthly keeps mid-month day",
			from:       date(2025, time.March, 15),
			recurrence: RecurrenceMonthly,
			want:       date(2025, time.April, 15),
			ok:         true,
		},
		{
			name:       "quarterly crosses year boundary",
			from:       date(2025, time.November, 30),
			recurrence: RecurrenceQuarterly,
			want:       date(2026, time.February, 28),
			ok:         true,
		},
		{
			name:       "yearly from leap day clamps",
			from:       date(2024, time.February, 29),
			recurrence: RecurrenceYearly,
			want:       date(2025, time.February, 28),
			ok:         true,
		},
		{
			name:       "none does not recur",
			from:       date(2025, time.June, 10),
			recurrence: RecurrenceNone,
			ok:         false,
		},
		{
			name:       "unknown pattern does not recur",
			from:       date(2025, time.June, 10),
			recurrence: Recurrence("FORTNIGHTLY"),
			ok:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextDueDate(tt.from, tt.recurrence)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextDueDate_Deterministic(t *testing.T) {
	from := date(2025, time.January, 31)
	first, _ := NextDueDate(from, RecurrenceMonthly)
	second, _ := NextDueDate(from, RecurrenceMonthly)
	assert.True(t, first.Equal(second))
}

func TestDayWindow(t *testing.T) {
	at := time.Date(2025, time.June, 10, 14, 35, 12, 0, time.UTC)
	start, end := DayWindow(at)

	assert.Equal(t, date(2025, time.June, 10), start)
	assert.True(t, end.After(start))
	assert.Equal(t, 10, end.Day())
	assert.Equal(t, 23, end.Hour())
}

func TestOffsetDays(t *testing.T) {
	assert.Equal(t, 7, OffsetBefore7Days.Days())
	assert.Equal(t, 1, OffsetBefore1Day.Days())
	assert.Equal(t, 0, OffsetOnDueDate.Days())
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StatePaid.Terminal())
	assert.True(t, StateMissed.Terminal())
	assert.False(t, StateUpcoming.Terminal())
	assert.False(t, StateYetToPay.Terminal())
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, RecurrenceMonthly.Valid())
	assert.False(t, Recurrence("SOMETIMES").Valid())
	assert.True(t, CategoryStatutoryFiling.Valid())
	assert.False(t, EventCategory("BIRTHDAY").Valid())
	assert.True(t, ChannelWhatsApp.Valid())
	assert.False(t, ReminderChannel("PIGEON").Valid())
	assert.True(t, ReminderSkipped.Valid())
	assert.False(t, ReminderState("LOST").Valid())
}

func TestCloneFor(t *testing.T) {
	ev := &ComplianceEvent{
		ID:          "ev-1",
		Title:       "GST Filing",
		Category:    CategoryStatutoryFiling,
		DueDate:     date(2025, time.January, 31),
		Recurrence:  RecurrenceMonthly,
		DocumentRef: "doc-9",
		Tags:        []string{"gst", "statutory"},
		Active:      true,
	}

	next := date(2025, time.February, 28)
	clone := ev.CloneFor(next, "system")

	assert.Empty(t, clone.ID)
	assert.Equal(t, ev.Title, clone.Title)
	assert.Equal(t, ev.Recurrence, clone.Recurrence)
	assert.Equal(t, ev.DocumentRef, clone.DocumentRef)
	assert.Equal(t, ev.Tags, clone.Tags)
	assert.True(t, clone.DueDate.Equal(next))
	assert.Equal(t, "system", clone.CreatedBy)
	assert.True(t, clone.Active)

	// tag slice must not alias the original
	clone.Tags[0] = "changed"
	assert.Equal(t, "gst", ev.Tags[0])
}
