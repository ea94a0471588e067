// internal/models/reminder.go
package models

import "time"

// ReminderOffset is the fixed offset before the due date at which a
// reminder fires.
type ReminderOffset string

const (
	OffsetBefore7Days ReminderOffset = "BEFORE_7_DAYS"
	OffsetBefore1Day  ReminderOffset = "BEFORE_1_DAY"
	OffsetOnDueDate   ReminderOffset = "ON_DUE_DATE"
)

// Valid reports whether o is a known offset.
func (o ReminderOffset) Valid() bool {
	switch o {
	case OffsetBefore7Days, OffsetBefore1Day, OffsetOnDueDate:
		return true
	}
	return false
}

// Days returns how many days before the due date the offset fires.
func (o ReminderOffset) Days() int {
	switch o {
	case OffsetBefore7Days:
		return 7
	case OffsetBefore1Day:
		return 1
	case OffsetOnDueDate:
		return 0
	}
	return 0
}

// AllOffsets lists every offset the scheduler creates, in firing order.
func AllOffsets() []ReminderOffset {
	return []ReminderOffset{OffsetBefore7Days, OffsetBefore1Day, OffsetOnDueDate}
}

// ReminderChannel is a delivery channel for reminder notifications.
type ReminderChannel string

const (
	ChannelInApp    ReminderChannel = "IN_APP"
	ChannelWhatsApp ReminderChannel = "WHATSAPP"
	ChannelEmail    ReminderChannel = "EMAIL"
)

// Valid reports whether c is a known channel.
func (c ReminderChannel) Valid() bool {
	switch c {
	case ChannelInApp, ChannelWhatsApp, ChannelEmail:
		return true
	}
	return false
}

// ReminderState is the dispatch state of a reminder.
type ReminderState string

const (
	ReminderPending ReminderState = "PENDING"
	ReminderSent    ReminderState = "SENT"
	ReminderFailed  ReminderState = "FAILED"
	ReminderSkipped ReminderState = "SKIPPED"
)

// Valid reports whether s is a known reminder state.
func (s ReminderState) Valid() bool {
	switch s {
	case ReminderPending, ReminderSent, ReminderFailed, ReminderSkipped:
		return true
	}
	return false
}

// Reminder is one scheduled notification tied to a status record and a
// fixed offset. At most one reminder exists per (status, offset) pair.
type Reminder struct {
	ID            string            `json:"id"`
	StatusID      string            `json:"statusId"`
	EventID       string            `json:"eventId"`
	EmployerID    string            `json:"employerId"`
	Offset        ReminderOffset    `json:"offsetType"`
	Channels      []ReminderChannel `json:"channels"`
	State         ReminderState     `json:"status"`
	ScheduledFor  time.Time         `json:"scheduledFor"`
	SentAt        *time.Time        `json:"sentAt,omitempty"`
	FailureReason string            `json:"failureReason,omitempty"`
	RetryCount    int               `json:"retryCount"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// DueReminder is a reminder joined with the event fields the dispatcher
// needs to build the notification payload.
type DueReminder struct {
	Reminder
	EventTitle   string    `json:"eventTitle"`
	EventDueDate time.Time `json:"eventDueDate"`
}
