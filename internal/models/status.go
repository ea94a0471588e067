// internal/models/status.go
package models

import "time"

// ComplianceState is the per-employer fulfillment state for one event.
type ComplianceState string

const (
	StateUpcoming ComplianceState = "UPCOMING"
	StateYetToPay ComplianceState = "YET_TO_PAY"
	StatePaid     ComplianceState = "PAID"
	StateMissed   ComplianceState = "MISSED"
)

// Valid reports whether s is a known state.
func (s ComplianceState) Valid() bool {
	switch s {
	case StateUpcoming, StateYetToPay, StatePaid, StateMissed:
		return true
	}
	return false
}

// Terminal reports whether automated transitions out of s are forbidden.
// The sweeper only touches non-terminal states; manual correction through
// the update path is still possible.
func (s ComplianceState) Terminal() bool {
	switch s {
	case StatePaid, StateMissed:
		return true
	case StateUpcoming, StateYetToPay:
		return false
	}
	return false
}

// ComplianceStatus is the fulfillment record for one (event, employer)
// pair. Exactly one row exists per pair; it is created lazily on the first
// write and upserted afterwards.
type ComplianceStatus struct {
	ID          string          `json:"id"`
	EventID     string          `json:"eventId"`
	EmployerID  string          `json:"employerId"`
	State       ComplianceState `json:"status"`
	DatePaid    *time.Time      `json:"datePaid,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	Attachments []string        `json:"attachments,omitempty"`
	CreatedBy   string          `json:"createdBy"`
	UpdatedBy   string          `json:"updatedBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// DefaultStatus is the virtual UPCOMING record returned when no row has
// been persisted yet. It carries no id so callers can tell it apart from a
// stored record.
func DefaultStatus(eventID, employerID string) *ComplianceStatus {
	return &ComplianceStatus{
		EventID:    eventID,
		EmployerID: employerID,
		State:      StateUpcoming,
	}
}
