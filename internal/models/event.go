// internal/models/event.go
package models

import "time"

// EventCategory classifies a compliance event.
type EventCategory string

const (
	CategoryStatutoryFiling EventCategory = "STATUTORY_FILING"
	CategoryTaxPayment      EventCategory = "TAX_PAYMENT"
	CategoryReturnFiling    EventCategory = "RETURN_FILING"
	CategoryHoliday         EventCategory = "HOLIDAY"
	CategoryPolicyUpdate    EventCategory = "POLICY_UPDATE"
	CategoryGeneral         EventCategory = "GENERAL"
)

// Valid reports whether c is a known category.
func (c EventCategory) Valid() bool {
	switch c {
	case CategoryStatutoryFiling, CategoryTaxPayment, CategoryReturnFiling,
		CategoryHoliday, CategoryPolicyUpdate, CategoryGeneral:
		return true
	}
	return false
}

// Recurrence is the interval rule for generating the next event occurrence.
type Recurrence string

const (
	RecurrenceNone      Recurrence = "NONE"
	RecurrenceDaily     Recurrence = "DAILY"
	RecurrenceWeekly    Recurrence = "WEEKLY"
	RecurrenceMonthly   Recurrence = "MONTHLY"
	RecurrenceQuarterly Recurrence = "QUARTERLY"
	RecurrenceYearly    Recurrence = "YEARLY"
)

// Valid reports whether r is a known recurrence pattern.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly,
		RecurrenceMonthly, RecurrenceQuarterly, RecurrenceYearly:
		return true
	}
	return false
}

// ComplianceEvent is a dated obligation tracked on the calendar.
// Events are soft-deactivated, never hard-deleted.
type ComplianceEvent struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Notes       string        `json:"notes,omitempty"`
	Category    EventCategory `json:"category"`
	DueDate     time.Time     `json:"dueDate"`
	Recurrence  Recurrence    `json:"recurrence"`
	DocumentRef string        `json:"documentRef,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Active      bool          `json:"active"`
	CreatedBy   string        `json:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// CloneFor returns a copy of the event for the next occurrence. The clone
// carries the same recurrence, tags and document reference; the id is left
// empty for the store to assign.
func (e *ComplianceEvent) CloneFor(dueDate time.Time, actor string) *ComplianceEvent {
	tags := make([]string, len(e.Tags))
	copy(tags, e.Tags)

	return &ComplianceEvent{
		Title:       e.Title,
		Notes:       e.Notes,
		Category:    e.Category,
		DueDate:     dueDate,
		Recurrence:  e.Recurrence,
		DocumentRef: e.DocumentRef,
		Tags:        tags,
		Active:      true,
		CreatedBy:   actor,
	}
}
