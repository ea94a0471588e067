// internal/store/events.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	stderrors "compliance-calendar/internal/common/errors"
	"compliance-calendar/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const eventColumns = `id, title, notes, category, due_date, recurrence, document_ref, tags, active, created_by, created_at, updated_at`

// EventStore persists compliance event definitions.
type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// Create inserts a new event. An empty id is assigned a fresh uuid.
func (s *EventStore) Create(ctx context.Context, e *models.ComplianceEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	query := `INSERT INTO compliance_events
		(id, title, notes, category, due_date, recurrence, document_ref, tags, active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Title, e.Notes, string(e.Category), e.DueDate, string(e.Recurrence),
		e.DocumentRef, pq.Array(e.Tags), e.Active, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("create event", err)
	}
	return nil
}

// GetByID returns one event or an EVENT_NOT_FOUND error.
func (s *EventStore) GetByID(ctx context.Context, id string) (*models.ComplianceEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM compliance_events WHERE id = $1`, eventColumns)

	e, err := scanEvent(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stderrors.NewEventNotFoundError(id)
		}
		return nil, stderrors.NewQueryExecutionFailedError("get event", err)
	}
	return e, nil
}

// EventFilter narrows List results. Zero values mean "no filter".
type EventFilter struct {
	Category   models.EventCategory
	ActiveOnly bool
	DueFrom    time.Time
	DueTo      time.Time
	Page       int
	Limit      int
}

// List returns events ordered by due date ascending.
func (s *EventStore) List(ctx context.Context, f EventFilter) ([]*models.ComplianceEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM compliance_events WHERE 1=1`, eventColumns)
	args := []interface{}{}

	if f.ActiveOnly {
		query += ` AND active = TRUE`
	}
	if f.Category != "" {
		args = append(args, string(f.Category))
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if !f.DueFrom.IsZero() {
		args = append(args, f.DueFrom)
		query += fmt.Sprintf(` AND due_date >= $%d`, len(args))
	}
	if !f.DueTo.IsZero() {
		args = append(args, f.DueTo)
		query += fmt.Sprintf(` AND due_date <= $%d`, len(args))
	}

	query += ` ORDER BY due_date ASC`

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))
	args = append(args, (page-1)*limit)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("list events", err)
	}
	defer rows.Close()

	var events []*models.ComplianceEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scan event", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ExistsOnDay reports whether an active event with the same title and
// category already exists inside the given day window. The materializer
// uses this to keep occurrence creation idempotent.
func (s *EventStore) ExistsOnDay(ctx context.Context, title string, category models.EventCategory, dayStart, dayEnd time.Time) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM compliance_events
		WHERE title = $1 AND category = $2 AND active = TRUE
		  AND due_date >= $3 AND due_date <= $4
	)`

	var exists bool
	err := s.db.QueryRowContext(ctx, query, title, string(category), dayStart, dayEnd).Scan(&exists)
	if err != nil {
		return false, stderrors.NewQueryExecutionFailedError("event exists on day", err)
	}
	return exists, nil
}

// Deactivate soft-deletes an event. Archived events keep their rows.
func (s *EventStore) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE compliance_events SET active = FALSE, updated_at = $2 WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("deactivate event", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return stderrors.NewEventNotFoundError(id)
	}
	return nil
}

// ListRecurringActive returns every active event with a recurrence pattern.
func (s *EventStore) ListRecurringActive(ctx context.Context) ([]*models.ComplianceEvent, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM compliance_events WHERE active = TRUE AND recurrence <> $1 ORDER BY due_date ASC`,
		eventColumns,
	)

	rows, err := s.db.QueryContext(ctx, query, string(models.RecurrenceNone))
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("list recurring events", err)
	}
	defer rows.Close()

	var events []*models.ComplianceEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scan event", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListOverdueIDs returns ids of active events whose due date is strictly
// before now.
func (s *EventStore) ListOverdueIDs(ctx context.Context, now time.Time) ([]string, error) {
	query := `SELECT id FROM compliance_events WHERE active = TRUE AND due_date < $1`

	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("list overdue events", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scan overdue event id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.ComplianceEvent, error) {
	var e models.ComplianceEvent
	var category, recurrence string
	var tags pq.StringArray

	err := row.Scan(
		&e.ID, &e.Title, &e.Notes, &category, &e.DueDate, &recurrence,
		&e.DocumentRef, &tags, &e.Active, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Category = models.EventCategory(category)
	e.Recurrence = models.Recurrence(recurrence)
	e.Tags = tags
	return &e, nil
}
