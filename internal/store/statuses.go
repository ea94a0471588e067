// internal/store/statuses.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	stderrors "compliance-calendar/internal/common/errors"
	"compliance-calendar/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// StatusStore persists the per-(event, employer) fulfillment records.
type StatusStore struct {
	db *sql.DB
}

func NewStatusStore(db *sql.DB) *StatusStore {
	return &StatusStore{db: db}
}

// GetByEventAndEmployer returns the stored record or STATUS_NOT_FOUND.
func (s *StatusStore) GetByEventAndEmployer(ctx context.Context, eventID, employerID string) (*models.ComplianceStatus, error) {
	query := `SELECT id, event_id, employer_id, state, date_paid, notes, attachments, created_by, updated_by, created_at, updated_at
		FROM compliance_statuses WHERE event_id = $1 AND employer_id = $2`

	st, err := scanStatus(s.db.QueryRowContext(ctx, query, eventID, employerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stderrors.NewStatusNotFoundError(eventID, employerID)
		}
		return nil, stderrors.NewQueryExecutionFailedError("get status", err)
	}
	return st, nil
}

// Upsert writes the record keyed on (event_id, employer_id). Exactly one
// row per pair is the store's invariant; re-running an upsert after a
// partial failure is always safe.
func (s *StatusStore) Upsert(ctx context.Context, st *models.ComplianceStatus) error {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	query := `INSERT INTO compliance_statuses
		(id, event_id, employer_id, state, date_paid, notes, attachments, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id, employer_id) DO UPDATE SET
			state = EXCLUDED.state,
			date_paid = EXCLUDED.date_paid,
			notes = EXCLUDED.notes,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_by, created_at`

	err := s.db.QueryRowContext(ctx, query,
		st.ID, st.EventID, st.EmployerID, string(st.State), st.DatePaid, st.Notes,
		pq.Array(st.Attachments), st.CreatedBy, st.UpdatedBy, now, now,
	).Scan(&st.ID, &st.CreatedBy, &st.CreatedAt)
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("upsert status", err)
	}
	st.UpdatedAt = now
	return nil
}

// EnsureExists creates the UPCOMING default row if the pair has none yet.
// Returns the stored record either way.
func (s *StatusStore) EnsureExists(ctx context.Context, eventID, employerID, actor string) (*models.ComplianceStatus, error) {
	query := `INSERT INTO compliance_statuses
		(id, event_id, employer_id, state, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5, $6, $6)
		ON CONFLICT (event_id, employer_id) DO UPDATE SET updated_at = compliance_statuses.updated_at
		RETURNING id, event_id, employer_id, state, date_paid, notes, attachments, created_by, updated_by, created_at, updated_at`

	st, err := scanStatus(s.db.QueryRowContext(ctx, query,
		uuid.New().String(), eventID, employerID, string(models.StateUpcoming), actor, time.Now().UTC(),
	))
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("ensure status", err)
	}
	return st, nil
}

// AppendAttachment adds a file reference to the record's attachment list.
func (s *StatusStore) AppendAttachment(ctx context.Context, eventID, employerID, fileRef, actor string) error {
	query := `UPDATE compliance_statuses
		SET attachments = array_append(attachments, $3), updated_by = $4, updated_at = $5
		WHERE event_id = $1 AND employer_id = $2`

	res, err := s.db.ExecContext(ctx, query, eventID, employerID, fileRef, actor, time.Now().UTC())
	if err != nil {
		return stderrors.NewQueryExecutionFailedError("append attachment", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return stderrors.NewStatusNotFoundError(eventID, employerID)
	}
	return nil
}

// BulkMarkMissed transitions every non-terminal status referencing the
// given events to MISSED. PAID and already-MISSED rows are untouched, so
// re-running is a no-op. Returns the number of rows changed.
func (s *StatusStore) BulkMarkMissed(ctx context.Context, eventIDs []string, actor string) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}

	query := `UPDATE compliance_statuses
		SET state = $1, updated_by = $2, updated_at = $3
		WHERE event_id = ANY($4) AND state = ANY($5)`

	res, err := s.db.ExecContext(ctx, query,
		string(models.StateMissed), actor, time.Now().UTC(),
		pq.Array(eventIDs),
		pq.Array([]string{string(models.StateUpcoming), string(models.StateYetToPay)}),
	)
	if err != nil {
		return 0, stderrors.NewQueryExecutionFailedError("bulk mark missed", err)
	}
	return res.RowsAffected()
}

// ListByEmployer returns the employer's status records, most recently
// updated first.
func (s *StatusStore) ListByEmployer(ctx context.Context, employerID string, page, limit int) ([]*models.ComplianceStatus, error) {
	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}

	query := `SELECT id, event_id, employer_id, state, date_paid, notes, attachments, created_by, updated_by, created_at, updated_at
		FROM compliance_statuses WHERE employer_id = $1
		ORDER BY updated_at DESC LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, employerID, limit, (page-1)*limit)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("list statuses", err)
	}
	defer rows.Close()

	var out []*models.ComplianceStatus
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scan status", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// CountByState returns per-state counts for one employer.
func (s *StatusStore) CountByState(ctx context.Context, employerID string) (map[models.ComplianceState]int, error) {
	query := `SELECT state, COUNT(*) FROM compliance_statuses WHERE employer_id = $1 GROUP BY state`

	rows, err := s.db.QueryContext(ctx, query, employerID)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError("count statuses", err)
	}
	defer rows.Close()

	counts := map[models.ComplianceState]int{
		models.StateUpcoming: 0,
		models.StateYetToPay: 0,
		models.StatePaid:     0,
		models.StateMissed:   0,
	}
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, stderrors.NewQueryExecutionFailedError("scan status count", err)
		}
		counts[models.ComplianceState(state)] = n
	}
	return counts, rows.Err()
}

func scanStatus(row rowScanner) (*models.ComplianceStatus, error) {
	var st models.ComplianceStatus
	var state string
	var datePaid sql.NullTime
	var attachments pq.StringArray

	err := row.Scan(
		&st.ID, &st.EventID, &st.EmployerID, &state, &datePaid, &st.Notes,
		&attachments, &st.CreatedBy, &st.UpdatedBy, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.State = models.ComplianceState(state)
	if datePaid.Valid {
		t := datePaid.Time
		st.DatePaid = &t
	}
	st.Attachments = attachments
	return &st, nil
}
