package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/calls/domain"
	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const callColumns = `id, employee_id, scheduled_at, duration_minutes, status, rating,
	completed_at, notes, created_at, updated_at`

// SQLCallRepository implements domain.CallRepository on either driver.
type SQLCallRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLCallRepository creates a new call repository.
func NewSQLCallRepository(conn database.Connection) *SQLCallRepository {
	return &SQLCallRepository{conn: conn, now: time.Now}
}

func (r *SQLCallRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLCallRepository) bind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// List returns every call ordered by scheduled time.
func (r *SQLCallRepository) List(ctx context.Context) ([]*domain.Call, error) {
	return r.query(ctx, `SELECT `+callColumns+` FROM calls ORDER BY scheduled_at`)
}

// ListByEmployee returns an employee's calls ordered by scheduled time.
func (r *SQLCallRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*domain.Call, error) {
	return r.query(ctx, r.bind(`SELECT `+callColumns+` FROM calls WHERE employee_id = ? ORDER BY scheduled_at`), employeeID.String())
}

func (r *SQLCallRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Call, error) {
	rows, err := r.exec(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	var calls []*domain.Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// FindByID returns the call or domain.ErrCallNotFound.
func (r *SQLCallRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Call, error) {
	row := r.exec(ctx).QueryRow(ctx, r.bind(`SELECT `+callColumns+` FROM calls WHERE id = ?`), id.String())
	c, err := scanCall(row)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCallNotFound, id)
	}
	return c, err
}

// Create inserts a new call.
func (r *SQLCallRepository) Create(ctx context.Context, c *domain.Call) error {
	_, err := r.exec(ctx).Exec(ctx,
		r.bind(`INSERT INTO calls (`+callColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		callArgs(c)...,
	)
	if err != nil {
		return fmt.Errorf("create call %s: %w", c.ID(), err)
	}
	return nil
}

// Update applies a partial update and returns the stored result.
func (r *SQLCallRepository) Update(ctx context.Context, id uuid.UUID, patch domain.CallPatch) (*domain.Call, error) {
	c, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(patch, r.now()); err != nil {
		return nil, err
	}

	_, err = r.exec(ctx).Exec(ctx,
		r.bind(`UPDATE calls SET scheduled_at = ?, status = ?, rating = ?, completed_at = ?,
			notes = ?, updated_at = ? WHERE id = ?`),
		nullScheduled(c.ScheduledAt()),
		string(c.Status()),
		nullFloat(c.Rating()),
		nullTime(c.CompletedAt()),
		c.Notes(),
		formatTime(c.UpdatedAt()),
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("update call %s: %w", id, err)
	}
	return c, nil
}

func callArgs(c *domain.Call) []any {
	return []any{
		c.ID().String(),
		c.EmployeeID().String(),
		nullScheduled(c.ScheduledAt()),
		int(c.Duration() / time.Minute),
		string(c.Status()),
		nullFloat(c.Rating()),
		nullTime(c.CompletedAt()),
		c.Notes(),
		formatTime(c.CreatedAt()),
		formatTime(c.UpdatedAt()),
	}
}

// scanCall keeps rows with a missing schedule or completion time so the
// scheduling services can skip them with a log line. Unparseable values are
// reported as malformed.
func scanCall(row database.Row) (*domain.Call, error) {
	var (
		id, employeeID       string
		scheduled, completed sql.NullString
		minutes              int
		status, notes        string
		rating               sql.NullFloat64
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &employeeID, &scheduled, &minutes, &status, &rating,
		&completed, &notes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	callID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("call id %q: %w: %w", id, sharedDomain.ErrMalformedRecord, err)
	}
	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, fmt.Errorf("call employee_id %q: %w: %w", employeeID, sharedDomain.ErrMalformedRecord, err)
	}

	var scheduledAt time.Time
	if at, err := parseNullTime("scheduled_at", scheduled); err != nil {
		return nil, err
	} else if at != nil {
		scheduledAt = *at
	}
	completedAt, err := parseNullTime("completed_at", completed)
	if err != nil {
		return nil, err
	}
	created, err := parseTime("created_at", createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime("updated_at", updatedAt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateCall(
		callID,
		empID,
		scheduledAt,
		time.Duration(minutes)*time.Minute,
		domain.CallStatus(status),
		floatPtr(rating),
		completedAt,
		notes,
		created,
		updated,
	), nil
}
