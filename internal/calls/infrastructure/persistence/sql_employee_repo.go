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

const employeeColumns = `id, name, department, active, performance_score, contract_expiry,
	call_frequency, average_call_rating, total_calls, risk_level, created_at, updated_at`

// SQLEmployeeRepository implements domain.EmployeeRepository on either driver.
type SQLEmployeeRepository struct {
	conn database.Connection
	now  func() time.Time
}

// NewSQLEmployeeRepository creates a new employee repository.
func NewSQLEmployeeRepository(conn database.Connection) *SQLEmployeeRepository {
	return &SQLEmployeeRepository{conn: conn, now: time.Now}
}

func (r *SQLEmployeeRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLEmployeeRepository) bind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

// List returns all employees ordered by name.
func (r *SQLEmployeeRepository) List(ctx context.Context) ([]*domain.Employee, error) {
	rows, err := r.exec(ctx).Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []*domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// FindByID returns the employee or domain.ErrEmployeeNotFound.
func (r *SQLEmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	row := r.exec(ctx).QueryRow(ctx, r.bind(`SELECT `+employeeColumns+` FROM employees WHERE id = ?`), id.String())
	e, err := scanEmployee(row)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmployeeNotFound, id)
	}
	return e, err
}

// Save inserts or fully updates an employee.
func (r *SQLEmployeeRepository) Save(ctx context.Context, e *domain.Employee) error {
	query := r.bind(`INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			department = excluded.department,
			active = excluded.active,
			performance_score = excluded.performance_score,
			contract_expiry = excluded.contract_expiry,
			call_frequency = excluded.call_frequency,
			average_call_rating = excluded.average_call_rating,
			total_calls = excluded.total_calls,
			risk_level = excluded.risk_level,
			updated_at = excluded.updated_at`)

	_, err := r.exec(ctx).Exec(ctx, query,
		e.ID().String(),
		e.Name(),
		e.Department(),
		boolToInt(e.IsActive()),
		nullFloat(e.PerformanceScore()),
		nullTime(e.ContractExpiry()),
		string(e.CallFrequency()),
		nullFloat(e.AverageCallRating()),
		e.TotalCalls(),
		string(e.RiskLevel()),
		formatTime(e.CreatedAt()),
		formatTime(e.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save employee %s: %w", e.ID(), err)
	}
	return nil
}

// UpdateRiskLevel writes only the risk level column.
func (r *SQLEmployeeRepository) UpdateRiskLevel(ctx context.Context, id uuid.UUID, level domain.RiskLevel) error {
	result, err := r.exec(ctx).Exec(ctx,
		r.bind(`UPDATE employees SET risk_level = ?, updated_at = ? WHERE id = ?`),
		string(level), formatTime(r.now()), id.String(),
	)
	if err != nil {
		return fmt.Errorf("update risk level: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEmployeeNotFound, id)
	}
	return nil
}

func scanEmployee(row database.Row) (*domain.Employee, error) {
	var (
		id, name, department   string
		active                 int
		performance, avgRating sql.NullFloat64
		expiry                 sql.NullString
		frequency, risk        string
		totalCalls             int
		createdAt, updatedAt   string
	)
	err := row.Scan(&id, &name, &department, &active, &performance, &expiry,
		&frequency, &avgRating, &totalCalls, &risk, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	employeeID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("employee id %q: %w: %w", id, sharedDomain.ErrMalformedRecord, err)
	}
	contractExpiry, err := parseNullTime("contract_expiry", expiry)
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

	return domain.RehydrateEmployee(
		employeeID,
		name,
		department,
		active != 0,
		floatPtr(performance),
		contractExpiry,
		domain.CallFrequency(frequency),
		floatPtr(avgRating),
		totalCalls,
		domain.RiskLevel(risk),
		created,
		updated,
	), nil
}
