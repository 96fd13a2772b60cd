package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/calltracker/internal/calls/domain"
	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/migrations"
	"github.com/google/uuid"
)

var testNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: database.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = migrations.Run(ctx, conn)
	require.NoError(t, err)
	return conn
}

func ptr[T any](v T) *T { return &v }

func newEmployee(t *testing.T, name string) *domain.Employee {
	t.Helper()
	e, err := domain.NewEmployee(name, "Sales", testNow)
	require.NoError(t, err)
	return e
}

func TestSQLEmployeeRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLEmployeeRepository(setupDB(t))

	e := newEmployee(t, "Giulia Bianchi")
	e.SetPerformanceScore(4.5)
	e.SetContractExpiry(testNow.AddDate(0, 2, 0))
	e.SetCallFrequency(domain.FrequencyBiweekly)
	e.SetCallStats(3, ptr(3.7))
	require.NoError(t, repo.Save(ctx, e))

	got, err := repo.FindByID(ctx, e.ID())
	require.NoError(t, err)

	assert.Equal(t, e.ID(), got.ID())
	assert.Equal(t, "Giulia Bianchi", got.Name())
	assert.Equal(t, "Sales", got.Department())
	assert.True(t, got.IsActive())
	require.NotNil(t, got.PerformanceScore())
	assert.InDelta(t, 4.5, *got.PerformanceScore(), 0.001)
	require.NotNil(t, got.ContractExpiry())
	assert.True(t, got.ContractExpiry().Equal(testNow.AddDate(0, 2, 0)))
	assert.Equal(t, domain.FrequencyBiweekly, got.CallFrequency())
	assert.Equal(t, 3, got.TotalCalls())
	assert.Equal(t, domain.RiskLow, got.RiskLevel())
}

func TestSQLEmployeeRepository_SaveUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLEmployeeRepository(setupDB(t))

	e := newEmployee(t, "Marco Rossi")
	require.NoError(t, repo.Save(ctx, e))

	e.Deactivate(testNow.Add(time.Hour))
	require.NoError(t, repo.Save(ctx, e))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive())
}

func TestSQLEmployeeRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLEmployeeRepository(setupDB(t))

	_, err := repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)

	err = repo.UpdateRiskLevel(ctx, uuid.New(), domain.RiskHigh)
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
}

func TestSQLEmployeeRepository_UpdateRiskLevel(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLEmployeeRepository(setupDB(t))

	e := newEmployee(t, "Sara Verdi")
	require.NoError(t, repo.Save(ctx, e))
	require.NoError(t, repo.UpdateRiskLevel(ctx, e.ID(), domain.RiskHigh))

	got, err := repo.FindByID(ctx, e.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.RiskHigh, got.RiskLevel())
}

func TestSQLCallRepository_CreateListUpdate(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t)
	employees := NewSQLEmployeeRepository(conn)
	calls := NewSQLCallRepository(conn)
	calls.now = func() time.Time { return testNow.Add(2 * time.Hour) }

	e := newEmployee(t, "Giulia Bianchi")
	require.NoError(t, employees.Save(ctx, e))

	later, err := domain.NewCall(e.ID(), testNow.Add(48*time.Hour), 45*time.Minute, "follow-up", testNow)
	require.NoError(t, err)
	earlier, err := domain.NewCall(e.ID(), testNow.Add(24*time.Hour), 0, "", testNow)
	require.NoError(t, err)
	require.NoError(t, calls.Create(ctx, later))
	require.NoError(t, calls.Create(ctx, earlier))

	all, err := calls.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, earlier.ID(), all[0].ID())
	assert.Equal(t, 45*time.Minute, all[1].Duration())
	assert.Equal(t, domain.DefaultCallDuration, all[0].Duration())

	moved := testNow.Add(72 * time.Hour)
	updated, err := calls.Update(ctx, earlier.ID(), domain.CallPatch{ScheduledAt: &moved})
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusRescheduled, updated.Status())

	got, err := calls.FindByID(ctx, earlier.ID())
	require.NoError(t, err)
	assert.True(t, got.ScheduledAt().Equal(moved))
	assert.Equal(t, domain.CallStatusRescheduled, got.Status())

	byEmployee, err := calls.ListByEmployee(ctx, e.ID())
	require.NoError(t, err)
	assert.Len(t, byEmployee, 2)
}

func TestSQLCallRepository_CompleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t)
	employees := NewSQLEmployeeRepository(conn)
	calls := NewSQLCallRepository(conn)

	e := newEmployee(t, "Marco Rossi")
	require.NoError(t, employees.Save(ctx, e))
	c, err := domain.NewCall(e.ID(), testNow.Add(-time.Hour), 0, "", testNow)
	require.NoError(t, err)
	require.NoError(t, calls.Create(ctx, c))

	status := domain.CallStatusCompleted
	_, err = calls.Update(ctx, c.ID(), domain.CallPatch{
		Status:      &status,
		Rating:      ptr(2.5),
		CompletedAt: ptr(testNow),
	})
	require.NoError(t, err)

	got, err := calls.FindByID(ctx, c.ID())
	require.NoError(t, err)
	assert.True(t, got.IsCompleted())
	require.NotNil(t, got.Rating())
	assert.InDelta(t, 2.5, *got.Rating(), 0.001)
	require.NotNil(t, got.CompletedAt())
	assert.True(t, got.CompletedAt().Equal(testNow))
}

func TestSQLCallRepository_UpdateRejectsInvalidRating(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t)
	employees := NewSQLEmployeeRepository(conn)
	calls := NewSQLCallRepository(conn)

	e := newEmployee(t, "Sara Verdi")
	require.NoError(t, employees.Save(ctx, e))
	c, err := domain.NewCall(e.ID(), testNow, 0, "", testNow)
	require.NoError(t, err)
	require.NoError(t, calls.Create(ctx, c))

	_, err = calls.Update(ctx, c.ID(), domain.CallPatch{Rating: ptr(7.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	_, err = calls.Update(ctx, uuid.New(), domain.CallPatch{})
	assert.ErrorIs(t, err, domain.ErrCallNotFound)
}

func TestSQLCallRepository_MalformedTimestamp(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t)
	employees := NewSQLEmployeeRepository(conn)
	calls := NewSQLCallRepository(conn)

	e := newEmployee(t, "Luca Neri")
	require.NoError(t, employees.Save(ctx, e))
	_, err := conn.Exec(ctx, `INSERT INTO calls (id, employee_id, scheduled_at, status, created_at, updated_at)
		VALUES (?, ?, ?, 'scheduled', ?, ?)`,
		uuid.NewString(), e.ID().String(), "domani", formatTime(testNow), formatTime(testNow))
	require.NoError(t, err)

	_, err = calls.List(ctx)
	assert.ErrorIs(t, err, sharedDomain.ErrMalformedRecord)
}

func TestSQLRepositories_JoinUnitOfWork(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t)
	employees := NewSQLEmployeeRepository(conn)
	uow := database.NewUnitOfWork(conn)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, employees.Save(txCtx, newEmployee(t, "Rolled Back")))
	require.NoError(t, uow.Rollback(txCtx))

	all, err := employees.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
