package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/calltracker/internal/calls/domain"
	"github.com/google/uuid"
)

func TestMemoryEmployeeRepository(t *testing.T) {
	ctx := context.Background()
	zoe := newEmployee(t, "Zoe")
	anna := newEmployee(t, "Anna")
	repo := NewMemoryEmployeeRepository(zoe, anna)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Anna", all[0].Name())

	require.NoError(t, repo.UpdateRiskLevel(ctx, zoe.ID(), domain.RiskMedium))
	got, err := repo.FindByID(ctx, zoe.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.RiskMedium, got.RiskLevel())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrEmployeeNotFound)
}

func TestMemoryCallRepository(t *testing.T) {
	ctx := context.Background()
	e := newEmployee(t, "Anna")
	other := newEmployee(t, "Zoe")

	first, err := domain.NewCall(e.ID(), testNow, 0, "", testNow)
	require.NoError(t, err)
	second, err := domain.NewCall(other.ID(), testNow.Add(time.Hour), 0, "", testNow)
	require.NoError(t, err)

	repo := NewMemoryCallRepository(first)
	require.NoError(t, repo.Create(ctx, second))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := repo.ListByEmployee(ctx, e.ID())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID(), mine[0].ID())

	cancelled := domain.CallStatusCancelled
	updated, err := repo.Update(ctx, second.ID(), domain.CallPatch{Status: &cancelled})
	require.NoError(t, err)
	assert.True(t, updated.IsCancelled())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrCallNotFound)
}
