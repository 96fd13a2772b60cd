package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type txMarker struct{}

func TestWithUnitOfWork(t *testing.T) {
	importErr := errors.New("import failed")
	rollbackErr := errors.New("rollback failed")
	commitErr := errors.New("commit failed")
	beginErr := errors.New("begin failed")

	tests := []struct {
		name       string
		beginErr   error
		fnErr      error
		commitErr  error
		rollbackEr error
		wantErrs   []error
		wantRan    bool
	}{
		{name: "commits on success", wantRan: true},
		{name: "rolls back on failure", fnErr: importErr, wantErrs: []error{importErr}, wantRan: true},
		{name: "joins rollback failure", fnErr: importErr, rollbackEr: rollbackErr, wantErrs: []error{importErr, rollbackErr}, wantRan: true},
		{name: "returns commit failure", commitErr: commitErr, wantErrs: []error{commitErr}, wantRan: true},
		{name: "skips work when begin fails", beginErr: beginErr, wantErrs: []error{beginErr}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			txCtx := context.WithValue(ctx, txMarker{}, "tx")

			uow := new(mockUnitOfWork)
			uow.On("Begin", ctx).Return(txCtx, tt.beginErr)
			if tt.beginErr == nil {
				if tt.fnErr != nil {
					uow.On("Rollback", txCtx).Return(tt.rollbackEr)
				} else {
					uow.On("Commit", txCtx).Return(tt.commitErr)
				}
			}

			ran := false
			err := WithUnitOfWork(ctx, uow, func(got context.Context) error {
				ran = true
				assert.Equal(t, txCtx, got)
				return tt.fnErr
			})

			assert.Equal(t, tt.wantRan, ran)
			if len(tt.wantErrs) == 0 {
				require.NoError(t, err)
			}
			for _, want := range tt.wantErrs {
				assert.ErrorIs(t, err, want)
			}
			uow.AssertExpectations(t)
		})
	}
}
