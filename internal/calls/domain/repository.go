package domain

import (
	"context"
	"fmt"

	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrEmployeeNotFound = fmt.Errorf("employee %w", sharedDomain.ErrNotFound)
	ErrCallNotFound     = fmt.Errorf("call %w", sharedDomain.ErrNotFound)
)

// EmployeeRepository persists employees.
type EmployeeRepository interface {
	List(ctx context.Context) ([]*Employee, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	Save(ctx context.Context, employee *Employee) error
	UpdateRiskLevel(ctx context.Context, id uuid.UUID, level RiskLevel) error
}

// CallRepository persists calls.
type CallRepository interface {
	List(ctx context.Context) ([]*Call, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*Call, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Call, error)
	Create(ctx context.Context, call *Call) error
	Update(ctx context.Context, id uuid.UUID, patch CallPatch) (*Call, error)
}
