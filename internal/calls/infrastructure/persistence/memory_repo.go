package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/calls/domain"
	"github.com/google/uuid"
)

// MemoryEmployeeRepository keeps employees in a map.
type MemoryEmployeeRepository struct {
	mu        sync.RWMutex
	employees map[uuid.UUID]*domain.Employee
}

// NewMemoryEmployeeRepository creates an employee repository seeded with employees.
func NewMemoryEmployeeRepository(employees ...*domain.Employee) *MemoryEmployeeRepository {
	r := &MemoryEmployeeRepository{employees: make(map[uuid.UUID]*domain.Employee)}
	for _, e := range employees {
		r.employees[e.ID()] = e
	}
	return r
}

func (r *MemoryEmployeeRepository) List(ctx context.Context) ([]*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Employee, 0, len(r.employees))
	for _, e := range r.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (r *MemoryEmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.employees[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmployeeNotFound, id)
	}
	return e, nil
}

func (r *MemoryEmployeeRepository) Save(ctx context.Context, e *domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.employees[e.ID()] = e
	return nil
}

func (r *MemoryEmployeeRepository) UpdateRiskLevel(ctx context.Context, id uuid.UUID, level domain.RiskLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.employees[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrEmployeeNotFound, id)
	}
	e.UpdateRiskLevel(level, time.Now())
	return nil
}

// MemoryCallRepository keeps calls in insertion order.
type MemoryCallRepository struct {
	mu    sync.RWMutex
	calls []*domain.Call
	now   func() time.Time
}

// NewMemoryCallRepository creates a call repository seeded with calls.
func NewMemoryCallRepository(calls ...*domain.Call) *MemoryCallRepository {
	return &MemoryCallRepository{calls: calls, now: time.Now}
}

func (r *MemoryCallRepository) List(ctx context.Context) ([]*domain.Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*domain.Call(nil), r.calls...), nil
}

func (r *MemoryCallRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID) ([]*domain.Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Call
	for _, c := range r.calls {
		if c.EmployeeID() == employeeID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryCallRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Call, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(id)
}

func (r *MemoryCallRepository) findLocked(id uuid.UUID) (*domain.Call, error) {
	for _, c := range r.calls {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrCallNotFound, id)
}

func (r *MemoryCallRepository) Create(ctx context.Context, c *domain.Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	return nil
}

func (r *MemoryCallRepository) Update(ctx context.Context, id uuid.UUID, patch domain.CallPatch) (*domain.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.findLocked(id)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(patch, r.now()); err != nil {
		return nil, err
	}
	return c, nil
}
