package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/calls/domain"
	"github.com/felixgeelhaar/calltracker/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
)

var (
	ErrInvalidSeed      = errors.New("invalid seed file")
	ErrUnknownEmployee  = errors.New("call references unknown employee")
	ErrDuplicateSeedKey = errors.New("duplicate employee key in seed")
)

// Seed is the JSON document accepted by the importer. Calls reference
// employees by Key, falling back to the employee name when Key is empty.
type Seed struct {
	Employees []SeedEmployee `json:"employees"`
	Calls     []SeedCall     `json:"calls"`
}

type SeedEmployee struct {
	Key              string               `json:"key,omitempty"`
	Name             string               `json:"name"`
	Department       string               `json:"department"`
	Active           *bool                `json:"active,omitempty"`
	PerformanceScore *float64             `json:"performanceScore,omitempty"`
	ContractExpiry   *time.Time           `json:"contractExpiry,omitempty"`
	CallFrequency    domain.CallFrequency `json:"callFrequency,omitempty"`
}

type SeedCall struct {
	Employee        string            `json:"employee"`
	ScheduledAt     time.Time         `json:"scheduledAt"`
	DurationMinutes int               `json:"durationMinutes,omitempty"`
	Status          domain.CallStatus `json:"status,omitempty"`
	Rating          *float64          `json:"rating,omitempty"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	Employees int
	Calls     int
}

// Importer loads a seed of employees and calls in a single unit of work.
type Importer struct {
	uow       application.UnitOfWork
	employees domain.EmployeeRepository
	calls     domain.CallRepository
	now       func() time.Time
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewImporter creates an Importer. A nil clock means time.Now.
func NewImporter(
	uow application.UnitOfWork,
	employees domain.EmployeeRepository,
	calls domain.CallRepository,
	now func() time.Time,
	logger *slog.Logger,
	metrics observability.Metrics,
) *Importer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Importer{
		uow:       uow,
		employees: employees,
		calls:     calls,
		now:       now,
		logger:    logger,
		metrics:   metrics,
	}
}

// ParseSeed decodes a seed document, rejecting unknown fields.
func ParseSeed(r io.Reader) (*Seed, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	return &seed, nil
}

// Import parses r and writes its contents. Nothing is written when any
// record is invalid.
func (i *Importer) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	seed, err := ParseSeed(r)
	if err != nil {
		return ImportResult{}, err
	}
	return i.ImportSeed(ctx, seed)
}

// ImportSeed writes an already decoded seed.
func (i *Importer) ImportSeed(ctx context.Context, seed *Seed) (ImportResult, error) {
	now := i.now()

	employees, byKey, err := buildEmployees(seed.Employees, now)
	if err != nil {
		return ImportResult{}, err
	}
	calls, err := buildCalls(seed.Calls, byKey, now)
	if err != nil {
		return ImportResult{}, err
	}
	applyCallStats(employees, calls)

	err = application.WithUnitOfWork(ctx, i.uow, func(txCtx context.Context) error {
		for _, e := range employees {
			if err := i.employees.Save(txCtx, e); err != nil {
				return fmt.Errorf("save employee %s: %w", e.Name(), err)
			}
		}
		for _, c := range calls {
			if err := i.calls.Create(txCtx, c); err != nil {
				return fmt.Errorf("create call for %s: %w", c.EmployeeID(), err)
			}
		}
		return nil
	})
	if err != nil {
		i.logger.Error("seed import failed", "error", err)
		return ImportResult{}, fmt.Errorf("%w: %v", sharedDomain.ErrStorageUnavailable, err)
	}

	result := ImportResult{Employees: len(employees), Calls: len(calls)}
	i.metrics.Counter(observability.MetricEmployeesImported, int64(result.Employees))
	i.metrics.Counter(observability.MetricCallsImported, int64(result.Calls))
	i.logger.Info("seed imported",
		"employees", result.Employees,
		"calls", result.Calls,
		"correlation_id", observability.CorrelationIDFromContext(ctx),
	)
	return result, nil
}

func buildEmployees(in []SeedEmployee, now time.Time) ([]*domain.Employee, map[string]*domain.Employee, error) {
	out := make([]*domain.Employee, 0, len(in))
	byKey := make(map[string]*domain.Employee, len(in))

	for idx, s := range in {
		e, err := domain.NewEmployee(s.Name, s.Department, now)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: employee %d: %v", ErrInvalidSeed, idx, err)
		}
		if s.PerformanceScore != nil {
			if *s.PerformanceScore < 0 || *s.PerformanceScore > 10 {
				return nil, nil, fmt.Errorf("%w: employee %q: performance score out of range", ErrInvalidSeed, s.Name)
			}
			e.SetPerformanceScore(*s.PerformanceScore)
		}
		if s.ContractExpiry != nil {
			e.SetContractExpiry(*s.ContractExpiry)
		}
		e.SetCallFrequency(s.CallFrequency)
		if s.Active != nil && !*s.Active {
			e.Deactivate(now)
		}

		key := seedKey(s.Key, e.Name())
		if _, dup := byKey[key]; dup {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateSeedKey, key)
		}
		byKey[key] = e
		out = append(out, e)
	}
	return out, byKey, nil
}

func buildCalls(in []SeedCall, byKey map[string]*domain.Employee, now time.Time) ([]*domain.Call, error) {
	out := make([]*domain.Call, 0, len(in))

	for idx, s := range in {
		e, ok := byKey[seedKey(s.Employee, "")]
		if !ok {
			return nil, fmt.Errorf("%w: call %d: %q", ErrUnknownEmployee, idx, s.Employee)
		}

		c, err := domain.NewCall(e.ID(), s.ScheduledAt, time.Duration(s.DurationMinutes)*time.Minute, s.Notes, now)
		if err != nil {
			return nil, fmt.Errorf("%w: call %d: %v", ErrInvalidSeed, idx, err)
		}

		switch s.Status {
		case "", domain.CallStatusScheduled:
		case domain.CallStatusCompleted:
			at := s.ScheduledAt.Add(c.Duration())
			if s.CompletedAt != nil {
				at = *s.CompletedAt
			}
			if err := c.Complete(at, s.Rating); err != nil {
				return nil, fmt.Errorf("%w: call %d: %v", ErrInvalidSeed, idx, err)
			}
		case domain.CallStatusCancelled:
			c.Cancel(now)
		default:
			status := s.Status
			if err := c.Apply(domain.CallPatch{Status: &status}, now); err != nil {
				return nil, fmt.Errorf("%w: call %d: %v", ErrInvalidSeed, idx, err)
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// applyCallStats derives total completed calls and their average rating.
func applyCallStats(employees []*domain.Employee, calls []*domain.Call) {
	type stats struct {
		total, rated int
		sum          float64
	}
	byEmployee := make(map[string]*stats)
	for _, c := range calls {
		if !c.IsCompleted() {
			continue
		}
		s, ok := byEmployee[c.EmployeeID().String()]
		if !ok {
			s = &stats{}
			byEmployee[c.EmployeeID().String()] = s
		}
		s.total++
		if r := c.Rating(); r != nil {
			s.rated++
			s.sum += *r
		}
	}

	for _, e := range employees {
		s, ok := byEmployee[e.ID().String()]
		if !ok {
			continue
		}
		var avg *float64
		if s.rated > 0 {
			v := s.sum / float64(s.rated)
			avg = &v
		}
		e.SetCallStats(s.total, avg)
	}
}

func seedKey(key, fallback string) string {
	if k := strings.TrimSpace(key); k != "" {
		return strings.ToLower(k)
	}
	return strings.ToLower(strings.TrimSpace(fallback))
}
