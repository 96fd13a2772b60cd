package domain

import (
	"errors"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/google/uuid"
)

var ErrEmployeeNameRequired = errors.New("employee name is required")

// CallFrequency is how often an employee expects a 1:1 call.
type CallFrequency string

const (
	FrequencyWeekly    CallFrequency = "weekly"
	FrequencyBiweekly  CallFrequency = "biweekly"
	FrequencyMonthly   CallFrequency = "monthly"
	FrequencyQuarterly CallFrequency = "quarterly"
)

// MaxDaysBetweenCalls returns the longest acceptable gap between completed
// calls. Unknown frequencies are treated as monthly.
func (f CallFrequency) MaxDaysBetweenCalls() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 14
	case FrequencyQuarterly:
		return 90
	default:
		return 30
	}
}

// RiskLevel is the retention risk derived from scheduling analysis.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Employee is the person a manager holds periodic calls with.
type Employee struct {
	sharedDomain.BaseEntity
	name              string
	department        string
	active            bool
	performanceScore  *float64
	contractExpiry    *time.Time
	callFrequency     CallFrequency
	averageCallRating *float64
	totalCalls        int
	riskLevel         RiskLevel
}

// NewEmployee creates an active employee with monthly calls and low risk.
func NewEmployee(name, department string, now time.Time) (*Employee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmployeeNameRequired
	}

	return &Employee{
		BaseEntity:    sharedDomain.NewBaseEntity(now),
		name:          name,
		department:    department,
		active:        true,
		callFrequency: FrequencyMonthly,
		riskLevel:     RiskLow,
	}, nil
}

func (e *Employee) Name() string                 { return e.name }
func (e *Employee) Department() string           { return e.department }
func (e *Employee) IsActive() bool               { return e.active }
func (e *Employee) PerformanceScore() *float64   { return e.performanceScore }
func (e *Employee) ContractExpiry() *time.Time   { return e.contractExpiry }
func (e *Employee) AverageCallRating() *float64  { return e.averageCallRating }
func (e *Employee) TotalCalls() int              { return e.totalCalls }
func (e *Employee) RiskLevel() RiskLevel         { return e.riskLevel }
func (e *Employee) CallFrequency() CallFrequency { return e.callFrequency }

// SetPerformanceScore records the latest 0-10 performance score.
func (e *Employee) SetPerformanceScore(score float64) {
	e.performanceScore = &score
}

// SetContractExpiry records when the employee's contract ends.
func (e *Employee) SetContractExpiry(expiry time.Time) {
	e.contractExpiry = &expiry
}

// SetCallFrequency sets the preferred call cadence. Empty values keep monthly.
func (e *Employee) SetCallFrequency(f CallFrequency) {
	if f == "" {
		f = FrequencyMonthly
	}
	e.callFrequency = f
}

// SetCallStats records aggregate call statistics.
func (e *Employee) SetCallStats(totalCalls int, averageRating *float64) {
	e.totalCalls = totalCalls
	e.averageCallRating = averageRating
}

// Deactivate excludes the employee from scheduling analysis.
func (e *Employee) Deactivate(now time.Time) {
	e.active = false
	e.Touch(now)
}

// UpdateRiskLevel changes the risk level and reports whether it changed.
func (e *Employee) UpdateRiskLevel(level RiskLevel, now time.Time) bool {
	if e.riskLevel == level {
		return false
	}
	e.riskLevel = level
	e.Touch(now)
	return true
}

// RehydrateEmployee recreates an employee from persisted state.
func RehydrateEmployee(
	id uuid.UUID,
	name, department string,
	active bool,
	performanceScore *float64,
	contractExpiry *time.Time,
	callFrequency CallFrequency,
	averageCallRating *float64,
	totalCalls int,
	riskLevel RiskLevel,
	createdAt, updatedAt time.Time,
) *Employee {
	if callFrequency == "" {
		callFrequency = FrequencyMonthly
	}
	if riskLevel == "" {
		riskLevel = RiskLow
	}
	return &Employee{
		BaseEntity:        sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name:              name,
		department:        department,
		active:            active,
		performanceScore:  performanceScore,
		contractExpiry:    contractExpiry,
		callFrequency:     callFrequency,
		averageCallRating: averageCallRating,
		totalCalls:        totalCalls,
		riskLevel:         riskLevel,
	}
}
