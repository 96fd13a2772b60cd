package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrEventTitleRequired = fmt.Errorf("company event title is required: %w", sharedDomain.ErrMalformedRecord)
	ErrEventDateRequired  = fmt.Errorf("company event date is required: %w", sharedDomain.ErrMalformedRecord)
	ErrEventTypeUnknown   = fmt.Errorf("unknown company event type: %w", sharedDomain.ErrMalformedRecord)
)

// CompanyEventType classifies organisation-wide events.
type CompanyEventType string

const (
	EventReviewCycle    CompanyEventType = "review_cycle"
	EventBudgetPlanning CompanyEventType = "budget_planning"
	EventRestructuring  CompanyEventType = "restructuring"
	EventTraining       CompanyEventType = "training"
	EventOther          CompanyEventType = "other"
)

// IsValid reports whether the type is known.
func (t CompanyEventType) IsValid() bool {
	switch t {
	case EventReviewCycle, EventBudgetPlanning, EventRestructuring, EventTraining, EventOther:
		return true
	default:
		return false
	}
}

// CompanyEvent is an upcoming organisational event that may call for 1:1s.
type CompanyEvent struct {
	sharedDomain.BaseEntity
	title               string
	eventType           CompanyEventType
	date                time.Time
	impactsScheduling   bool
	affectedEmployees   []uuid.UUID
	affectedDepartments []string
	description         string
}

// CompanyEventInput carries the fields for a new company event.
type CompanyEventInput struct {
	Title               string
	Type                CompanyEventType
	Date                time.Time
	ImpactsScheduling   bool
	AffectedEmployees   []uuid.UUID
	AffectedDepartments []string
	Description         string
}

// NewCompanyEvent validates the input and creates an event.
func NewCompanyEvent(in CompanyEventInput, now time.Time) (*CompanyEvent, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrEventTitleRequired
	}
	if in.Date.IsZero() {
		return nil, ErrEventDateRequired
	}
	if in.Type == "" {
		in.Type = EventOther
	}
	if !in.Type.IsValid() {
		return nil, fmt.Errorf("%q: %w", in.Type, ErrEventTypeUnknown)
	}

	return newCompanyEvent(sharedDomain.NewBaseEntity(now), in), nil
}

func newCompanyEvent(base sharedDomain.BaseEntity, in CompanyEventInput) *CompanyEvent {
	return &CompanyEvent{
		BaseEntity:          base,
		title:               strings.TrimSpace(in.Title),
		eventType:           in.Type,
		date:                in.Date,
		impactsScheduling:   in.ImpactsScheduling,
		affectedEmployees:   slices.Clone(in.AffectedEmployees),
		affectedDepartments: slices.Clone(in.AffectedDepartments),
		description:         in.Description,
	}
}

func (e *CompanyEvent) Title() string                  { return e.title }
func (e *CompanyEvent) Type() CompanyEventType         { return e.eventType }
func (e *CompanyEvent) Date() time.Time                { return e.date }
func (e *CompanyEvent) ImpactsScheduling() bool        { return e.impactsScheduling }
func (e *CompanyEvent) AffectedEmployees() []uuid.UUID { return e.affectedEmployees }
func (e *CompanyEvent) AffectedDepartments() []string  { return e.affectedDepartments }
func (e *CompanyEvent) Description() string            { return e.description }

// Affects reports whether the event touches the given employee, directly or
// through their department.
func (e *CompanyEvent) Affects(employeeID uuid.UUID, department string) bool {
	if slices.Contains(e.affectedEmployees, employeeID) {
		return true
	}
	return department != "" && slices.Contains(e.affectedDepartments, department)
}

// RehydrateCompanyEvent recreates an event from persisted state.
func RehydrateCompanyEvent(id uuid.UUID, in CompanyEventInput, createdAt, updatedAt time.Time) *CompanyEvent {
	return newCompanyEvent(sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), in)
}
