package domain

import (
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrSuggestionNotFound        = fmt.Errorf("suggestion %w", sharedDomain.ErrNotFound)
	ErrSuggestionAlreadyAccepted = errors.New("suggestion already accepted")
)

// Priority ranks how soon a suggested call should happen.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities with urgent first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// LeadDays is how many days ahead a call of this priority is placed.
func (p Priority) LeadDays() int {
	switch p {
	case PriorityUrgent:
		return 1
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 7
	default:
		return 14
	}
}

// SuggestionStatus is the lifecycle state of a suggestion.
type SuggestionStatus string

const (
	SuggestionPending   SuggestionStatus = "pending"
	SuggestionAccepted  SuggestionStatus = "accepted"
	SuggestionDismissed SuggestionStatus = "dismissed"
)

// Suggestion proposes a call with an employee and explains why.
type Suggestion struct {
	sharedDomain.BaseAggregateRoot
	employeeID    uuid.UUID
	employeeName  string
	triggers      []Trigger
	priority      Priority
	suggestedDate time.Time
	confidence    float64
	reasoning     []string
	status        SuggestionStatus
	dismissReason string
}

// Assessment is the analysed content of a suggestion.
type Assessment struct {
	Triggers      []Trigger
	Priority      Priority
	SuggestedDate time.Time
	Confidence    float64
	Reasoning     []string
}

// NewSuggestion creates a pending suggestion for an employee.
func NewSuggestion(employeeID uuid.UUID, employeeName string, a Assessment, now time.Time) *Suggestion {
	s := &Suggestion{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		employeeID:        employeeID,
		employeeName:      employeeName,
		status:            SuggestionPending,
	}
	s.apply(a)
	return s
}

func (s *Suggestion) apply(a Assessment) {
	s.triggers = append([]Trigger(nil), a.Triggers...)
	s.priority = a.Priority
	s.suggestedDate = a.SuggestedDate
	s.confidence = a.Confidence
	s.reasoning = append([]string(nil), a.Reasoning...)
}

func (s *Suggestion) EmployeeID() uuid.UUID    { return s.employeeID }
func (s *Suggestion) EmployeeName() string     { return s.employeeName }
func (s *Suggestion) Triggers() []Trigger      { return s.triggers }
func (s *Suggestion) Priority() Priority       { return s.priority }
func (s *Suggestion) SuggestedDate() time.Time { return s.suggestedDate }
func (s *Suggestion) Confidence() float64      { return s.confidence }
func (s *Suggestion) Reasoning() []string      { return s.reasoning }
func (s *Suggestion) Status() SuggestionStatus { return s.status }
func (s *Suggestion) DismissReason() string    { return s.dismissReason }
func (s *Suggestion) IsPending() bool          { return s.status == SuggestionPending }

// TriggerDescriptions lists the human-readable trigger descriptions.
func (s *Suggestion) TriggerDescriptions() []string {
	out := make([]string, 0, len(s.triggers))
	for _, t := range s.triggers {
		out = append(out, t.Description)
	}
	return out
}

// Refresh replaces the analysed content in place, keeping ID and creation time.
func (s *Suggestion) Refresh(employeeName string, a Assessment, now time.Time) {
	s.employeeName = employeeName
	s.apply(a)
	s.Touch(now)
}

// Accept marks the suggestion accepted. Dismissed suggestions may still be
// accepted; accepting twice is rejected.
func (s *Suggestion) Accept(now time.Time) error {
	if s.status == SuggestionAccepted {
		return ErrSuggestionAlreadyAccepted
	}
	s.status = SuggestionAccepted
	s.Touch(now)
	s.AddDomainEvent(NewSuggestionAccepted(s, now))
	return nil
}

// Dismiss marks the suggestion dismissed with an optional reason.
func (s *Suggestion) Dismiss(reason string, now time.Time) error {
	if s.status == SuggestionAccepted {
		return ErrSuggestionAlreadyAccepted
	}
	s.status = SuggestionDismissed
	s.dismissReason = reason
	s.Touch(now)
	s.AddDomainEvent(NewSuggestionDismissed(s, now))
	return nil
}

// RehydrateSuggestion recreates a suggestion from persisted state.
func RehydrateSuggestion(
	id uuid.UUID,
	employeeID uuid.UUID,
	employeeName string,
	a Assessment,
	status SuggestionStatus,
	dismissReason string,
	createdAt, updatedAt time.Time,
) *Suggestion {
	s := &Suggestion{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		employeeID:    employeeID,
		employeeName:  employeeName,
		status:        status,
		dismissReason: dismissReason,
	}
	s.apply(a)
	return s
}
