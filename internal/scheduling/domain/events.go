package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	SuggestionAggregateType = "Suggestion"
	CallAggregateType       = "Call"

	RoutingKeySuggestionAccepted  = "scheduling.suggestion.accepted"
	RoutingKeySuggestionDismissed = "scheduling.suggestion.dismissed"
	RoutingKeyCallAutoScheduled   = "scheduling.call.auto_scheduled"
)

// SuggestionAcceptedEvent is emitted when a suggestion is accepted.
type SuggestionAcceptedEvent struct {
	sharedDomain.BaseEvent
	EmployeeID uuid.UUID `json:"employee_id"`
	Priority   string    `json:"priority"`
}

// NewSuggestionAccepted creates a SuggestionAcceptedEvent.
func NewSuggestionAccepted(s *Suggestion, at time.Time) *SuggestionAcceptedEvent {
	return &SuggestionAcceptedEvent{
		BaseEvent:  sharedDomain.NewBaseEvent(s.ID(), SuggestionAggregateType, RoutingKeySuggestionAccepted, at),
		EmployeeID: s.EmployeeID(),
		Priority:   string(s.Priority()),
	}
}

// SuggestionDismissedEvent is emitted when a suggestion is dismissed.
type SuggestionDismissedEvent struct {
	sharedDomain.BaseEvent
	EmployeeID uuid.UUID `json:"employee_id"`
	Reason     string    `json:"reason,omitempty"`
}

// NewSuggestionDismissed creates a SuggestionDismissedEvent.
func NewSuggestionDismissed(s *Suggestion, at time.Time) *SuggestionDismissedEvent {
	return &SuggestionDismissedEvent{
		BaseEvent:  sharedDomain.NewBaseEvent(s.ID(), SuggestionAggregateType, RoutingKeySuggestionDismissed, at),
		EmployeeID: s.EmployeeID(),
		Reason:     s.DismissReason(),
	}
}

// CallAutoScheduled is emitted when an accepted suggestion becomes a call.
type CallAutoScheduled struct {
	sharedDomain.BaseEvent
	CallID       uuid.UUID `json:"call_id"`
	SuggestionID uuid.UUID `json:"suggestion_id"`
	EmployeeID   uuid.UUID `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Priority     string    `json:"priority"`
	Reasons      []string  `json:"reasons"`
}

// NewCallAutoScheduled creates a CallAutoScheduled event.
func NewCallAutoScheduled(callID uuid.UUID, scheduledAt time.Time, s *Suggestion, at time.Time) *CallAutoScheduled {
	return &CallAutoScheduled{
		BaseEvent:    sharedDomain.NewBaseEvent(callID, CallAggregateType, RoutingKeyCallAutoScheduled, at),
		CallID:       callID,
		SuggestionID: s.ID(),
		EmployeeID:   s.EmployeeID(),
		EmployeeName: s.EmployeeName(),
		ScheduledAt:  scheduledAt,
		Priority:     string(s.Priority()),
		Reasons:      s.TriggerDescriptions(),
	}
}
