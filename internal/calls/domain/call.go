package domain

import (
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/google/uuid"
)

// DefaultCallDuration applies to calls stored without a duration.
const DefaultCallDuration = 30 * time.Minute

var (
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrMissingSchedule = fmt.Errorf("call has no scheduled time: %w", sharedDomain.ErrMalformedRecord)
	ErrMissingComplete = fmt.Errorf("completed call has no completion time: %w", sharedDomain.ErrMalformedRecord)
)

// CallStatus is the lifecycle state of a call.
type CallStatus string

const (
	CallStatusScheduled   CallStatus = "scheduled"
	CallStatusCompleted   CallStatus = "completed"
	CallStatusCancelled   CallStatus = "cancelled"
	CallStatusSuspended   CallStatus = "suspended"
	CallStatusRescheduled CallStatus = "rescheduled"
)

// Call is a 1:1 meeting between a manager and an employee.
type Call struct {
	sharedDomain.BaseEntity
	employeeID  uuid.UUID
	scheduledAt time.Time
	duration    time.Duration
	status      CallStatus
	rating      *float64
	completedAt *time.Time
	notes       string
}

// NewCall creates a scheduled call.
func NewCall(employeeID uuid.UUID, scheduledAt time.Time, duration time.Duration, notes string, now time.Time) (*Call, error) {
	if scheduledAt.IsZero() {
		return nil, ErrMissingSchedule
	}
	if duration <= 0 {
		duration = DefaultCallDuration
	}

	return &Call{
		BaseEntity:  sharedDomain.NewBaseEntity(now),
		employeeID:  employeeID,
		scheduledAt: scheduledAt,
		duration:    duration,
		status:      CallStatusScheduled,
		notes:       notes,
	}, nil
}

func (c *Call) EmployeeID() uuid.UUID   { return c.employeeID }
func (c *Call) ScheduledAt() time.Time  { return c.scheduledAt }
func (c *Call) Status() CallStatus      { return c.status }
func (c *Call) Rating() *float64        { return c.rating }
func (c *Call) CompletedAt() *time.Time { return c.completedAt }
func (c *Call) Notes() string           { return c.notes }
func (c *Call) IsCancelled() bool       { return c.status == CallStatusCancelled }
func (c *Call) IsCompleted() bool       { return c.status == CallStatusCompleted }

// Duration returns the call length, defaulting to 30 minutes.
func (c *Call) Duration() time.Duration {
	if c.duration <= 0 {
		return DefaultCallDuration
	}
	return c.duration
}

// EndsAt returns the scheduled end of the call.
func (c *Call) EndsAt() time.Time {
	return c.scheduledAt.Add(c.Duration())
}

// IsOnCalendar reports whether the call still occupies a future calendar slot.
func (c *Call) IsOnCalendar() bool {
	return c.status == CallStatusScheduled || c.status == CallStatusRescheduled
}

// Validate reports malformed persisted state.
func (c *Call) Validate() error {
	if c.scheduledAt.IsZero() {
		return ErrMissingSchedule
	}
	if c.status == CallStatusCompleted && c.completedAt == nil {
		return ErrMissingComplete
	}
	return nil
}

// Complete marks the call as held, with an optional 1-5 rating.
func (c *Call) Complete(at time.Time, rating *float64) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return ErrInvalidRating
	}
	c.status = CallStatusCompleted
	c.completedAt = &at
	c.rating = rating
	c.Touch(at)
	return nil
}

// Cancel removes the call from the calendar.
func (c *Call) Cancel(now time.Time) {
	c.status = CallStatusCancelled
	c.Touch(now)
}

// CallPatch holds a partial update. Nil fields are left untouched.
type CallPatch struct {
	ScheduledAt *time.Time
	Status      *CallStatus
	Rating      *float64
	CompletedAt *time.Time
	Notes       *string
}

// Apply writes the non-nil patch fields onto the call.
func (c *Call) Apply(p CallPatch, now time.Time) error {
	if p.Rating != nil && (*p.Rating < 1 || *p.Rating > 5) {
		return ErrInvalidRating
	}
	if p.ScheduledAt != nil {
		if !c.scheduledAt.Equal(*p.ScheduledAt) && c.status == CallStatusScheduled && p.Status == nil {
			c.status = CallStatusRescheduled
		}
		c.scheduledAt = *p.ScheduledAt
	}
	if p.Status != nil {
		c.status = *p.Status
	}
	if p.Rating != nil {
		c.rating = p.Rating
	}
	if p.CompletedAt != nil {
		c.completedAt = p.CompletedAt
	}
	if p.Notes != nil {
		c.notes = *p.Notes
	}
	c.Touch(now)
	return c.Validate()
}

// RehydrateCall recreates a call from persisted state.
func RehydrateCall(
	id uuid.UUID,
	employeeID uuid.UUID,
	scheduledAt time.Time,
	duration time.Duration,
	status CallStatus,
	rating *float64,
	completedAt *time.Time,
	notes string,
	createdAt, updatedAt time.Time,
) *Call {
	return &Call{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		employeeID:  employeeID,
		scheduledAt: scheduledAt,
		duration:    duration,
		status:      status,
		rating:      rating,
		completedAt: completedAt,
		notes:       notes,
	}
}
