package subscribers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	notifications "github.com/felixgeelhaar/calltracker/internal/notifications/application"
	"github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
	"github.com/google/uuid"
)

// ReminderSubscriberConfig configures reminder timing.
type ReminderSubscriberConfig struct {
	// Lead is how long before the call the reminder fires.
	Lead time.Duration
	Now  func() time.Time
}

// DefaultReminderSubscriberConfig reminds one day ahead.
func DefaultReminderSubscriberConfig() ReminderSubscriberConfig {
	return ReminderSubscriberConfig{
		Lead: 24 * time.Hour,
		Now:  time.Now,
	}
}

// ReminderSubscriber turns auto-scheduled calls into reminder requests.
type ReminderSubscriber struct {
	scheduler notifications.ReminderScheduler
	config    ReminderSubscriberConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	enabled   bool
}

// NewReminderSubscriber creates a new reminder subscriber.
func NewReminderSubscriber(
	scheduler notifications.ReminderScheduler,
	config ReminderSubscriberConfig,
	logger *slog.Logger,
	metrics observability.Metrics,
) *ReminderSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &ReminderSubscriber{
		scheduler: scheduler,
		config:    config,
		logger:    logger,
		metrics:   metrics,
		enabled:   true,
	}
}

// SetEnabled enables or disables the subscriber.
func (s *ReminderSubscriber) SetEnabled(enabled bool) {
	s.enabled = enabled
}

// EventTypes returns the event types this subscriber handles.
func (s *ReminderSubscriber) EventTypes() []string {
	return []string{domain.RoutingKeyCallAutoScheduled}
}

// callAutoScheduledPayload mirrors the JSON of domain.CallAutoScheduled.
type callAutoScheduledPayload struct {
	CallID       uuid.UUID `json:"call_id"`
	EmployeeID   uuid.UUID `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Reasons      []string  `json:"reasons"`
}

// Handle schedules a reminder for the call in the event. Events that cannot
// be decoded are skipped rather than retried.
func (s *ReminderSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if !s.enabled {
		s.logger.Debug("reminder subscriber disabled, skipping event",
			"routing_key", event.RoutingKey,
		)
		return nil
	}
	if event.RoutingKey != domain.RoutingKeyCallAutoScheduled {
		s.logger.Warn("unexpected event type", "routing_key", event.RoutingKey)
		return nil
	}

	var payload callAutoScheduledPayload
	if err := event.Decode(&payload); err != nil || payload.CallID == uuid.Nil || payload.ScheduledAt.IsZero() {
		s.logger.Error("malformed auto-scheduled event",
			"event_id", event.EventID,
			"error", err,
		)
		return nil
	}

	now := s.config.Now()
	if !payload.ScheduledAt.After(now) {
		s.logger.Info("call already started, no reminder",
			"call_id", payload.CallID,
			"scheduled_at", payload.ScheduledAt,
		)
		return nil
	}

	remindAt := payload.ScheduledAt.Add(-s.config.Lead)
	if remindAt.Before(now) {
		remindAt = now
	}

	reminder := notifications.Reminder{
		CallID:       payload.CallID,
		EmployeeID:   payload.EmployeeID,
		EmployeeName: payload.EmployeeName,
		CallAt:       payload.ScheduledAt,
		RemindAt:     remindAt,
		Reasons:      payload.Reasons,
	}
	if err := s.scheduler.Schedule(ctx, reminder); err != nil {
		return fmt.Errorf("schedule reminder for call %s: %w", payload.CallID, err)
	}

	s.metrics.Counter(observability.MetricRemindersScheduled, 1)
	s.logger.Debug("reminder requested",
		"call_id", payload.CallID,
		"remind_at", remindAt,
		"correlation_id", event.Metadata.CorrelationID,
	)
	return nil
}
