package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Reminder asks for the manager to be reminded of an upcoming call.
type Reminder struct {
	CallID       uuid.UUID
	EmployeeID   uuid.UUID
	EmployeeName string
	CallAt       time.Time
	RemindAt     time.Time
	Reasons      []string
}

// ReminderScheduler queues reminders for delivery.
type ReminderScheduler interface {
	Schedule(ctx context.Context, reminder Reminder) error
}

// LogReminderScheduler records reminders in the log only.
type LogReminderScheduler struct {
	logger *slog.Logger
}

// NewLogReminderScheduler creates a log-only reminder scheduler.
func NewLogReminderScheduler(logger *slog.Logger) *LogReminderScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReminderScheduler{logger: logger}
}

func (s *LogReminderScheduler) Schedule(ctx context.Context, r Reminder) error {
	s.logger.InfoContext(ctx, "reminder scheduled",
		"call_id", r.CallID,
		"employee_id", r.EmployeeID,
		"employee_name", r.EmployeeName,
		"call_at", r.CallAt,
		"remind_at", r.RemindAt,
		"reasons", len(r.Reasons),
	)
	return nil
}
