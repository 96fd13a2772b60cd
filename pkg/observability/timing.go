package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures a single operation and reports it on Stop.
type Timer struct {
	operation string
	start     time.Time
	logger    *slog.Logger
	metrics   Metrics
	tags      []Tag
	now       func() time.Time
}

// StartTimer creates a new timer for the given operation.
func StartTimer(operation string) *Timer {
	return &Timer{
		operation: operation,
		start:     time.Now(),
		now:       time.Now,
	}
}

// WithLogger adds a logger to the timer for automatic logging on stop.
func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

// WithMetrics adds a metrics collector to the timer.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// WithTags adds tags to the timer for metrics labeling.
func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Stop records a successful operation.
func (t *Timer) Stop() time.Duration {
	return t.StopWithError(nil)
}

// StopWithError records the operation duration and its outcome.
func (t *Timer) StopWithError(err error) time.Duration {
	duration := t.now().Sub(t.start)
	status := "ok"
	if err != nil {
		status = "error"
	}

	if t.logger != nil {
		attrs := []any{
			OperationKey, t.operation,
			DurationKey, duration.Milliseconds(),
		}
		if err != nil {
			t.logger.Error("operation failed", append(attrs, ErrorKey, err.Error())...)
		} else {
			t.logger.Debug("operation completed", attrs...)
		}
	}

	if t.metrics != nil {
		tags := make([]Tag, 0, len(t.tags)+2)
		tags = append(tags, t.tags...)
		tags = append(tags, T(OperationKey, t.operation), T(StatusKey, status))
		t.metrics.Timing(MetricOperationDuration, duration, tags...)
		t.metrics.Counter(MetricOperationTotal, 1, tags...)
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, T(OperationKey, t.operation))
		}
	}

	return duration
}

// TimeOperation times fn and records its outcome.
func TimeOperation(ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func() error) error {
	_, err := TimeOperationResult(ctx, logger, metrics, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// TimeOperationResult times fn and records its outcome, passing its result through.
func TimeOperationResult[T any](ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func() (T, error)) (T, error) {
	if logger != nil {
		if corrID := CorrelationIDFromContext(ctx); corrID != "" {
			logger = logger.With(CorrelationIDKey, corrID)
		}
	}
	timer := StartTimer(operation).
		WithLogger(logger).
		WithMetrics(metrics)

	result, err := fn()
	timer.StopWithError(err)
	return result, err
}
