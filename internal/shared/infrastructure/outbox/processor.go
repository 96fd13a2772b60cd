package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
)

// Publisher republishes a parked envelope.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
}

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	BatchSize int
	// MaxAttempts counts the original publish. A message that fails its
	// last attempt is marked dead.
	MaxAttempts      int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// DefaultProcessorConfig returns sensible defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		BatchSize:        100,
		MaxAttempts:      6,
		RetryBackoffBase: time.Minute,
		RetryBackoffMax:  time.Hour,
	}
}

// FlushResult summarizes one pass over the due messages.
type FlushResult struct {
	Published int
	Retried   int
	Dead      int
}

// Processor republishes due messages. It holds no goroutine of its own;
// the worker calls Flush on a schedule.
type Processor struct {
	repo      Repository
	publisher Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher Publisher, config ProcessorConfig, logger *slog.Logger, metrics observability.Metrics) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	defaults := DefaultProcessorConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.RetryBackoffBase <= 0 {
		config.RetryBackoffBase = defaults.RetryBackoffBase
	}
	if config.RetryBackoffMax <= 0 {
		config.RetryBackoffMax = defaults.RetryBackoffMax
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Flush publishes one batch of due messages. Publish failures are recorded
// on the message; only storage errors are returned.
func (p *Processor) Flush(ctx context.Context) (FlushResult, error) {
	var result FlushResult
	now := p.now()

	messages, err := p.repo.Due(ctx, now, p.config.BatchSize)
	if err != nil {
		return result, err
	}

	for _, msg := range messages {
		if err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload); err != nil {
			if !msg.CanRetry(p.config.MaxAttempts - 1) {
				if markErr := p.repo.MarkDead(ctx, msg.ID, err.Error(), now); markErr != nil {
					return result, markErr
				}
				result.Dead++
				p.metrics.Counter(observability.MetricNotificationsDead, 1, observability.T("routing_key", msg.RoutingKey))
				p.logger.Error("notification dead-lettered",
					"id", msg.ID,
					"event_id", msg.EventID,
					"routing_key", msg.RoutingKey,
					"attempts", msg.Attempts+1,
					"error", err,
				)
				continue
			}

			next := now.Add(p.retryBackoff(msg.Attempts))
			if markErr := p.repo.MarkFailed(ctx, msg.ID, err.Error(), next); markErr != nil {
				return result, markErr
			}
			result.Retried++
			p.logger.Warn("notification retry failed",
				"id", msg.ID,
				"event_id", msg.EventID,
				"routing_key", msg.RoutingKey,
				"next_attempt_at", next,
				"error", err,
			)
			continue
		}

		if err := p.repo.Delete(ctx, msg.ID); err != nil {
			return result, err
		}
		result.Published++
		p.metrics.Counter(observability.MetricNotificationsSent, 1, observability.T("routing_key", msg.RoutingKey))
	}

	if backlog, err := p.repo.Pending(ctx); err == nil {
		p.metrics.Gauge(observability.MetricNotificationsBacklog, float64(backlog))
	}

	if len(messages) > 0 {
		p.logger.Info("outbox flushed",
			"published", result.Published,
			"retried", result.Retried,
			"dead", result.Dead,
		)
	}
	return result, nil
}

// retryBackoff doubles the base delay for every attempt already made.
func (p *Processor) retryBackoff(attempts int) time.Duration {
	backoff := p.config.RetryBackoffBase * time.Duration(convert.ShiftClamped(attempts-1, 20))
	if backoff <= 0 || backoff > p.config.RetryBackoffMax {
		return p.config.RetryBackoffMax
	}
	return backoff
}
