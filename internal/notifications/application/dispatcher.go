package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
	"github.com/sony/gobreaker/v2"
)

// ErrNotifierUnavailable is returned while the breaker rejects publishes.
var ErrNotifierUnavailable = errors.New("notification broker unavailable")

// DispatcherConfig controls the circuit breaker around the publisher.
type DispatcherConfig struct {
	// FailureThreshold is the number of consecutive publish failures that
	// opens the breaker.
	FailureThreshold uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// DefaultDispatcherConfig returns the default breaker settings.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
	}
}

// BrokerDispatcher publishes scheduling events as bus envelopes. With an
// outbox attached, envelopes the broker refuses are parked for retry
// instead of being reported as failures.
type BrokerDispatcher struct {
	publisher eventbus.Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	outbox    outbox.Repository
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time
}

// NewBrokerDispatcher creates a dispatcher over publisher.
func NewBrokerDispatcher(
	publisher eventbus.Publisher,
	config DispatcherConfig,
	logger *slog.Logger,
	metrics observability.Metrics,
) *BrokerDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = DefaultDispatcherConfig().FailureThreshold
	}

	settings := gobreaker.Settings{
		Name:        "notifications",
		MaxRequests: 1,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("notification breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BrokerDispatcher{
		publisher: publisher,
		breaker:   gobreaker.NewCircuitBreaker[struct{}](settings),
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// SetOutbox parks failed publishes in repo.
func (d *BrokerDispatcher) SetOutbox(repo outbox.Repository) {
	d.outbox = repo
}

// Dispatch publishes each event. Every event is attempted; failures are
// joined into the returned error.
func (d *BrokerDispatcher) Dispatch(ctx context.Context, events []domain.DomainEvent) error {
	var errs []error
	for _, event := range events {
		sent, err := d.publish(ctx, event)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !sent {
			continue
		}
		d.metrics.Counter(observability.MetricNotificationsSent, 1, observability.T("routing_key", event.RoutingKey()))
	}
	return errors.Join(errs...)
}

// publish reports whether the event reached the broker. A parked event
// returns false with a nil error.
func (d *BrokerDispatcher) publish(ctx context.Context, event domain.DomainEvent) (bool, error) {
	envelope, err := eventbus.NewEnvelope(event)
	if err != nil {
		return false, err
	}
	body, err := envelope.Marshal()
	if err != nil {
		return false, fmt.Errorf("encode envelope %s: %w", event.EventID(), err)
	}

	if err := d.Publish(ctx, event.RoutingKey(), body); err != nil {
		return false, d.park(ctx, envelope, body, err)
	}

	d.logger.Debug("notification published",
		"routing_key", event.RoutingKey(),
		"event_id", event.EventID(),
		"correlation_id", envelope.Metadata.CorrelationID,
	)
	return true, nil
}

// Publish sends an encoded envelope through the breaker.
func (d *BrokerDispatcher) Publish(ctx context.Context, routingKey string, body []byte) error {
	_, err := d.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, d.publisher.Publish(ctx, routingKey, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", routingKey, ErrNotifierUnavailable)
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// park stores a refused envelope. Without an outbox, or when parking fails
// too, the publish error is returned.
func (d *BrokerDispatcher) park(ctx context.Context, envelope *eventbus.ConsumedEvent, body []byte, publishErr error) error {
	if d.outbox == nil {
		return publishErr
	}

	msg := outbox.NewMessage(envelope.EventID, envelope.RoutingKey, body, publishErr.Error(), d.now())
	if err := d.outbox.Save(ctx, msg); err != nil {
		return errors.Join(publishErr, err)
	}

	d.metrics.Counter(observability.MetricNotificationsParked, 1, observability.T("routing_key", envelope.RoutingKey))
	d.logger.Warn("notification parked for retry",
		"routing_key", envelope.RoutingKey,
		"event_id", envelope.EventID,
		"error", publishErr,
	)
	return nil
}

// State returns the breaker state, e.g. "closed" or "open".
func (d *BrokerDispatcher) State() string {
	return d.breaker.State().String()
}
