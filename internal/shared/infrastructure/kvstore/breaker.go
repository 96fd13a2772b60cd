package kvstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker rejects calls to the backend.
var ErrCircuitOpen = errors.New("kvstore: circuit open")

// BreakerConfig controls when the store stops calling a failing backend.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
}

// DefaultBreakerConfig trips after 3 consecutive failures and retries after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 3, Timeout: 30 * time.Second}
}

// BreakerStore wraps a remote store with a circuit breaker so a dead backend
// fails fast instead of stalling every command on network timeouts.
type BreakerStore struct {
	next    Store
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewBreakerStore wraps next.
func NewBreakerStore(name string, next Store, cfg BreakerConfig, logger *slog.Logger) *BreakerStore {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A missing key is a normal answer, not a backend failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrKeyNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("kv store circuit breaker state changed",
				"store", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	return &BreakerStore{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (s *BreakerStore) run(fn func() ([]byte, error)) ([]byte, error) {
	val, err := s.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	return val, err
}

func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.run(func() ([]byte, error) { return s.next.Get(ctx, key) })
}

func (s *BreakerStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.run(func() ([]byte, error) { return nil, s.next.Set(ctx, key, value) })
	return err
}

func (s *BreakerStore) Delete(ctx context.Context, key string) error {
	_, err := s.run(func() ([]byte, error) { return nil, s.next.Delete(ctx, key) })
	return err
}

// Ping forwards to the wrapped store when it supports it.
func (s *BreakerStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
