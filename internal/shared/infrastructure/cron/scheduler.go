// Package cron runs named jobs at fixed intervals.
package cron

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/calltracker/pkg/observability"
)

// Job is a named function run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error
	// RunOnStart runs the job immediately instead of after the first interval.
	RunOnStart bool
}

// Scheduler runs jobs until stopped. Each job runs in its own goroutine, so
// a slow job never overlaps with itself but does not delay other jobs.
type Scheduler struct {
	jobs    []Job
	logger  *slog.Logger
	metrics observability.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *slog.Logger, metrics observability.Metrics) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Scheduler{logger: logger, metrics: metrics}
}

// AddJob registers a job. Jobs added after Start are not run.
func (s *Scheduler) AddJob(job Job) error {
	if job.Name == "" || job.Fn == nil {
		return errors.New("cron: job needs a name and a function")
	}
	if job.Interval <= 0 {
		return errors.New("cron: job interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	s.logger.Info("cron job registered", "job", job.Name, "interval", job.Interval)
	return nil
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name
	}
	return names
}

// Start launches every job. Jobs stop when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
	s.logger.Info("cron scheduler started", "jobs", len(s.jobs))
}

// Stop cancels all jobs and waits for running executions to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("cron scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	if job.RunOnStart {
		s.execute(ctx, job)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, job)
		}
	}
}

// execute runs one tick of job under a fresh correlation ID.
func (s *Scheduler) execute(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	runCtx := observability.NewCommandContext(ctx, "")
	err := observability.TimeOperation(runCtx, s.logger, s.metrics, "cron."+job.Name, func() error {
		return job.Fn(runCtx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("cron job failed", "job", job.Name, "error", err)
	}
}

// RunOnce runs every job a single time, in registration order, and returns
// the joined errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	var errs []error
	for _, job := range jobs {
		runCtx := observability.NewCommandContext(ctx, "")
		if err := job.Fn(runCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
