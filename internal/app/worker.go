package app

import (
	"context"
	"net/http"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/cron"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
)

// Cleanup runs at most once a day.
const cleanupInterval = 24 * time.Hour

// Worker job names.
const (
	JobGenerateSuggestions = "generate_suggestions"
	JobCleanupSuggestions  = "cleanup_suggestions"
	JobFlushNotifications  = "flush_notifications"
)

// WorkerJobs returns the periodic jobs run by the worker.
func (c *Container) WorkerJobs() []cron.Job {
	cleanupEvery := cleanupInterval
	if c.Config.WorkerInterval > cleanupEvery {
		cleanupEvery = c.Config.WorkerInterval
	}

	return []cron.Job{
		{
			Name:       JobGenerateSuggestions,
			Interval:   c.Config.WorkerInterval,
			RunOnStart: true,
			Fn: func(ctx context.Context) error {
				pending, err := c.SchedulingEngine.GenerateSuggestions(ctx)
				if err != nil {
					return err
				}
				c.Logger.InfoContext(ctx, "suggestions generated", "pending", len(pending))
				return nil
			},
		},
		{
			Name:     JobCleanupSuggestions,
			Interval: cleanupEvery,
			Fn: func(ctx context.Context) error {
				removed, err := c.SchedulingEngine.CleanupSuggestions(ctx, c.Config.SuggestionRetention)
				if err != nil {
					return err
				}
				if removed > 0 {
					c.Logger.InfoContext(ctx, "old suggestions removed", "removed", removed)
				}
				return nil
			},
		},
		{
			Name:     JobFlushNotifications,
			Interval: c.Config.NotifyRetryInterval,
			Fn: func(ctx context.Context) error {
				_, err := c.OutboxProcessor.Flush(ctx)
				return err
			},
		},
	}
}

// NewScheduler registers the worker jobs on a fresh cron scheduler.
func (c *Container) NewScheduler() (*cron.Scheduler, error) {
	scheduler := cron.NewScheduler(c.Logger, c.Metrics)
	for _, job := range c.WorkerJobs() {
		if err := scheduler.AddJob(job); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}

// HealthHandler serves /healthz with every check and /readyz with the
// database check only.
func HealthHandler(registry *observability.HealthRegistry) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		health := registry.GetOverallHealth(ctx)
		body, err := health.ToJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if health.Status == observability.HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write(body)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		result, ok := registry.Check(ctx)[healthDatabase]
		if !ok || result.Status == observability.HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not ready"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	return mux
}
