package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/app"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/calltracker/pkg/config"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
)

func main() {
	logCfg := observability.ProductionLogConfig()
	logCfg.ServiceName = "calltracker-worker"
	logger := observability.NewLogger(logCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.IsDevelopment() {
		logCfg.Level = observability.LogLevelDebug
		logCfg.Format = observability.LogFormatText
	} else {
		logCfg.Level = observability.LogLevel(cfg.LogLevel)
	}
	logger = observability.NewLogger(logCfg)

	metrics := observability.NewInMemoryMetrics()
	container, err := app.NewContainer(ctx, cfg, logger, app.WithMetrics(metrics))
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	// Reminder events come from the broker when one is configured. Otherwise
	// the in-process bus delivers them during Publish.
	if container.Bus == nil {
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:     cfg.RabbitMQURL,
			Logger:  logger,
			Metrics: metrics,
		}, eventbus.NewConsumerRegistry(logger))
		if err != nil {
			logger.Error("failed to create RabbitMQ consumer", "error", err)
			os.Exit(1)
		}
		defer func() { _ = consumer.Close() }()

		consumer.RegisterConsumer(container.ReminderSubscriber)
		container.Health.Register("rabbitmq_consumer", observability.RabbitMQHealthChecker(consumer.Healthy))

		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("consumer stopped", "error", err)
				cancel()
			}
		}()
	} else {
		go func() { _ = container.Bus.Start(ctx) }()
	}

	scheduler, err := container.NewScheduler()
	if err != nil {
		logger.Error("failed to register worker jobs", "error", err)
		os.Exit(1)
	}
	scheduler.Start(ctx)

	server := &http.Server{
		Addr:              cfg.HealthAddr,
		Handler:           app.HealthHandler(container.Health),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("health server listening", "addr", cfg.HealthAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", "error", err)
			cancel()
		}
	}()

	logger.Info("worker started",
		"jobs", scheduler.Jobs(),
		"interval", cfg.WorkerInterval,
		"broker", cfg.UsesRabbitMQ(),
	)

	<-ctx.Done()
	logger.Info("shutting down worker")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", "error", err)
	}
	scheduler.Stop()

	logger.Info("worker stopped")
}
