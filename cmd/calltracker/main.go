package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/calltracker/adapter/cli"
	"github.com/felixgeelhaar/calltracker/adapter/cli/call"
	"github.com/felixgeelhaar/calltracker/adapter/cli/event"
	"github.com/felixgeelhaar/calltracker/adapter/cli/suggestion"
	"github.com/felixgeelhaar/calltracker/internal/app"
	"github.com/felixgeelhaar/calltracker/pkg/config"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
)

func main() {
	logCfg := observability.DefaultLogConfig()
	logCfg.ServiceVersion = cli.Version
	logger := observability.NewLogger(logCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.IsDevelopment() {
		logCfg.Level = observability.LogLevelDebug
	} else {
		logCfg.Level = observability.LogLevel(cfg.LogLevel)
	}
	logger = observability.NewLogger(logCfg)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// Commands that need storage report ErrNoDatabase.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()

		cliApp := cli.NewApp(
			container.SchedulingEngine,
			container.ConflictDetector,
			container.Importer,
			container.EmployeeRepo,
			container.CallRepo,
		)
		cliApp.SetLocation(cfg.Location())
		cliApp.SetSuggestionRetention(cfg.SuggestionRetention)
		cliApp.SetHealth(container.Health)
		cli.SetApp(cliApp)
	}

	cli.AddCommand(suggestion.Cmd)
	cli.AddCommand(call.Cmd)
	cli.AddCommand(event.Cmd)

	cli.Execute(ctx)
}
