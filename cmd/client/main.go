package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/dipcp/dipcp/internal/client/cli"
	"github.com/dipcp/dipcp/internal/client/config"
	"github.com/dipcp/dipcp/internal/client/events"
	"github.com/dipcp/dipcp/internal/client/github"
	"github.com/dipcp/dipcp/internal/client/kvstore"
	"github.com/dipcp/dipcp/internal/client/ratelimit"
	"github.com/dipcp/dipcp/internal/client/services"
	"github.com/dipcp/dipcp/internal/client/settings"
	syncer "github.com/dipcp/dipcp/internal/client/sync"
	"github.com/dipcp/dipcp/internal/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	ctx := context.Background()

	cfg := config.LoadConfig()
	logger := logging.NewDefault()

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o700); err != nil {
		return err
	}

	store, err := kvstore.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := settings.NewStore(cfg.SettingsDir)
	if err != nil {
		return err
	}

	bus := events.NewBus()
	guard := ratelimit.NewGuard(st, bus, logger)
	gateway := github.NewGateway(guard, logger)

	engine := syncer.New(gateway, store, st, logger, syncer.Options{
		CheckConcurrency:    cfg.CheckConcurrency,
		DownloadConcurrency: cfg.DownloadConcurrency,
	})

	app := cli.NewApp(cli.Deps{
		Config:    cfg,
		Log:       logger,
		Bus:       bus,
		Guard:     guard,
		Gateway:   gateway,
		Syncer:    engine,
		Session:   services.NewSession(st, gateway, logger),
		Tracking:  services.NewTracking(store, logger),
		Workspace: services.NewWorkspace(store, st, logger),
		Projects:  services.NewProjects(store, gateway, logger),
		Poller:    services.NewWorkflowPoller(gateway, logger, cfg.PollAttempts, cfg.PollInterval),
	})

	app.Run(ctx)
	return nil
}
