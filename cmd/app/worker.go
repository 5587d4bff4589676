// SPDX-License-Identifier: MIT

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/go-service-template/internal/daemon"
	"github.com/ManuGH/go-service-template/internal/db"
	"github.com/ManuGH/go-service-template/internal/events"
	"github.com/ManuGH/go-service-template/internal/health"
	"github.com/ManuGH/go-service-template/internal/queue"
	"github.com/ManuGH/go-service-template/internal/reducer"
	"github.com/ManuGH/go-service-template/internal/reducer/notes"
	"github.com/ManuGH/go-service-template/internal/version"
	"github.com/ManuGH/go-service-template/internal/worker"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background pipeline: ingest beat, reducers and reclaimer",
		RunE: func(*cobra.Command, []string) error {
			return runWorker()
		},
	}
}

func runWorker() error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx := daemon.WaitForShutdown()

	database, err := db.Connect(ctx, settings.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	q, err := queue.New(settings.RedisURL)
	if err != nil {
		return err
	}
	defer func() { _ = q.Close() }()

	ingest := events.NewService(events.NewPGStore(database))
	reduce := reducer.NewService(reducer.NewPGStore(database), notes.New())

	runner := worker.NewRunner(worker.Config{
		Concurrency:       settings.Worker.Concurrency,
		IngestInterval:    settings.Worker.IngestInterval,
		ReclaimInterval:   settings.Worker.ReclaimInterval,
		TaskTimeLimit:     settings.Worker.TaskTimeLimit,
		TaskSoftTimeLimit: settings.Worker.TaskSoftTimeLimit,
	}, ingest, reduce, q)

	healthMgr := health.NewManager(version.Version)
	healthMgr.RegisterChecker(health.NewPingChecker("database", database.Ping))
	healthMgr.RegisterChecker(health.NewPingChecker("redis", q.Ping))
	healthMgr.RegisterChecker(health.NewLastIngestChecker(
		runner.LastSuccessfulIngest, 3*settings.Worker.IngestInterval))

	d := daemon.New(daemon.Config{
		Version:     version.Version,
		ListenAddr:  settings.Addr(),
		Telemetry:   settings.Telemetry,
		Environment: settings.Environment,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(gctx) })
	g.Go(func() error { return d.Start(gctx, newWorkerHealthHandler(healthMgr)) })
	return g.Wait()
}

// newWorkerHealthHandler exposes only the probe endpoints. The worker serves
// no API, but its container HEALTHCHECK hits /readyz like the server's.
func newWorkerHealthHandler(healthMgr *health.Manager) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", healthMgr.ServeHealth)
	r.Get("/readyz", healthMgr.ServeReady)
	return r
}
