// SPDX-License-Identifier: MIT

package main

import (
	"github.com/spf13/cobra"

	"github.com/ManuGH/go-service-template/internal/api"
	"github.com/ManuGH/go-service-template/internal/daemon"
	"github.com/ManuGH/go-service-template/internal/db"
	"github.com/ManuGH/go-service-template/internal/health"
	"github.com/ManuGH/go-service-template/internal/queue"
	"github.com/ManuGH/go-service-template/internal/tasks"
	"github.com/ManuGH/go-service-template/internal/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(*cobra.Command, []string) error {
			return runServe()
		},
	}
}

func runServe() error {
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

	healthMgr := health.NewManager(version.Version)
	healthMgr.RegisterChecker(health.NewPingChecker("database", database.Ping))
	healthMgr.RegisterChecker(health.NewPingChecker("redis", q.Ping))

	server, err := api.NewServer(api.Options{
		Settings: settings,
		Version:  version.Version,
		Health:   healthMgr,
		Tasks:    tasks.NewMemoryRepository(),
	})
	if err != nil {
		return err
	}

	d := daemon.New(daemon.Config{
		Version:     version.Version,
		ListenAddr:  settings.Addr(),
		Telemetry:   settings.Telemetry,
		Environment: settings.Environment,
	})
	return d.Start(ctx, server.Handler())
}
