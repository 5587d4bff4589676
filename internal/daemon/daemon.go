// SPDX-License-Identifier: MIT

// Package daemon provides HTTP server bootstrapping and graceful lifecycle
// management shared by the serve command.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/go-service-template/internal/config"
	"github.com/ManuGH/go-service-template/internal/log"
	"github.com/ManuGH/go-service-template/internal/telemetry"
)

// Config holds daemon configuration.
type Config struct {
	// Version is the build version.
	Version string

	// ListenAddr is the HTTP server listen address.
	ListenAddr string

	// Server timeouts.
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// Telemetry enables tracing when configured.
	Telemetry config.Telemetry

	// Environment labels traces and log lines.
	Environment string
}

func (c Config) withDefaults() Config {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxHeaderBytes <= 0 {
		c.MaxHeaderBytes = 1 << 20
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}

// Daemon runs the HTTP server with graceful shutdown.
type Daemon struct {
	config    Config
	server    *http.Server
	logger    zerolog.Logger
	telemetry *telemetry.Provider
}

// New creates a daemon instance.
func New(cfg Config) *Daemon {
	return &Daemon{
		config: cfg.withDefaults(),
		logger: log.WithComponent("daemon"),
	}
}

// Start runs the HTTP server until ctx is cancelled or the server fails,
// then shuts down gracefully.
func (d *Daemon) Start(ctx context.Context, handler http.Handler) error {
	d.logger.Info().
		Str("version", d.config.Version).
		Str("listen", d.config.ListenAddr).
		Msg("starting daemon")

	if err := d.initTelemetry(ctx); err != nil {
		d.logger.Warn().Err(err).Msg("telemetry initialization failed, continuing without tracing")
	}

	d.server = &http.Server{
		Addr:           d.config.ListenAddr,
		Handler:        handler,
		ReadTimeout:    d.config.ReadTimeout,
		WriteTimeout:   d.config.WriteTimeout,
		IdleTimeout:    d.config.IdleTimeout,
		MaxHeaderBytes: d.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		d.logger.Info().Msgf("HTTP server listening on %s", d.config.ListenAddr)
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return d.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server and telemetry.
func (d *Daemon) Shutdown(ctx context.Context) error {
	d.logger.Info().Msg("shutting down daemon")

	shutdownCtx, cancel := context.WithTimeout(ctx, d.config.ShutdownTimeout)
	defer cancel()

	if d.server != nil {
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Error().Err(err).Msg("HTTP server shutdown error")
		}
	}

	if d.telemetry != nil {
		if err := d.telemetry.Shutdown(shutdownCtx); err != nil {
			d.logger.Error().Err(err).Msg("telemetry shutdown error")
		}
	}

	d.logger.Info().Msg("daemon stopped")
	return nil
}

func (d *Daemon) initTelemetry(ctx context.Context) error {
	if !d.config.Telemetry.Enabled {
		return nil
	}

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        true,
		ServiceName:    "go-service-template",
		ServiceVersion: d.config.Version,
		Environment:    d.config.Environment,
		ExporterType:   d.config.Telemetry.Exporter,
		Endpoint:       d.config.Telemetry.Endpoint,
		SamplingRate:   d.config.Telemetry.SamplingRate,
		Insecure:       d.config.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry init failed: %w", err)
	}

	d.telemetry = provider
	d.logger.Info().
		Str("exporter", d.config.Telemetry.Exporter).
		Str("endpoint", d.config.Telemetry.Endpoint).
		Float64("sampling_rate", d.config.Telemetry.SamplingRate).
		Msg("telemetry initialized")
	return nil
}

// WaitForShutdown returns a context cancelled on SIGINT or SIGTERM.
func WaitForShutdown() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}
