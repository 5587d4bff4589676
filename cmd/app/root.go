// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/go-service-template/internal/config"
	"github.com/ManuGH/go-service-template/internal/log"
	"github.com/ManuGH/go-service-template/internal/version"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "app",
		Short:         "go-service-template service binary",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(
		newServeCmd(),
		newWorkerCmd(),
		newHealthcheckCmd(),
		newVersionCmd(),
	)
	return cmd
}

// loadSettings loads and validates the environment and configures the
// global logger from it.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	level := settings.LogLevel
	if settings.Debug {
		level = "debug"
	}
	log.Configure(log.Config{
		Level:   level,
		Service: "go-service-template",
		Version: version.Version,
	})
	return settings, nil
}
