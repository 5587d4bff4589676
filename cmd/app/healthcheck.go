// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/go-service-template/internal/config"
)

// newHealthcheckCmd probes the local server, for Docker HEALTHCHECK and
// operator sanity checks.
func newHealthcheckCmd() *cobra.Command {
	var (
		mode    string
		port    int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check the local server's health or readiness endpoint",
		RunE: func(*cobra.Command, []string) error {
			return runHealthcheck(mode, port, timeout)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "ready", "healthcheck mode: ready (default) or live")
	// Default to the port the server itself was configured with, so the
	// Docker HEALTHCHECK keeps working when PORT is overridden.
	cmd.Flags().IntVar(&port, "port", config.ParseInt("PORT", 8000), "API port to check")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "check timeout")
	return cmd
}

func runHealthcheck(mode string, port int, timeout time.Duration) error {
	path := "/readyz"
	if mode == "live" {
		path = "/healthz"
	}

	url := fmt.Sprintf("http://localhost:%d%s", port, path)
	client := http.Client{Timeout: timeout}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("healthcheck failed (network): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck failed (status): %s", resp.Status)
	}

	fmt.Printf("healthcheck successful (%s)\n", mode)
	return nil
}
