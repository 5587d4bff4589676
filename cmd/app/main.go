// SPDX-License-Identifier: MIT

// Command app is the single service binary: the HTTP API (serve), the
// background pipeline (worker) and operational helpers.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Local development reads settings from a .env file; in containers the
	// environment is already populated and the file is simply absent.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
