//go:build tools

// SPDX-License-Identifier: MIT

// Package tools pins development tool dependencies. Tools themselves are
// installed at fixed versions via `make sync`, not tracked here as imports,
// so they never leak into the application binary.
package tools
