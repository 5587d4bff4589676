// SPDX-License-Identifier: MIT

package version

var (
	// Version is the current application version.
	// It is populated by the build system (ldflags); the fallback marks dev builds.
	Version = "v0.1.0-dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)
