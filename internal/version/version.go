// SPDX-License-Identifier: MIT

// Package version holds build metadata injected via ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is populated by the build system (-ldflags "-X ...version.Version=v1.2.3").
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// Resolved returns Version, falling back to the main module version recorded
// by the Go toolchain when no ldflags were given.
func Resolved() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// String renders the full build line printed by -version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Resolved(), Commit, Date)
}
