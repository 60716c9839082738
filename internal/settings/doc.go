// SPDX-License-Identifier: MIT

// Package settings implements a typed, grouped settings registry.
//
// A registry is built once from a static declaration (see Group, Bool, Int and
// friends, or package schema for HCL declaration files) and then offers lookup,
// enumeration, mutation and reset of leaf values by path. The tree shape and all
// display metadata are fixed after New; only leaf values change.
//
// The package performs no I/O and never logs. Persistence, HTTP exposure and
// constant binding are left to callers.
package settings
