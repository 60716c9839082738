// SPDX-License-Identifier: MIT

// Package appsettings declares the application's settings tree.
package appsettings

import (
	"fmt"

	"github.com/ManuGH/appsettings/internal/settings"
)

// Canonical paths of the built-in settings.
const (
	PathDebug       = "Debug"
	PathEnableVSync = "Debug/EnableVSync"
)

// Declaration returns the static settings declaration.
func Declaration() []settings.Decl {
	return []settings.Decl{
		settings.Group("Debug", settings.GroupMeta{Expand: true},
			settings.Bool("EnableVSync", true, settings.Meta{
				DisplayName:   "Enable VSync",
				HelpText:      "Enables or disables vertical sync during Present",
				UseAsConstant: false,
			}),
		),
	}
}

// Settings bundles the registry with typed handles for the built-in leaves.
type Settings struct {
	Registry    *settings.Registry
	EnableVSync settings.Handle[bool]
}

// New builds the registry from decls and binds the built-in handles.
// Passing no decls uses Declaration(). A declaration loaded from a file must
// still provide every built-in leaf with its built-in kind.
func New(decls ...settings.Decl) (*Settings, error) {
	if len(decls) == 0 {
		decls = Declaration()
	}
	reg, err := settings.New(decls...)
	if err != nil {
		return nil, fmt.Errorf("build settings registry: %w", err)
	}

	vsync, err := settings.Bind[bool](reg, PathEnableVSync)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", PathEnableVSync, err)
	}

	return &Settings{Registry: reg, EnableVSync: vsync}, nil
}
