// SPDX-License-Identifier: MIT

// validate checks settingsd inputs without starting the daemon.
//
// Usage:
//
//	validate -config settingsd.yaml
//	validate -schema app.hcl -values settings.yaml
//
// Exit codes:
//   - 0: every given input is valid
//   - 1: an input is invalid (parse or validation error)
//   - 2: usage error (no input given)
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ManuGH/appsettings/internal/appsettings"
	"github.com/ManuGH/appsettings/internal/config"
	"github.com/ManuGH/appsettings/internal/schema"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/ManuGH/appsettings/internal/store"
	"github.com/ManuGH/appsettings/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var configFile, schemaFile, valuesFile string
	var showVersion bool
	fs.StringVar(&configFile, "config", "", "path to settingsd YAML configuration")
	fs.StringVar(&schemaFile, "schema", "", "path to HCL settings declaration")
	fs.StringVar(&valuesFile, "values", "", "path to persisted YAML settings values")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	if configFile == "" && schemaFile == "" && valuesFile == "" {
		fmt.Fprintln(stderr, "Error: one of -config, -schema or -values is required")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintln(stderr, "  validate -config settingsd.yaml")
		fmt.Fprintln(stderr, "  validate -schema app.hcl -values settings.yaml")
		return 2
	}

	if configFile != "" {
		if _, err := config.NewLoader(configFile).Load(); err != nil {
			fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", configFile, err)
			return 1
		}
		fmt.Fprintf(stdout, "✓ %s is valid\n", configFile)
	}

	var decls []settings.Decl
	if schemaFile != "" {
		var err error
		decls, err = schema.ParseFile(context.Background(), schemaFile)
		if err != nil {
			fmt.Fprintf(stderr, "Schema error in %s:\n  %v\n", schemaFile, err)
			return 1
		}
	}
	s, err := appsettings.New(decls...)
	if err != nil {
		fmt.Fprintf(stderr, "Schema error in %s:\n  %v\n", schemaFile, err)
		return 1
	}
	if schemaFile != "" {
		fmt.Fprintf(stdout, "✓ %s is valid (%d settings)\n", schemaFile, s.Registry.Len())
	}

	if valuesFile != "" {
		return checkValues(s.Registry, valuesFile, stdout, stderr)
	}
	return 0
}

func checkValues(reg *settings.Registry, path string, stdout, stderr io.Writer) int {
	file, err := store.NewFileStore(path)
	if err != nil {
		fmt.Fprintf(stderr, "Values error in %s:\n  %v\n", path, err)
		return 1
	}
	records, err := file.Load(context.Background())
	if err != nil {
		fmt.Fprintf(stderr, "Values error in %s:\n  %v\n", path, err)
		return 1
	}

	rep := store.Apply(reg, records)
	if rep.Skipped() > 0 {
		fmt.Fprintf(stderr, "Values error in %s:\n", path)
		for _, p := range rep.Unknown {
			fmt.Fprintf(stderr, "  %s: unknown setting\n", p)
		}
		for _, inv := range rep.Invalid {
			fmt.Fprintf(stderr, "  %s: %v\n", inv.Path, inv.Err)
		}
		return 1
	}
	fmt.Fprintf(stdout, "✓ %s is valid (%d overrides)\n", path, len(rep.Applied))
	return 0
}
