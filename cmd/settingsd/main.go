// SPDX-License-Identifier: MIT

// settingsd serves a settings registry over HTTP and persists overrides.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/appsettings/internal/config"
	"github.com/ManuGH/appsettings/internal/daemon"
	"github.com/ManuGH/appsettings/internal/health"
	applog "github.com/ManuGH/appsettings/internal/log"
	"github.com/ManuGH/appsettings/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until config is loaded
	applog.Configure(applog.Config{
		Level:   "info",
		Service: "appsettings",
		Version: version.Resolved(),
	})
	logger := applog.WithComponent("daemon")

	ctx, stop := daemon.WaitForShutdown()
	defer stop()

	// Precedence: ENV > File > Defaults
	path := strings.TrimSpace(*configPath)
	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(applog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	applog.Configure(applog.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.LogService,
		Version: version.Resolved(),
	})
	logger = applog.WithComponent("daemon")

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(applog.FieldEvent, "config.loaded").
		Str("source", source).
		Str(applog.FieldPath, path).
		Str(applog.FieldBackend, cfg.Store.Backend).
		Msg("configuration loaded")

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str(applog.FieldEvent, "startup.check_failed").
			Msg("Startup checks failed. Please verify configuration and permissions.")
	}

	app, err := daemon.Bootstrap(ctx, cfg, daemon.Options{Version: version.Resolved()})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(applog.FieldEvent, "bootstrap.failed").
			Msg("failed to start settings daemon")
	}

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Str(applog.FieldEvent, "daemon.failed").Msg("settings daemon stopped with error")
		stop()
		os.Exit(1)
	}
	logger.Info().Str(applog.FieldEvent, "daemon.stopped").Msg("settings daemon stopped")
}
