// SPDX-License-Identifier: MIT

// Package daemon wires the settings registry, its store and the HTTP API into
// a running process.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/appsettings/internal/api"
	"github.com/ManuGH/appsettings/internal/appsettings"
	"github.com/ManuGH/appsettings/internal/config"
	"github.com/ManuGH/appsettings/internal/health"
	applog "github.com/ManuGH/appsettings/internal/log"
	"github.com/ManuGH/appsettings/internal/metrics"
	"github.com/ManuGH/appsettings/internal/schema"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/ManuGH/appsettings/internal/store"
	"github.com/ManuGH/appsettings/internal/telemetry"
)

// Options carries build information and test overrides into Bootstrap.
type Options struct {
	Version string
	// Declaration replaces the built-in tree when no schema file is configured.
	Declaration []settings.Decl
}

// Bootstrap builds an App from a validated configuration. On error every
// resource opened so far is released.
func Bootstrap(ctx context.Context, cfg config.Config, opts Options) (_ *App, err error) {
	logger := applog.WithComponent("daemon")

	var cleanup []func()
	defer func() {
		if err != nil {
			for i := len(cleanup) - 1; i >= 0; i-- {
				cleanup[i]()
			}
		}
	}()

	tp, err := telemetry.NewProvider(ctx, telemetry.FromConfig(cfg.Telemetry, cfg.LogService, opts.Version))
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	cleanup = append(cleanup, func() { _ = tp.Shutdown(context.Background()) })

	decls := opts.Declaration
	if cfg.SchemaFile != "" {
		if decls, err = schema.ParseFile(ctx, cfg.SchemaFile); err != nil {
			return nil, err
		}
		logger.Info().Str(applog.FieldPath, cfg.SchemaFile).Msg("settings schema loaded")
	}
	s, err := appsettings.New(decls...)
	if err != nil {
		return nil, err
	}
	reg := s.Registry

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, func() { _ = st.Close() })

	records, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persisted settings: %w", err)
	}
	logReport(logger, "settings.loaded", store.Apply(reg, records))
	metrics.RecordRegistryState(reg.Revision(), len(reg.Overrides()))

	persister := store.NewPersister(reg, st, cfg.Store.AutosaveInterval)

	var watcher *store.Watcher
	if fs, ok := store.Unwrap(st).(*store.FileStore); ok && cfg.Store.Watch {
		watcher = store.NewWatcher(fs, reg, store.WithPersister(persister))
	}

	hm := health.NewManager(opts.Version)
	hm.RegisterChecker(health.NewStoreChecker(st))
	hm.RegisterChecker(health.NewPersistChecker(persister.Status))

	service := ""
	if cfg.Telemetry.Enabled {
		service = cfg.LogService
	}
	srv := api.New(reg, api.Options{
		Persister: persister,
		Health:    hm,
		Config:    cfg.API,
		Service:   service,
	})

	mgr, err := NewManager(DefaultServerConfig(cfg.ListenAddr, cfg.API.ShutdownTimeout), Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
	})
	if err != nil {
		return nil, err
	}

	// LIFO: stop autosave and flush, then close the store, then telemetry.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("store", func(context.Context) error { return st.Close() })
	// Close waits for the autosave loop, so nothing saves after the store hook.
	mgr.RegisterShutdownHook("autosave", persister.Close)

	logger.Info().
		Str(applog.FieldBackend, st.Backend()).
		Int("settings", reg.Len()).
		Int("overrides", len(reg.Overrides())).
		Bool("watch", watcher != nil).
		Msg("settings daemon bootstrapped")

	return NewApp(logger, mgr, Runtime{
		Settings:  s,
		Store:     st,
		Persister: persister,
		Watcher:   watcher,
	})
}

// WaitForShutdown returns a context cancelled on interrupt/termination signals.
func WaitForShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
