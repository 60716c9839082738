// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/appsettings/internal/appsettings"
	applog "github.com/ManuGH/appsettings/internal/log"
	"github.com/ManuGH/appsettings/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Runtime is the settings state owned by an App.
type Runtime struct {
	Settings  *appsettings.Settings
	Store     store.Store
	Persister *store.Persister
	// Watcher is nil unless the file backend is watched.
	Watcher *store.Watcher
}

// App owns the long-lived runtime lifecycle (autosave, file watcher, reload
// signal) and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	rt           Runtime
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager, rt Runtime) (*App, error) {
	if manager == nil {
		return nil, ErrMissingManager
	}
	if rt.Settings == nil || rt.Settings.Registry == nil {
		return nil, ErrMissingRegistry
	}
	return &App{
		logger:       logger,
		manager:      manager,
		rt:           rt,
		reloadSignal: syscall.SIGHUP,
	}, nil
}

// Settings returns the live settings.
func (a *App) Settings() *appsettings.Settings { return a.rt.Settings }

// Manager returns the server manager.
func (a *App) Manager() Manager { return a.manager }

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.rt.Persister != nil {
		g.Go(func() error { return a.rt.Persister.Run(ctx) })
	}

	// The watcher is best-effort: a failure only disables live reload.
	if a.rt.Watcher != nil {
		g.Go(func() error {
			if err := a.rt.Watcher.Run(ctx); err != nil {
				a.logger.Warn().Err(err).Str(applog.FieldEvent, "watcher.start_failed").Msg("settings watcher stopped")
			}
			return nil
		})
	}

	// SIGHUP trigger for manual reload from the store.
	if a.rt.Store != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(applog.FieldEvent, "settings.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading settings")

					if _, err := a.Reload(context.WithoutCancel(ctx)); err != nil {
						a.logger.Warn().
							Err(err).
							Str(applog.FieldEvent, "settings.reload_failed").
							Msg("settings reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

// Reload replaces the live overrides with what the store holds. Overrides
// the store no longer has are reset to defaults.
func (a *App) Reload(ctx context.Context) (store.ApplyReport, error) {
	if a.rt.Store == nil {
		return store.ApplyReport{}, nil
	}
	records, err := a.rt.Store.Load(ctx)
	if err != nil {
		return store.ApplyReport{}, fmt.Errorf("load settings: %w", err)
	}
	reg := a.rt.Settings.Registry
	rep := store.Reconcile(reg, records)
	if a.rt.Persister != nil {
		a.rt.Persister.MarkSaved(reg.Revision())
	}
	logReport(a.logger, "settings.reloaded", rep)
	return rep, nil
}

func logReport(logger zerolog.Logger, event string, rep store.ApplyReport) {
	ev := logger.Info()
	if rep.Skipped() > 0 {
		ev = logger.Warn().Strs("unknown", rep.Unknown)
		for _, inv := range rep.Invalid {
			logger.Warn().
				Err(inv.Err).
				Str(applog.FieldSettingPath, inv.Path).
				Str(applog.FieldEvent, "settings.record_invalid").
				Msg("persisted value skipped")
		}
	}
	ev.Str(applog.FieldEvent, event).
		Int("applied", len(rep.Applied)).
		Int("reset", len(rep.Reset)).
		Int("skipped", rep.Skipped()).
		Msg("persisted settings applied")
}
