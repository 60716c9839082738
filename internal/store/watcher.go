// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	applog "github.com/ManuGH/appsettings/internal/log"
	"github.com/ManuGH/appsettings/internal/metrics"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce collapses bursts of editor writes into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the YAML file into the registry when it is edited on disk.
type Watcher struct {
	file      *FileStore
	reg       *settings.Registry
	persister *Persister
	debounce  time.Duration
	onReload  func(ApplyReport)
	logger    zerolog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithPersister marks reloaded state as saved so autosave does not write it back.
func WithPersister(p *Persister) WatcherOption { return func(w *Watcher) { w.persister = p } }

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption { return func(w *Watcher) { w.debounce = d } }

// WithReloadHook is called after every applied reload.
func WithReloadHook(fn func(ApplyReport)) WatcherOption { return func(w *Watcher) { w.onReload = fn } }

func NewWatcher(file *FileStore, reg *settings.Registry, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		file:     file,
		reg:      reg,
		debounce: DefaultDebounce,
		logger:   applog.WithComponent("watcher"),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run watches until ctx is cancelled. The parent directory is watched
// because atomic saves replace the file and drop a file-level watch.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := w.file.ensureDir(); err != nil {
		return err
	}
	dir := filepath.Dir(w.file.Path())
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch settings directory: %w", err)
	}

	w.logger.Info().
		Str(applog.FieldEvent, "watcher.started").
		Str(applog.FieldPath, w.file.Path()).
		Msg("watching settings file for changes")

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str(applog.FieldEvent, "watcher.stopped").Msg("settings watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.file.Path() {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			w.logger.Debug().
				Str(applog.FieldEvent, "watcher.file_changed").
				Str("op", event.Op.String()).
				Msg("settings file changed")

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			w.Reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Str(applog.FieldEvent, "watcher.error").Msg("settings watcher error")
		}
	}
}

// Reload applies the file to the registry if its content changed since this
// process last read or wrote it.
func (w *Watcher) Reload(ctx context.Context) {
	records, changed, err := w.file.LoadIfChanged(ctx)
	if err != nil {
		metrics.IncWatcherReload(metrics.OutcomeFailure)
		w.logger.Error().
			Err(err).
			Str(applog.FieldEvent, "watcher.reload_failed").
			Msg("settings file reload failed, keeping current values")
		return
	}
	if !changed {
		return
	}

	rep := Reconcile(w.reg, records)
	if w.persister != nil {
		w.persister.MarkSaved(w.reg.Revision())
	}
	metrics.IncWatcherReload(metrics.OutcomeSuccess)

	ev := w.logger.Info()
	if rep.Skipped() > 0 {
		ev = w.logger.Warn().Strs("unknown", rep.Unknown).Int("invalid", len(rep.Invalid))
	}
	ev.Str(applog.FieldEvent, "watcher.reloaded").
		Int("applied", len(rep.Applied)).
		Int("reset", len(rep.Reset)).
		Uint64(applog.FieldRevision, w.reg.Revision()).
		Msg("settings file reloaded")

	if w.onReload != nil {
		w.onReload(rep)
	}
}
