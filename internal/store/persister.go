// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	applog "github.com/ManuGH/appsettings/internal/log"
	"github.com/ManuGH/appsettings/internal/metrics"
	"github.com/ManuGH/appsettings/internal/settings"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// PersistStatus is the last known state of the autosave worker.
type PersistStatus struct {
	Backend       string
	Revision      uint64
	SavedRevision uint64
	LastSave      time.Time
	LastError     error
	LastErrorAt   time.Time
}

// Dirty reports whether the registry has changes that are not persisted.
func (s PersistStatus) Dirty() bool { return s.Revision != s.SavedRevision }

// Persister saves registry overrides whenever the registry revision advances.
type Persister struct {
	reg      *settings.Registry
	store    Store
	interval time.Duration
	logger   zerolog.Logger

	// Repeated failures are logged at most every 30s.
	failLog rate.Sometimes

	saveMu sync.Mutex // serialises saves

	runMu   sync.Mutex
	closed  bool
	stop    context.CancelFunc
	stopped chan struct{}

	mu          sync.Mutex
	savedRev    uint64
	lastSave    time.Time
	lastErr     error
	lastErrorAt time.Time
}

// NewPersister creates an autosave worker. The current registry revision is
// treated as already persisted, so call it after loading stored values.
func NewPersister(reg *settings.Registry, st Store, interval time.Duration) *Persister {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Persister{
		reg:      reg,
		store:    st,
		interval: interval,
		logger:   applog.WithComponent("persister"),
		failLog:  rate.Sometimes{First: 1, Interval: 30 * time.Second},
		savedRev: reg.Revision(),
	}
}

// Run saves on every tick when the registry changed. It returns when ctx is
// cancelled or Close is called.
func (p *Persister) Run(ctx context.Context) error {
	p.runMu.Lock()
	if p.closed {
		p.runMu.Unlock()
		return nil
	}
	if p.stopped != nil {
		p.runMu.Unlock()
		return errors.New("persister already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	p.stop, p.stopped = cancel, stopped
	p.runMu.Unlock()
	defer close(stopped)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().
		Str(applog.FieldEvent, "persister.started").
		Str(applog.FieldBackend, p.store.Backend()).
		Dur("interval", p.interval).
		Msg("autosave started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Str(applog.FieldEvent, "persister.stopped").Msg("autosave stopped")
			return nil
		case <-ticker.C:
			_ = p.Flush(ctx)
		}
	}
}

// Close stops Run, waits for it to return and saves the final state. Every
// later Save or Flush fails with ErrClosed, so the store may be closed
// once Close returns.
func (p *Persister) Close(ctx context.Context) error {
	p.runMu.Lock()
	if p.closed {
		p.runMu.Unlock()
		return nil
	}
	p.closed = true
	stop, stopped := p.stop, p.stopped
	p.runMu.Unlock()

	if stop != nil {
		stop()
		select {
		case <-stopped:
		case <-ctx.Done():
			return fmt.Errorf("wait for autosave: %w", ctx.Err())
		}
	}

	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	if !p.Status().Dirty() {
		return nil
	}
	return p.saveLocked(ctx)
}

func (p *Persister) isClosed() bool {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	return p.closed
}

// Flush saves if the registry changed since the last successful save.
func (p *Persister) Flush(ctx context.Context) error {
	if !p.Status().Dirty() {
		return nil
	}
	return p.Save(ctx)
}

// Save persists the current overrides unconditionally.
func (p *Persister) Save(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	if p.isClosed() {
		return ErrClosed
	}
	return p.saveLocked(ctx)
}

func (p *Persister) saveLocked(ctx context.Context) error {
	rev := p.reg.Revision()
	records := Snapshot(p.reg)
	err := p.store.Save(ctx, records)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.lastErr = err
		p.lastErrorAt = time.Now()
		p.failLog.Do(func() {
			p.logger.Error().
				Err(err).
				Str(applog.FieldEvent, "persister.save_failed").
				Str(applog.FieldBackend, p.store.Backend()).
				Uint64(applog.FieldRevision, rev).
				Msg("failed to persist settings")
		})
		return fmt.Errorf("save settings: %w", err)
	}
	if rev > p.savedRev {
		p.savedRev = rev
	}
	p.lastSave = time.Now()
	p.lastErr = nil
	metrics.RecordRegistryState(rev, len(records))
	p.logger.Debug().
		Str(applog.FieldEvent, "persister.saved").
		Uint64(applog.FieldRevision, rev).
		Int("records", len(records)).
		Msg("settings persisted")
	return nil
}

// MarkSaved records rev as persisted without writing, e.g. after a reload
// brought the registry in line with the store.
func (p *Persister) MarkSaved(rev uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rev > p.savedRev {
		p.savedRev = rev
	}
}

// Status returns the current autosave state.
func (p *Persister) Status() PersistStatus {
	rev := p.reg.Revision()
	p.mu.Lock()
	defer p.mu.Unlock()
	return PersistStatus{
		Backend:       p.store.Backend(),
		Revision:      rev,
		SavedRevision: p.savedRev,
		LastSave:      p.lastSave,
		LastError:     p.lastErr,
		LastErrorAt:   p.lastErrorAt,
	}
}
