// SPDX-License-Identifier: MIT

// Package store persists setting values outside the registry. It only sees
// leaves by path in canonical text form; the registry never depends on it.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ManuGH/appsettings/internal/config"
	"github.com/ManuGH/appsettings/internal/metrics"
	"github.com/ManuGH/appsettings/internal/settings"
)

var (
	// ErrUnknownBackend is returned by Open for unsupported backend names.
	ErrUnknownBackend = errors.New("unknown store backend")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

// Record is the persisted form of one leaf. Kind may be KindInvalid when the
// backend does not keep it (the YAML file); Apply then trusts the declaration.
type Record struct {
	Path  string        `json:"path" yaml:"path"`
	Kind  settings.Kind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Value string        `json:"value" yaml:"value"`
}

// Store is a persistence backend for setting values.
type Store interface {
	// Load returns every persisted record.
	Load(ctx context.Context) ([]Record, error)
	// Save replaces the persisted set with records.
	Save(ctx context.Context, records []Record) error
	Ping(ctx context.Context) error
	Close() error
	Backend() string
}

// Open creates the backend selected by cfg and wraps it with metrics.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.BackendFile:
		s, err = NewFileStore(cfg.Path)
	case config.BackendSQLite:
		s, err = OpenSQLite(ctx, cfg.Path)
	case config.BackendBadger:
		s, err = OpenBadger(cfg.Path)
	case config.BackendRedis:
		s, err = OpenRedis(ctx, cfg.Redis)
	case config.BackendMemory:
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return Instrument(s), nil
}

// sortRecords orders records by path so every backend loads deterministically.
func sortRecords(records []Record) {
	slices.SortFunc(records, func(a, b Record) int { return strings.Compare(a.Path, b.Path) })
}

type instrumented struct {
	Store
}

// Instrument wraps s so every call is recorded in the store metrics.
func Instrument(s Store) Store {
	if _, ok := s.(instrumented); ok {
		return s
	}
	return instrumented{Store: s}
}

// Unwrap returns the backend behind an instrumented store.
func Unwrap(s Store) Store {
	if i, ok := s.(instrumented); ok {
		return i.Store
	}
	return s
}

func (i instrumented) Load(ctx context.Context) ([]Record, error) {
	start := time.Now()
	records, err := i.Store.Load(ctx)
	metrics.ObserveStoreOp(i.Backend(), "load", time.Since(start), err)
	return records, err
}

func (i instrumented) Save(ctx context.Context, records []Record) error {
	start := time.Now()
	err := i.Store.Save(ctx, records)
	metrics.ObserveStoreOp(i.Backend(), "save", time.Since(start), err)
	if err == nil {
		metrics.RecordSave(time.Now(), len(records))
	}
	return err
}

func (i instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := i.Store.Ping(ctx)
	metrics.ObserveStoreOp(i.Backend(), "ping", time.Since(start), err)
	return err
}
