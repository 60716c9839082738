// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"slices"
	"sync"

	"github.com/ManuGH/appsettings/internal/config"
)

// MemoryStore keeps records in process memory. Used for tests and for
// daemons that should start from defaults every time.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
	closed  bool
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return slices.Clone(m.records), nil
}

func (m *MemoryStore) Save(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.records = slices.Clone(records)
	sortRecords(m.records)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MemoryStore) Backend() string { return config.BackendMemory }
