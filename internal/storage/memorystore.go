package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used for unit testing the ledger
// without touching disk. Load and save errors can be injected to exercise
// failure paths.
type MemoryStore struct {
	mu      sync.Mutex
	snap    Snapshot
	loadErr error
	saveErr error
	pingErr error
	saves   int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snap: Snapshot{}}
}

// WithLoadError makes subsequent Load calls fail with err.
func (m *MemoryStore) WithLoadError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
	return m
}

// WithSaveError makes subsequent Save calls fail with err.
func (m *MemoryStore) WithSaveError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
	return m
}

// WithPingError makes subsequent Ping calls fail with err.
func (m *MemoryStore) WithPingError(err error) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
	return m
}

// Seed primes the store contents before Load is called.
func (m *MemoryStore) Seed(snap Snapshot) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
	return m
}

func (m *MemoryStore) Load(_ context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.snap.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = snap.Clone()
	m.saves++
	return nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

func (m *MemoryStore) Close() error {
	return nil
}

// SaveCount reports how many saves succeeded.
func (m *MemoryStore) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Current returns a copy of the last saved snapshot.
func (m *MemoryStore) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone()
}
