// Package session tracks logged-in accounts by opaque bearer token.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL applies when no lifetime is configured.
const DefaultTTL = 15 * time.Minute

type entry struct {
	account string
	expires time.Time
}

// Manager issues and resolves session tokens. Expired entries are dropped
// lazily on lookup.
type Manager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]entry
	now      func() time.Time
}

// NewManager creates a Manager whose tokens live for ttl.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		ttl:      ttl,
		sessions: make(map[string]entry),
		now:      time.Now,
	}
}

// Create issues a fresh token bound to the account number.
func (m *Manager) Create(account string) string {
	token := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = entry{account: account, expires: m.now().Add(m.ttl)}
	return token
}

// Lookup resolves a token to its account number. Expired or unknown tokens
// report false.
func (m *Manager) Lookup(token string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[token]
	if !ok {
		return "", false
	}
	if m.now().After(e.expires) {
		delete(m.sessions, token)
		return "", false
	}
	return e.account, true
}

// Destroy invalidates a token. Unknown tokens are ignored.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Run sweeps expired sessions every interval until ctx is cancelled.
// Lookup already drops expired entries lazily; the sweep reclaims tokens
// that are never looked up again.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep removes all expired sessions and reports how many were dropped.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	dropped := 0
	for token, e := range m.sessions {
		if now.After(e.expires) {
			delete(m.sessions, token)
			dropped++
		}
	}
	return dropped
}
