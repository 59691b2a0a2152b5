// internal/store/memory.go
//
// In-memory registry of live solving sessions.
//
// Characteristics:
//   - Stores *session.Session values keyed by ID in a map.
//   - Concurrency-safe via RWMutex. Get takes the write lock because it refreshes
//     the idle timestamp; only Len shares the read lock.
//   - Sessions idle longer than the TTL are dropped by Sweep.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/wordle/apps/solver-server/internal/session"
)

// ErrNotFound is returned by Get for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Store defines the registry interface for live sessions.
type Store interface {
	// Save registers or replaces a session.
	Save(ctx context.Context, s *session.Session) error

	// Get retrieves a session by ID and marks it as recently used.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete forgets a session. Unknown IDs are ignored.
	Delete(ctx context.Context, id string) error
}

// NewID returns a fresh random session identifier.
func NewID() string { return uuid.NewString() }

type entry struct {
	s    *session.Session
	seen time.Time
}

// Memory is a map-based Store implementation.
type Memory struct {
	mu       sync.RWMutex      // guards sessions
	sessions map[string]*entry // keyed by Session.ID
	now      func() time.Time
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{sessions: make(map[string]*entry), now: time.Now}
}

// Save adds or updates the session in the map.
func (m *Memory) Save(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = &entry{s: s, seen: m.now()}
	return nil
}

// Get looks up a session by ID.
func (m *Memory) Get(ctx context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.seen = m.now()
	return e.s, nil
}

// Delete removes a session.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports the number of live sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions not used within ttl and returns how many were removed.
func (m *Memory) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if e.seen.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
