// memory.go -- in-process session backend.
//
// Suitable when losing every session on restart is acceptable (which the
// per-process signing key already implies). Expired entries are dropped lazily on
// load and in bulk by Sweep, which run() calls from its housekeeping ticker.
package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/MGallo-Code/bookshelf/internal/store"
)

type memoryEntry struct {
	data      store.SessionData
	expiresAt time.Time
}

// MemoryBackend holds sessions in a mutex-guarded map.
type MemoryBackend struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry

	// now is swapped in tests.
	now func() time.Time
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

// LoadSession returns a copy of the stored data, or store.ErrSessionNotFound.
func (b *MemoryBackend) LoadSession(_ context.Context, id string) (*store.SessionData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	if !b.now().Before(e.expiresAt) {
		delete(b.sessions, id)
		return nil, store.ErrSessionNotFound
	}
	d := e.data
	return &d, nil
}

// SaveSession stores a copy of data until now+ttl.
func (b *MemoryBackend) SaveSession(_ context.Context, id string, data *store.SessionData, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[id] = memoryEntry{data: *data, expiresAt: b.now().Add(ttl)}
	return nil
}

// DeleteSession removes id.
func (b *MemoryBackend) DeleteSession(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, id)
	return nil
}

// CheckHealth always succeeds; kept so main can treat both backends alike.
func (b *MemoryBackend) CheckHealth(context.Context) error { return nil }

// Sweep drops expired entries and returns how many were removed.
func (b *MemoryBackend) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	n := 0
	for id, e := range b.sessions {
		if !now.Before(e.expiresAt) {
			delete(b.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// NewSecret returns 32 bytes from crypto/rand for NewManager.
func NewSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating session secret: %w", err)
	}
	return secret, nil
}
