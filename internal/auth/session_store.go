package auth

import (
	"context"
	"sync"
	"time"
)

// SessionStore remembers issued tokens so they can be revoked and, when the
// guard verifies sessions, looked up.
type SessionStore interface {
	SaveSession(ctx context.Context, s Session) error
	SessionExists(ctx context.Context, token string) (bool, error)
	RevokeSession(ctx context.Context, token string) error
}

// MemorySessionStore keeps sessions in process memory. Restarting the server
// forgets them.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

// NewMemorySessionStore creates an empty in-process store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]time.Time), now: time.Now}
}

func (m *MemorySessionStore) SaveSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s.ExpiresAt
	return nil
}

// SessionExists reports whether token was issued and has not expired. Expired
// entries are dropped on lookup.
func (m *MemorySessionStore) SessionExists(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiresAt, ok := m.sessions[token]
	if !ok {
		return false, nil
	}
	if !expiresAt.IsZero() && !m.now().Before(expiresAt) {
		delete(m.sessions, token)
		return false, nil
	}
	return true, nil
}

func (m *MemorySessionStore) RevokeSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
