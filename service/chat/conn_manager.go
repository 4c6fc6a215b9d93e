package chat

import (
	"sync"
)

// ConnManager is the live-connection registry, keyed by user id once a
// connection authenticates. One connection per user: a fresh login from the
// same user evicts the previous connection.
type ConnManager struct {
	mu     sync.RWMutex
	byUser map[string]*Client
	gwID   string
}

func NewConnManager(gwID string) *ConnManager {
	return &ConnManager{
		byUser: make(map[string]*Client),
		gwID:   gwID,
	}
}

func (m *ConnManager) GwID() string { return m.gwID }

// Register binds an authenticated client to its user id and returns the
// evicted previous connection, if any. The caller decides how to close it.
func (m *ConnManager) Register(user string, c *Client) *Client {
	if user == "" || c == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.byUser[user]
	if old == c {
		return nil
	}
	m.byUser[user] = c
	return old
}

func (m *ConnManager) Get(user string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byUser[user]
	return c, ok
}

// Remove drops the binding only when it still points at c, so a stale
// cleanup from an evicted connection cannot unbind its replacement.
func (m *ConnManager) Remove(user string, c *Client) {
	if user == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.byUser[user]; ok && cur == c {
		delete(m.byUser, user)
	}
}

// Snapshot copies the registry for iteration outside the lock.
func (m *ConnManager) Snapshot() map[string]*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*Client, len(m.byUser))
	for u, c := range m.byUser {
		out[u] = c
	}
	return out
}

func (m *ConnManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byUser)
}
