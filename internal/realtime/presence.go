package realtime

import "sync"

// Registry maps users to their single live connection. A newer connection
// replaces the older one for push purposes; the older one is not closed here.
type Registry struct {
	mu    sync.RWMutex
	conns map[int64]*Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[int64]*Conn)}
}

// Register makes c the user's connection and returns the one it replaced, if any.
func (r *Registry) Register(userID int64, c *Conn) *Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[userID]
	r.conns[userID] = c
	if prev == c {
		return nil
	}
	return prev
}

// Unregister removes the user's mapping only if it still points at c, so a
// late disconnect cannot drop a newer registration. It reports whether
// anything was removed.
func (r *Registry) Unregister(userID int64, c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[userID]; ok && cur == c {
		delete(r.conns, userID)
		return true
	}
	return false
}

// Lookup returns the user's connection.
func (r *Registry) Lookup(userID int64) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[userID]
	return c, ok
}

// Count returns the number of connected users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// Conns returns a snapshot of the registered connections.
func (r *Registry) Conns() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
