package registry

import (
	"sync"
	"time"
)

// Conn is the part of a live connection the registry needs.
type Conn interface {
	ID() string
	Close() error
}

// Entry is a registered connection together with the time it was accepted.
type Entry struct {
	Conn        Conn
	ConnectedAt time.Time
}

// Registry is a thread-safe set of live connections keyed by connection ID.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Entry
	now   func() time.Time // injectable for deterministic tests
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		conns: make(map[string]*Entry),
		now:   time.Now,
	}
}

// Register adds c. Registering the same ID again replaces the entry.
func (r *Registry) Register(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID()] = &Entry{Conn: c, ConnectedAt: r.now()}
}

// Deregister removes c. It is a no-op if c is not registered, so it is safe
// to call from every close path.
func (r *Registry) Deregister(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[c.ID()]; ok && e.Conn == c {
		delete(r.conns, c.ID())
	}
}

// Get returns the entry registered under id.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	return e, ok
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll closes every registered connection and returns how many were
// closed. Entries are removed by each connection's own cleanup path, not here.
func (r *Registry) CloseAll() int {
	r.mu.RLock()
	targets := make([]Conn, 0, len(r.conns))
	for _, e := range r.conns {
		targets = append(targets, e.Conn)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		c.Close() //nolint:errcheck
	}
	return len(targets)
}
