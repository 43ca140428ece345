package presence

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/pongarena/auth"
)

// Status is the presence state of an identity.
type Status string

const (
	StatusOnline  Status = "online"
	StatusInGame  Status = "in-game"
	StatusOffline Status = "offline"
)

// Conn is a live connection that can receive encoded events.
type Conn interface {
	Send(msg []byte) error
	Close() error
}

// Entry is the presence record of one identity
type Entry struct {
	Identity auth.Identity `json:"identity"`
	Conn     Conn          `json:"-"`
	Status   Status        `json:"status"`
	Since    time.Time     `json:"since"`
}

// Registry maps identities to their live connection and back
type Registry struct {
	byID   map[string]*Entry
	byConn map[Conn]string
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Entry),
		byConn: make(map[Conn]string),
	}
}

// Register stores the entry for identity. A previous connection for the same
// identity is replaced and returned so the caller can close it.
func (r *Registry) Register(identity auth.Identity, conn Conn) (replaced Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := StatusOnline
	if old, ok := r.byID[identity.ID]; ok {
		replaced = old.Conn
		delete(r.byConn, old.Conn)
		// A reconnect during a match keeps the player in the room.
		status = old.Status
	}
	if prevID, ok := r.byConn[conn]; ok && prevID != identity.ID {
		delete(r.byID, prevID)
	}

	r.byID[identity.ID] = &Entry{
		Identity: identity,
		Conn:     conn,
		Status:   status,
		Since:    time.Now(),
	}
	r.byConn[conn] = identity.ID

	log.Printf("Presence registered %s (online: %d)", identity.ID, len(r.byID))
	return replaced
}

// Unregister removes the entry owned by conn. A stale handle, one that was
// already replaced by a newer connection, is ignored and reports false.
func (r *Registry) Unregister(conn Conn) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byConn[conn]
	if !ok {
		return Entry{}, false
	}
	delete(r.byConn, conn)

	entry, ok := r.byID[id]
	if !ok || entry.Conn != conn {
		return Entry{}, false
	}
	delete(r.byID, id)

	log.Printf("Presence unregistered %s (online: %d)", id, len(r.byID))
	return *entry, true
}

// Resolve returns the live connection of an identity
func (r *Registry) Resolve(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return entry.Conn, true
}

// Lookup returns a copy of the entry for an identity
func (r *Registry) Lookup(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byID[id]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// IdentityOf returns the identity that owns conn
func (r *Registry) IdentityOf(conn Conn) (auth.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byConn[conn]
	if !ok {
		return auth.Identity{}, false
	}
	return r.byID[id].Identity, true
}

// IsOnline reports whether the identity has a live connection
func (r *Registry) IsOnline(id string) bool {
	_, ok := r.Resolve(id)
	return ok
}

// Status returns the presence status, StatusOffline when not connected
func (r *Registry) Status(id string) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.byID[id]; ok {
		return entry.Status
	}
	return StatusOffline
}

// SetStatus flips the status of a connected identity. It returns false when
// the identity is offline or already had that status.
func (r *Registry) SetStatus(id string, status Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.byID[id]
	if !ok || entry.Status == status {
		return false
	}
	entry.Status = status
	entry.Since = time.Now()
	return true
}

// Online returns all entries ordered by identity id
func (r *Registry) Online() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.byID))
	for _, entry := range r.byID {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Identity.ID < entries[j].Identity.ID
	})
	return entries
}

// Count returns the number of connected identities
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
