package social

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
)

// EdgeStatus is the state of a friendship
type EdgeStatus string

const (
	EdgePending  EdgeStatus = "pending"
	EdgeAccepted EdgeStatus = "accepted"
)

// Edge is a friendship between two identities
type Edge struct {
	ID         string     `json:"id"`
	Requester  string     `json:"requester"`
	Addressee  string     `json:"addressee"`
	Status     EdgeStatus `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
}

// Other returns the identity on the other end of the edge from id
func (e Edge) Other(id string) string {
	if e.Requester == id {
		return e.Addressee
	}
	return e.Requester
}

type pairKey struct {
	lo, hi string
}

func keyOf(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Graph is the friend graph
type Graph struct {
	edges map[pairKey]*Edge
	byID  map[string]pairKey
	store  EdgeStore
	writer *edgeWriter
	now    func() time.Time
	mu     sync.RWMutex
}

// NewGraph creates a graph backed by store, loading any persisted edges.
// Changes are written by a background goroutine; Close flushes it. A nil
// store keeps the graph in memory only.
func NewGraph(store EdgeStore) (*Graph, error) {
	g := &Graph{
		edges: make(map[pairKey]*Edge),
		byID:  make(map[string]pairKey),
		store: store,
		now:   time.Now,
	}
	if store == nil {
		return g, nil
	}

	edges, err := store.LoadEdges()
	if err != nil {
		return nil, err
	}
	for i := range edges {
		e := edges[i]
		k := keyOf(e.Requester, e.Addressee)
		if _, dup := g.edges[k]; dup {
			log.Printf("Warning: skipping duplicate friend edge %s", e.ID)
			continue
		}
		g.edges[k] = &e
		g.byID[e.ID] = k
	}
	if len(edges) > 0 {
		log.Printf("Loaded %d friend edges from storage", len(g.edges))
	}
	g.writer = newEdgeWriter(store)
	return g, nil
}

// Request creates a pending edge from one identity to another.
func (g *Graph) Request(from, to string) (Edge, error) {
	if to == "" {
		return Edge{}, gameerr.ErrMissingTarget
	}
	if from == to {
		return Edge{}, gameerr.ErrSelfRequest
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	k := keyOf(from, to)
	if _, exists := g.edges[k]; exists {
		return Edge{}, gameerr.ErrAlreadyExists
	}

	e := &Edge{
		ID:        uuid.NewString(),
		Requester: from,
		Addressee: to,
		Status:    EdgePending,
		CreatedAt: g.now(),
	}
	g.edges[k] = e
	g.byID[e.ID] = k
	g.persistLocked()

	return *e, nil
}

// Respond answers a pending request addressed to responder. Accepting marks
// the edge accepted, rejecting deletes it.
func (g *Graph) Respond(responder, requestID string, accept bool) (Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	k, ok := g.byID[requestID]
	if !ok {
		return Edge{}, gameerr.ErrRequestNotFound
	}
	e := g.edges[k]
	if e.Status != EdgePending || e.Addressee != responder {
		return Edge{}, gameerr.ErrRequestNotFound
	}

	if accept {
		now := g.now()
		e.Status = EdgeAccepted
		e.AcceptedAt = &now
	} else {
		delete(g.edges, k)
		delete(g.byID, requestID)
	}
	g.persistLocked()

	return *e, nil
}

// AreFriends reports whether a and b share an accepted edge
func (g *Graph) AreFriends(a, b string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.edges[keyOf(a, b)]
	return ok && e.Status == EdgeAccepted
}

// Edge returns the edge between a and b in either direction
func (g *Graph) Edge(a, b string) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.edges[keyOf(a, b)]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// ByID returns the edge created by a friend request
func (g *Graph) ByID(requestID string) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	k, ok := g.byID[requestID]
	if !ok {
		return Edge{}, false
	}
	return *g.edges[k], true
}

// Friends returns the accepted friends of id, sorted
func (g *Graph) Friends(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var friends []string
	for k, e := range g.edges {
		if e.Status != EdgeAccepted || (k.lo != id && k.hi != id) {
			continue
		}
		friends = append(friends, e.Other(id))
	}
	sort.Strings(friends)
	return friends
}

// Pending returns the requests waiting for id to answer, oldest first
func (g *Graph) Pending(id string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var pending []Edge
	for _, e := range g.edges {
		if e.Status == EdgePending && e.Addressee == id {
			pending = append(pending, *e)
		}
	}
	sortEdges(pending)
	return pending
}

// EdgesOf returns every edge touching id, oldest first
func (g *Graph) EdgesOf(id string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var edges []Edge
	for k, e := range g.edges {
		if k.lo == id || k.hi == id {
			edges = append(edges, *e)
		}
	}
	sortEdges(edges)
	return edges
}

// Len returns the number of edges
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Close writes the latest pending snapshot and stops the writer
func (g *Graph) Close() {
	if g.writer != nil {
		g.writer.close()
	}
}

// persistLocked hands a snapshot of the edges to the writer. Caller holds the
// write lock.
func (g *Graph) persistLocked() {
	if g.writer == nil {
		return
	}
	edges := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, *e)
	}
	sortEdges(edges)
	g.writer.submit(edges)
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].ID < edges[j].ID
		}
		return edges[i].CreatedAt.Before(edges[j].CreatedAt)
	})
}
