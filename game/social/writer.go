package social

import (
	"log"
	"sync"
)

// edgeWriter saves graph snapshots on its own goroutine. Only the newest
// unsaved snapshot is kept: a snapshot replaced before the writer picks it up
// is never written.
type edgeWriter struct {
	store  EdgeStore
	latest chan []Edge
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	closed bool
}

func newEdgeWriter(store EdgeStore) *edgeWriter {
	w := &edgeWriter{
		store:  store,
		latest: make(chan []Edge, 1),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// submit queues edges without waiting for storage
func (w *edgeWriter) submit(edges []Edge) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		<-w.done
		w.save(edges)
		return
	}
	select {
	case <-w.latest:
	default:
	}
	w.latest <- edges
}

func (w *edgeWriter) close() {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		close(w.latest)
		w.mu.Unlock()
		<-w.done
	})
}

func (w *edgeWriter) run() {
	defer close(w.done)
	for edges := range w.latest {
		w.save(edges)
	}
}

func (w *edgeWriter) save(edges []Edge) {
	if err := w.store.SaveEdges(edges); err != nil {
		log.Printf("Warning: Failed to persist friend graph: %v", err)
	}
}
