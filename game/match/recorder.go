package match

import (
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
)

const defaultQueueSize = 64

// Recorder persists results on a background goroutine
type Recorder struct {
	store   ResultStore
	queue   chan Result
	done    chan struct{}
	onSaved func(Result)
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

// NewRecorder starts the background writer
func NewRecorder(store ResultStore) *Recorder {
	r := &Recorder{
		store: store,
		queue: make(chan Result, defaultQueueSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// OnSaved registers a callback run after each successful save
func (r *Recorder) OnSaved(fn func(Result)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSaved = fn
}

// Record queues a result without blocking. It assigns an id when missing and
// returns false when the result was dropped.
func (r *Recorder) Record(result Result) bool {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}

	select {
	case r.queue <- result:
		return true
	default:
		log.Printf("Warning: match queue full, dropping result %s", result.ID)
		return false
	}
}

// Close drains the queue and stops the writer
func (r *Recorder) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
		<-r.done
	})
}

func (r *Recorder) run() {
	defer close(r.done)
	for result := range r.queue {
		if err := r.store.Save(result); err != nil {
			log.Printf("Warning: Failed to persist match %s: %v", result.ID, err)
			continue
		}
		log.Printf("[MATCH] saved %s %s %d-%d %s winner=%s", result.ID, result.PlayerA, result.ScoreA, result.ScoreB, result.PlayerB, result.Winner)

		r.mu.RLock()
		fn := r.onSaved
		r.mu.RUnlock()
		if fn != nil {
			fn(result)
		}
	}
}

// MemoryStore keeps results in memory
type MemoryStore struct {
	results map[string]Result
	mu      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]Result)}
}

func (m *MemoryStore) Save(result Result) error {
	if result.ID == "" {
		return ErrInvalidResult
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.ID] = result
	return nil
}

func (m *MemoryStore) Load(id string) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return Result{}, ErrResultNotFound
	}
	return r, nil
}

func (m *MemoryStore) List() ([]Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Result, 0, len(m.results))
	for _, r := range m.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	return out, nil
}

func (m *MemoryStore) Exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.results[id]
	return ok
}

func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[id]; !ok {
		return ErrResultNotFound
	}
	delete(m.results, id)
	return nil
}
