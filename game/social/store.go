package social

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// EdgeStore persists the friend graph
type EdgeStore interface {
	LoadEdges() ([]Edge, error)
	SaveEdges(edges []Edge) error
}

type edgeDocument struct {
	Edges []Edge `json:"edges"`
}

// FileEdgeStore keeps the whole graph in a single JSON document
type FileEdgeStore struct {
	path string
	mu   sync.Mutex
}

// NewFileEdgeStore creates a file store, creating the parent directory if needed
func NewFileEdgeStore(path string) (*FileEdgeStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create friends directory: %w", err)
	}
	return &FileEdgeStore{path: path}, nil
}

// LoadEdges reads the document. A missing file is an empty graph.
func (s *FileEdgeStore) LoadEdges() ([]Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read friends file: %w", err)
	}

	var doc edgeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal friends file: %w", err)
	}
	return doc.Edges, nil
}

// SaveEdges rewrites the document through a temp file and rename
func (s *FileEdgeStore) SaveEdges(edges []Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(edgeDocument{Edges: edges}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal friend edges: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write friends file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace friends file: %w", err)
	}
	return nil
}

// MemoryEdgeStore keeps a copy of the last saved edges
type MemoryEdgeStore struct {
	edges []Edge
	saves int
	mu    sync.Mutex
}

func NewMemoryEdgeStore(edges ...Edge) *MemoryEdgeStore {
	return &MemoryEdgeStore{edges: edges}
}

func (s *MemoryEdgeStore) LoadEdges() ([]Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Edge(nil), s.edges...), nil
}

func (s *MemoryEdgeStore) SaveEdges(edges []Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append([]Edge(nil), edges...)
	s.saves++
	return nil
}

// Saves returns how many times the graph was written
func (s *MemoryEdgeStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
