// Package match records finished matches.
//
// Results are written asynchronously by a Recorder so persistence never
// blocks a room's tick loop. FileStore keeps one JSON document per match.
package match

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	ErrResultNotFound = errors.New("match result not found")
	ErrInvalidResult  = errors.New("invalid match result")
)

// Result is the outcome of one match
type Result struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	PlayerA    string    `json:"playerA"`
	PlayerB    string    `json:"playerB"`
	ScoreA     int       `json:"scoreA"`
	ScoreB     int       `json:"scoreB"`
	Winner     string    `json:"winner"`
	Reason     string    `json:"reason"`
	Config     string    `json:"config"`
	Ticks      uint64    `json:"ticks"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// ResultStore persists match results
type ResultStore interface {
	Save(result Result) error
	Load(id string) (Result, error)
	List() ([]Result, error)
	Exists(id string) bool
	Delete(id string) error
}

// FileStore implements ResultStore on the file system
type FileStore struct {
	dir string
}

// NewFileStore creates the results directory if it does not exist
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create matches directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes a result as indented JSON
func (fs *FileStore) Save(result Result) error {
	if result.ID == "" || strings.ContainsAny(result.ID, `/\`) {
		return ErrInvalidResult
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal match result: %w", err)
	}
	if err := os.WriteFile(fs.path(result.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write match file: %w", err)
	}
	return nil
}

// Load reads one result
func (fs *FileStore) Load(id string) (Result, error) {
	if strings.ContainsAny(id, `/\`) {
		return Result{}, ErrResultNotFound
	}
	data, err := os.ReadFile(fs.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return Result{}, ErrResultNotFound
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to read match file: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("failed to unmarshal match result: %w", err)
	}
	return result, nil
}

// List returns every stored result, most recent first. Unreadable files
// are skipped.
func (fs *FileStore) List() ([]Result, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read matches directory: %w", err)
	}

	var results []Result
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		result, err := fs.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].FinishedAt.After(results[j].FinishedAt)
	})
	return results, nil
}

// Exists checks if a result file exists
func (fs *FileStore) Exists(id string) bool {
	_, err := os.Stat(fs.path(id))
	return err == nil
}

// Delete removes a result file
func (fs *FileStore) Delete(id string) error {
	if !fs.Exists(id) {
		return ErrResultNotFound
	}
	if err := os.Remove(fs.path(id)); err != nil {
		return fmt.Errorf("failed to remove match file: %w", err)
	}
	return nil
}

func (fs *FileStore) path(id string) string {
	return filepath.Join(fs.dir, id+".json")
}
