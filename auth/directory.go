package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrUnknownUser = errors.New("unknown user")

// Directory resolves a token subject to a known identity
type Directory interface {
	Lookup(ctx context.Context, id, claimedName string) (Identity, error)
}

// ClaimsDirectory trusts whatever the signed token says
type ClaimsDirectory struct{}

// Lookup returns the identity described by the claims
func (ClaimsDirectory) Lookup(_ context.Context, id, claimedName string) (Identity, error) {
	name := claimedName
	if name == "" {
		name = id
	}
	return Identity{ID: id, Name: name}, nil
}

// FileDirectory is a fixed user list read from a JSON or YAML file
type FileDirectory struct {
	users map[string]Identity
	mu    sync.RWMutex
}

type userFile struct {
	Users []Identity `json:"users" yaml:"users"`
}

// LoadFileDirectory reads the users file at path
func LoadFileDirectory(path string) (*FileDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var doc userFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}

	return NewFileDirectory(doc.Users), nil
}

// NewFileDirectory builds a directory from a user list
func NewFileDirectory(users []Identity) *FileDirectory {
	d := &FileDirectory{users: make(map[string]Identity, len(users))}
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		if u.Name == "" {
			u.Name = u.ID
		}
		d.users[u.ID] = u
	}
	return d
}

// Lookup returns the stored identity; the claimed name is ignored
func (d *FileDirectory) Lookup(_ context.Context, id, _ string) (Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return Identity{}, ErrUnknownUser
	}
	return u, nil
}

// Len returns the number of known users
func (d *FileDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}
