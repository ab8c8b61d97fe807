package vnet

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
)

// Registry is the append-only list of provisioned chain ids, persisted as a
// JSON array of strings so stale chains survive process restarts.
type Registry struct {
	mu   sync.Mutex
	path string
}

func NewRegistry(path string) *Registry {
	if path == "" {
		path = "testnet-ids.json"
	}
	return &Registry{path: path}
}

// Load reads the recorded ids. A missing file means an empty registry.
func (r *Registry) Load() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *Registry) load() ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Append records a newly provisioned id.
func (r *Registry) Append(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.load()
	if err != nil {
		return err
	}
	ids = append(ids, id)
	return r.write(ids)
}

// Clear empties the registry after a successful teardown pass.
func (r *Registry) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write([]string{})
}

func (r *Registry) write(ids []string) error {
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}
