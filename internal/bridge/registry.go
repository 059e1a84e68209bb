package bridge

import (
	"sort"
	"sync"
)

// Registry owns the map from bridge id to Bridge for one orchestrator run.
// Bridges are created lazily and creation is idempotent: repeated calls with
// the same id return the same instance.
type Registry struct {
	sharedDir string
	opts      []Option

	mu      sync.Mutex
	bridges map[string]*Bridge
}

// NewRegistry creates a Registry rooted at sharedDir. Backing directories
// are created lazily by Create.
func NewRegistry(sharedDir string, opts ...Option) *Registry {
	return &Registry{
		sharedDir: sharedDir,
		opts:      opts,
		bridges:   make(map[string]*Bridge),
	}
}

// Create returns the bridge with the given id, creating it (and its backing
// directory) on first use.
func (r *Registry) Create(id string) (*Bridge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.bridges[id]; ok {
		return b, nil
	}

	b, err := New(id, r.sharedDir, r.opts...)
	if err != nil {
		return nil, err
	}
	r.bridges[id] = b
	return b, nil
}

// Get returns an existing bridge by id, or nil for unknown ids.
func (r *Registry) Get(id string) *Bridge {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bridges[id]
}

// List returns all known bridge ids, sorted.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.bridges))
	for id := range r.bridges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
