package schema

import (
	"fmt"
	"sync"
)

// Source supplies raw schema content per API version. Transport-setup code
// implements it; the registry never performs I/O of its own beyond calling it.
type Source interface {
	Schema(version string) ([]byte, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(version string) ([]byte, error)

func (fn SourceFunc) Schema(version string) ([]byte, error) { return fn(version) }

// Registry holds one immutable Index per API version. Loading is
// single-writer; readers either see a fully built index or none at all.
// Multiple versions may be resident at once so one process can talk to
// servers running different releases.
type Registry struct {
	mu       sync.RWMutex
	source   Source
	versions map[string]*Index
}

// NewRegistry returns an empty registry backed by the given source.
func NewRegistry(source Source) *Registry {
	return &Registry{source: source, versions: make(map[string]*Index)}
}

// Index returns the loaded index for version, loading it on first use.
// Concurrent callers for the same version serialize on the writer lock; the
// winner builds, the rest observe the completed index.
func (r *Registry) Index(version string) (*Index, error) {
	r.mu.RLock()
	ix, ok := r.versions[version]
	r.mu.RUnlock()
	if ok {
		return ix, nil
	}
	return r.load(version, false)
}

// Refresh rebuilds the index for version from the source, replacing any
// resident index atomically. Intended for when the target server's declared
// version changes underneath a long-lived process.
func (r *Registry) Refresh(version string) (*Index, error) {
	return r.load(version, true)
}

// Versions lists the currently resident API versions.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.versions))
	for v := range r.versions {
		out = append(out, v)
	}
	return out
}

func (r *Registry) load(version string, force bool) (*Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Another loader may have won the race while we waited on the lock.
	if !force {
		if ix, ok := r.versions[version]; ok {
			return ix, nil
		}
	}
	src, err := r.source.Schema(version)
	if err != nil {
		return nil, fmt.Errorf("schema source for %s: %w", version, err)
	}
	ix, err := Load(version, src)
	if err != nil {
		return nil, err
	}
	r.versions[version] = ix
	return ix, nil
}
