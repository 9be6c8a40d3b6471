package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CodeBotMzee/FYP/internal/catalog"
	"github.com/CodeBotMzee/FYP/internal/classifier"
	"github.com/CodeBotMzee/FYP/internal/lgr"
)

// ErrModelLoad is returned when a backend could not be materialized.
// The failure is not cached; the next Resolve retries the load.
var ErrModelLoad = errors.New("model load failed")

// Loader materializes a backend for a descriptor. Injectable so the
// registry can be exercised without model files.
type Loader func(desc catalog.Descriptor) (classifier.Backend, error)

// Registry keeps exactly one resident backend per model key, shared by
// all concurrent callers. A loaded backend lives for the process
// lifetime and is never reloaded.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	load    Loader
}

// entry carries the per-key lock: loading one model never blocks
// callers resolving a different key.
type entry struct {
	mu      sync.Mutex
	backend classifier.Backend
}

// New creates a registry that loads backends with the given loader.
func New(load Loader) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		load:    load,
	}
}

// Resolve returns the loaded backend for key, loading it on first use.
// Concurrent callers for the same unloaded key block until the single
// load completes and then share the result.
func (r *Registry) Resolve(key string) (classifier.Backend, error) {
	desc, err := catalog.Get(key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.backend != nil {
		return e.backend, nil
	}

	backend, err := r.load(desc)
	if err != nil {
		// Leave the entry empty so the next Resolve retries.
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, key, err)
	}

	e.backend = backend
	lgr.Logger.Info("model loaded", slog.String("model", key))
	return backend, nil
}

// Loaded returns the keys with a resident backend.
func (r *Registry) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var keys []string
	for key, e := range r.entries {
		e.mu.Lock()
		if e.backend != nil {
			keys = append(keys, key)
		}
		e.mu.Unlock()
	}
	return keys
}

// Close releases every loaded backend. Only for process shutdown;
// Resolve must not be called afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for key, e := range r.entries {
		e.mu.Lock()
		if e.backend != nil {
			if err := e.backend.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s: %w", key, err))
			}
			e.backend = nil
		}
		e.mu.Unlock()
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry cleanup errors: %v", errs)
	}
	return nil
}
