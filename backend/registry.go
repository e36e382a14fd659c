package backend

import (
	"slices"
	"sync"
)

// Well-known backend names.
const (
	BackendNative    = "native"
	BackendRecording = "recording"
)

// Factory creates a new renderer instance. It may return nil when the
// backend cannot run in the current environment.
type Factory func() Renderer

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendNative, BackendRecording}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Get returns a renderer by name.
// Returns nil if the backend is not registered or cannot run.
func Get(name string) Renderer {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()

	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available renderer based on priority.
// Priority order: native > recording, then any other registered backend
// in name order. Returns nil if no backend can run.
func Default() Renderer {
	for _, name := range backendPriority {
		if r := Get(name); r != nil {
			return r
		}
	}

	// Fallback: first available
	for _, name := range Available() {
		if slices.Contains(backendPriority, name) {
			continue
		}
		if r := Get(name); r != nil {
			return r
		}
	}

	return nil
}

// MustDefault returns the default renderer or panics.
func MustDefault() Renderer {
	r := Default()
	if r == nil {
		panic("backend: no backend available")
	}
	return r
}
