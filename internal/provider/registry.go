package provider

import (
	"fmt"
	"sort"
)

// Registry manages registered RemoteClient implementations and provides
// lookup by name or URL-based auto-detection.
type Registry struct {
	backends []RemoteClient
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a RemoteClient implementation to the registry. A backend
// registered under an existing name replaces the earlier one.
func (r *Registry) Register(b RemoteClient) {
	for i, existing := range r.backends {
		if existing.Name() == b.Name() {
			r.backends[i] = b
			return
		}
	}
	r.backends = append(r.backends, b)
}

// Detect iterates registered backends and returns the first one whose
// MatchesURL method returns true for the given URL.
func (r *Registry) Detect(url string) (RemoteClient, error) {
	for _, b := range r.backends {
		if b.MatchesURL(url) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no registered backend matches URL: %s", url)
}

// Get looks up a registered backend by its Name().
func (r *Registry) Get(name string) (RemoteClient, error) {
	for _, b := range r.backends {
		if b.Name() == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no registered backend with name: %s (have %v)", name, r.Names())
}

// Names returns the sorted names of all registered backends.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for _, b := range r.backends {
		names = append(names, b.Name())
	}
	sort.Strings(names)
	return names
}
