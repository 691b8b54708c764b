package overlay

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownPlugin is returned for a plugin reference with no registration.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Registry maps plugin references to implementations. It is filled at
// startup and read-only afterwards.
type Registry struct {
	plugins map[string]Plugin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// DefaultRegistry returns a registry holding the built-in plugins.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range []Plugin{
		NewTextPlugin(),
		NewTemperaturePlugin(),
		NewSpeedPlugin(),
		NewGraphPlugin(),
	} {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds p under its name. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	name := p.Name()
	if name == "" {
		return errors.New("plugin has no name")
	}
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}
	r.plugins[name] = p
	return nil
}

// Lookup returns the plugin registered under ref.
func (r *Registry) Lookup(ref string) (Plugin, error) {
	p, ok := r.plugins[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlugin, ref)
	}
	return p, nil
}

// Has reports whether ref is registered. It matches the lookup callback
// expected by config.LoadDocument.
func (r *Registry) Has(ref string) bool {
	_, ok := r.plugins[ref]
	return ok
}

// Names returns the registered references in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
