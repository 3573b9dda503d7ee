package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/recoma/pkg/ports"
)

// ErrDuplicateHandler is returned by Build when a name was registered twice.
var ErrDuplicateHandler = errors.New("duplicate handler name")

// Builder collects handlers before the search starts.
type Builder struct {
	handlers map[string]ports.Handler
	dups     []string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{handlers: make(map[string]ports.Handler)}
}

// Register adds a handler under name. Duplicates are reported by Build.
func (b *Builder) Register(name string, h ports.Handler) *Builder {
	if _, ok := b.handlers[name]; ok {
		b.dups = append(b.dups, name)
	}
	b.handlers[name] = h
	return b
}

// Build freezes the builder into an immutable Registry.
func (b *Builder) Build() (*Registry, error) {
	if len(b.dups) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateHandler, b.dups)
	}
	handlers := make(map[string]ports.Handler, len(b.handlers))
	for k, v := range b.handlers {
		handlers[k] = v
	}
	return &Registry{handlers: handlers}, nil
}

// Registry maps handler names to implementations. It is read-only once built and safe
// for concurrent use by any number of searches.
type Registry struct {
	handlers map[string]ports.Handler
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (ports.Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of handlers.
func (r *Registry) Len() int { return len(r.handlers) }
