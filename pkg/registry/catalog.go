package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// TypeKey is the key that selects the factory in a component record.
const TypeKey = "type"

// Factory builds a component from its parameters (the record without TypeKey).
type Factory[T any] func(params map[string]any) (T, error)

// Catalog maps type names to factories for one kind of component, so configuration
// records like {type: max_search_depth, max_search_depth: 5} can be turned into values.
type Catalog[T any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewCatalog creates an empty catalog. kind is used in error messages.
func NewCatalog[T any](kind string) *Catalog[T] {
	return &Catalog[T]{kind: kind, factories: make(map[string]Factory[T])}
}

// Register adds a factory. If one with the same name exists, it is overwritten.
func (c *Catalog[T]) Register(name string, f Factory[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = f
}

// Has reports whether name is registered.
func (c *Catalog[T]) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[name]
	return ok
}

// Names returns the registered type names, sorted.
func (c *Catalog[T]) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.factories))
	for n := range c.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the component described by record.
func (c *Catalog[T]) New(record map[string]any) (T, error) {
	var zero T
	name, ok := record[TypeKey].(string)
	if !ok || name == "" {
		return zero, fmt.Errorf("%s: missing %q field", c.kind, TypeKey)
	}
	c.mu.RLock()
	f, ok := c.factories[name]
	c.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("%s: unknown type %q (known: %v)", c.kind, name, c.Names())
	}
	params := make(map[string]any, len(record))
	for k, v := range record {
		if k != TypeKey {
			params[k] = v
		}
	}
	v, err := f(params)
	if err != nil {
		return zero, fmt.Errorf("%s %q: %w", c.kind, name, err)
	}
	return v, nil
}

// Decode copies params into the struct pointed to by target using `mapstructure` tags.
// Scalars are converted loosely ("3" decodes into an int) and unknown keys are rejected.
func Decode(params map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(params)
}
