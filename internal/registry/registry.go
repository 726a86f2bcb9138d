// Package registry provides the plugin registry that maps a plugin type and
// name to an implementation plus free-form metadata.
//
// A Registry is constructed once at startup and handed to the components
// that need it; there is no package-level instance.
package registry

import (
	"sort"
	"sync"
)

// Entry is one registered implementation
type Entry[T any] struct {
	Type     string
	Name     string
	Impl     T
	Metadata map[string]string
}

type key struct {
	typ  string
	name string
}

// Registry maps (type, name) to implementations of T
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[key]Entry[T]
	order   []key // Maintains registration order
}

// New creates an empty registry
func New[T any]() *Registry[T] {
	return &Registry[T]{
		entries: make(map[key]Entry[T]),
		order:   make([]key, 0),
	}
}

// Register adds impl under (typ, name). Registering an existing name replaces
// the previous entry and keeps its original position.
func (r *Registry[T]) Register(typ, name string, impl T, metadata map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{typ: typ, name: name}
	if _, exists := r.entries[k]; !exists {
		r.order = append(r.order, k)
	}

	meta := make(map[string]string, len(metadata))
	for mk, mv := range metadata {
		meta[mk] = mv
	}
	r.entries[k] = Entry[T]{Type: typ, Name: name, Impl: impl, Metadata: meta}
}

// Get returns the implementation registered under (typ, name)
func (r *Registry[T]) Get(typ, name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[key{typ: typ, name: name}]
	return e.Impl, ok
}

// Has checks whether (typ, name) is registered
func (r *Registry[T]) Has(typ, name string) bool {
	_, ok := r.Get(typ, name)
	return ok
}

// Metadata returns a copy of the metadata for (typ, name), nil when absent
func (r *Registry[T]) Metadata(typ, name string) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[key{typ: typ, name: name}]
	if !ok {
		return nil
	}
	meta := make(map[string]string, len(e.Metadata))
	for k, v := range e.Metadata {
		meta[k] = v
	}
	return meta
}

// List returns registered names in registration order. An empty typ lists
// every type.
func (r *Registry[T]) List(typ string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.order))
	for _, k := range r.order {
		if typ == "" || k.typ == typ {
			names = append(names, k.name)
		}
	}
	return names
}

// Entries returns registered entries of typ in registration order
func (r *Registry[T]) Entries(typ string) []Entry[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry[T], 0, len(r.order))
	for _, k := range r.order {
		if typ == "" || k.typ == typ {
			entries = append(entries, r.entries[k])
		}
	}
	return entries
}

// Types returns the distinct plugin types, sorted
func (r *Registry[T]) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	types := make([]string, 0)
	for _, k := range r.order {
		if !seen[k.typ] {
			seen[k.typ] = true
			types = append(types, k.typ)
		}
	}
	sort.Strings(types)
	return types
}

// Count returns the number of registered entries
func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
