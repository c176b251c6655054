package prop

import "fmt"

// Registry maps string keys to lazily constructed properties scoped to
// one open document.
//
// The first request for a key constructs the property and registers it
// with the document's [Saver]; every later request for the same key
// returns the same instance, never a second divergent copy.
//
// A Registry must be obtained via [NewRegistry]; it is not safe for
// concurrent use.
type Registry struct {
	saver *Saver
	props map[string]any

	// discards mirrors registration order so DiscardAll can visit
	// properties of differing value types uniformly.
	discards []func()
}

// NewRegistry creates a registry that registers each newly constructed
// property with saver. Panics if saver is nil.
func NewRegistry(saver *Saver) *Registry {
	if saver == nil {
		panic("prop: saver is nil")
	}

	return &Registry{saver: saver, props: make(map[string]any)}
}

// Len returns the number of constructed properties.
func (r *Registry) Len() int {
	return len(r.props)
}

// DiscardAll throws away the in-memory state of every constructed
// property, in registration order. See [Property.Discard].
func (r *Registry) DiscardAll() {
	for _, discard := range r.discards {
		discard()
	}
}

// Get returns the property for key, constructing it with build on first
// request.
//
// build runs at most once per key per registry lifetime; the
// constructed property is registered with the registry's Saver so it
// participates in FlushAll. Requesting an existing key with a different
// value type is a programming error and panics, as is a build that
// returns nil.
func Get[V any](r *Registry, key string, build func() *Property[V]) *Property[V] {
	if existing, ok := r.props[key]; ok {
		p, ok := existing.(*Property[V])
		if !ok {
			panic(fmt.Sprintf("prop: key %q already registered with a different value type", key))
		}

		return p
	}

	p := build()
	if p == nil {
		panic(fmt.Sprintf("prop: build returned nil property for key %q", key))
	}

	r.props[key] = p
	r.discards = append(r.discards, p.Discard)
	r.saver.Register(p)

	return p
}
