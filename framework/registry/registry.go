package registry

import (
	"fmt"
	"sync"
)

// Factory builds a service value from the registry.
type Factory func(r *Registry) any

type binding struct {
	factory   Factory
	singleton bool
}

// Registry is the application's shared service store — the structured
// counterpart of Flask's app.extensions dict. Extensions publish the
// long-lived objects they manage here (clients, pools, template
// engines) so other parts of the application can look them up by name
// instead of holding direct references.
//
// Registration happens during bootstrap; resolution may happen from any
// goroutine during request handling.
type Registry struct {
	mu        sync.RWMutex
	bindings  map[string]*binding
	instances map[string]any
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		bindings:  make(map[string]*binding),
		instances: make(map[string]any),
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient factory: every Make call runs it again.
func (r *Registry) Bind(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, name)
	r.bindings[name] = &binding{factory: factory}
}

// Singleton registers a factory whose result is cached after the first
// resolution.
//
//	reg.Singleton("mailer", func(r *registry.Registry) any {
//	    return mail.NewSMTP(host, port)
//	})
func (r *Registry) Singleton(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, name)
	r.bindings[name] = &binding{factory: factory, singleton: true}
}

// Instance registers a pre-built value.
//
//	// Flask: app.extensions['sqlite3'] = self
//	reg.Instance("sqlite3", binder)
func (r *Registry) Instance(name string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, name)
	r.instances[name] = v
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves a service by name. It panics when nothing is registered
// under the name; use Bound first when absence is expected.
func (r *Registry) Make(name string) any {
	r.mu.RLock()
	if v, ok := r.instances[name]; ok {
		r.mu.RUnlock()
		return v
	}
	b, ok := r.bindings[name]
	r.mu.RUnlock()

	if !ok {
		panic(fmt.Sprintf("registry: no service registered for [%s]", name))
	}

	v := b.factory(r)
	if b.singleton {
		// Two goroutines can race through the fast path on first
		// resolution; the first stored instance is canonical and a
		// losing factory result is discarded.
		r.mu.Lock()
		if existing, ok := r.instances[name]; ok {
			r.mu.Unlock()
			return existing
		}
		r.instances[name] = v
		r.mu.Unlock()
	}
	return v
}

// Bound reports whether a service is registered under name.
func (r *Registry) Bound(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, hasBinding := r.bindings[name]
	_, hasInstance := r.instances[name]
	return hasBinding || hasInstance
}

// Forget removes all registrations for name.
func (r *Registry) Forget(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, name)
	delete(r.instances, name)
}

// Flush resets the registry, dropping every binding and cached
// instance.
func (r *Registry) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = make(map[string]*binding)
	r.instances = make(map[string]any)
}

// Names returns all registered service names (for debugging).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.bindings)+len(r.instances))
	for k := range r.bindings {
		out = append(out, k)
	}
	for k := range r.instances {
		if _, dup := r.bindings[k]; !dup {
			out = append(out, k)
		}
	}
	return out
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve calls Make and type-asserts the result.
//
//	db := registry.Resolve[*sql.DB](reg, "db")
func Resolve[T any](r *Registry, name string) T {
	v := r.Make(name)
	typed, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("registry: Resolve[%T]: [%s] resolved to %T", *new(T), name, v))
	}
	return typed
}

// Lookup is like Resolve but reports absence or a type mismatch instead
// of panicking.
func Lookup[T any](r *Registry, name string) (T, bool) {
	var zero T
	if !r.Bound(name) {
		return zero, false
	}
	typed, ok := r.Make(name).(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
