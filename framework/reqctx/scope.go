package reqctx

import (
	"context"
	"net/http"
	"time"
)

// Scope is the per-request state bag — the counterpart of Flask's `g`
// object and request context. The application creates exactly one Scope
// when a request begins and destroys it after every teardown callback
// has run. A Scope is private to the goroutine(s) handling its request;
// scopes of concurrent requests never share state, so no locking is
// needed for the values map.
type Scope struct {
	req    *http.Request
	start  time.Time
	values map[any]any

	released bool
}

// New creates a Scope for an incoming request.
func New(r *http.Request) *Scope {
	return &Scope{
		req:    r,
		start:  time.Now(),
		values: make(map[any]any),
	}
}

// Attach creates a Scope for the request and returns the request to
// serve in its place, whose context carries the scope. The scope's own
// Request refers to the returned request, so code reached through
// either one finds the same scope.
func Attach(r *http.Request) (*Scope, *http.Request) {
	s := New(r)
	r = r.WithContext(NewContext(r.Context(), s))
	s.req = r
	return s, r
}

// Request returns the request this scope belongs to.
func (s *Scope) Request() *http.Request { return s.req }

// Start returns the time the scope was created.
func (s *Scope) Start() time.Time { return s.start }

// ── Request-local values ─────────────────────────────────────────────────────

// Set stores a request-local value under key. Keys follow the same
// convention as context.Context keys: use an unexported type to avoid
// collisions between packages.
//
//	// Flask: g.sqlite3_db = connect_db()
//	scope.Set(dbKey{}, conn)
func (s *Scope) Set(key, val any) {
	s.values[key] = val
}

// Lookup returns the value stored under key and whether it was present.
func (s *Scope) Lookup(key any) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Get returns the value stored under key, or nil.
func (s *Scope) Get(key any) any { return s.values[key] }

// Delete removes the value stored under key.
func (s *Scope) Delete(key any) { delete(s.values, key) }

// ── Lifecycle ────────────────────────────────────────────────────────────────

// Release marks the scope destroyed. It reports false when the scope
// was already released, so callers can guarantee teardown runs exactly
// once per request.
func (s *Scope) Release() bool {
	if s.released {
		return false
	}
	s.released = true
	return true
}

// Released reports whether the scope reached its terminal state.
func (s *Scope) Released() bool { return s.released }

// ── Context plumbing ─────────────────────────────────────────────────────────

type scopeKey struct{}

// NewContext returns a context carrying the scope. The application
// attaches it to the request before any callback or handler runs, so
// the active scope travels explicitly down the call path.
func NewContext(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the active request scope, if any. Outside request
// handling there is no scope and ok is false — a scope is never created
// implicitly.
func FromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok
}
