package reqctx_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/km-arc/go-flask/framework/reqctx"
)

type key struct{}

func TestFromContext_AbsentWithoutScope(t *testing.T) {
	if _, ok := reqctx.FromContext(context.Background()); ok {
		t.Error("FromContext should report absence outside request handling")
	}
}

func TestFromContext_RoundTrip(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	s := reqctx.New(r)
	ctx := reqctx.NewContext(r.Context(), s)

	got, ok := reqctx.FromContext(ctx)
	if !ok || got != s {
		t.Errorf("FromContext: got (%v, %v), want the stored scope", got, ok)
	}
	if got.Request() != r {
		t.Error("scope should carry its request")
	}
}

func TestAttach_ScopeReachableBothWays(t *testing.T) {
	s, r := reqctx.Attach(httptest.NewRequest("GET", "/", nil))

	// Via the returned request's context.
	got, ok := reqctx.FromContext(r.Context())
	if !ok || got != s {
		t.Error("scope should be on the attached request's context")
	}
	// Via the scope's own request.
	got, ok = reqctx.FromContext(s.Request().Context())
	if !ok || got != s {
		t.Error("scope should be reachable through its own request")
	}
}

func TestScope_Values(t *testing.T) {
	s := reqctx.New(httptest.NewRequest("GET", "/", nil))

	if _, ok := s.Lookup(key{}); ok {
		t.Error("Lookup on an empty scope should report absence")
	}

	s.Set(key{}, "value")
	if v, ok := s.Lookup(key{}); !ok || v != "value" {
		t.Errorf("Lookup: got (%v, %v)", v, ok)
	}

	s.Delete(key{})
	if _, ok := s.Lookup(key{}); ok {
		t.Error("Lookup after Delete should report absence")
	}
}

func TestScope_IsolatedBetweenInstances(t *testing.T) {
	a := reqctx.New(httptest.NewRequest("GET", "/a", nil))
	b := reqctx.New(httptest.NewRequest("GET", "/b", nil))

	a.Set(key{}, "for-a")

	if _, ok := b.Lookup(key{}); ok {
		t.Error("a value set on one scope leaked into another")
	}
}

func TestScope_ReleaseExactlyOnce(t *testing.T) {
	s := reqctx.New(httptest.NewRequest("GET", "/", nil))

	if s.Released() {
		t.Error("new scope should not be released")
	}
	if !s.Release() {
		t.Error("first Release should succeed")
	}
	if s.Release() {
		t.Error("second Release should report already-released")
	}
	if !s.Released() {
		t.Error("Released should be true after Release")
	}
}
