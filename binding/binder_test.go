package binding_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/km-arc/go-flask/binding"
	"github.com/km-arc/go-flask/framework/app"
	"github.com/km-arc/go-flask/framework/reqctx"
)

// ── fake resource ────────────────────────────────────────────────────────────

type conn struct {
	id     int
	target string
	closed bool
}

// fakeResource counts opens and closes so tests can assert the
// open/release balance the binder guarantees.
type fakeResource struct {
	mu       sync.Mutex
	nextID   int
	opens    int
	closes   int
	openErr  error
	closeErr error
	targets  []string
}

func (f *fakeResource) open(_ context.Context, target string) (*conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.nextID++
	f.opens++
	f.targets = append(f.targets, target)
	return &conn{id: f.nextID, target: target}, nil
}

func (f *fakeResource) close(c *conn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.closed {
		return errors.New("double close")
	}
	c.closed = true
	f.closes++
	return f.closeErr
}

func (f *fakeResource) counts() (opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.closes
}

func newFakeBinder(f *fakeResource) *binding.Binder[*conn] {
	return binding.New("fake", "FAKE_TARGET", "default-target", f.open, f.close)
}

func serve(t *testing.T, a *app.Application, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
	return rec
}

// ── Lifecycle balance ────────────────────────────────────────────────────────

func TestBinder_OpenAndReleaseBalanced(t *testing.T) {
	f := &fakeResource{}
	b := newFakeBinder(f)

	a := app.New()
	if err := a.RegisterExtension(b); err != nil {
		t.Fatal(err)
	}
	a.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := b.Handle(r.Context()); !ok {
			t.Error("no handle inside the request")
		}
	})

	for range 3 {
		serve(t, a, "/")
	}

	opens, closes := f.counts()
	if opens != 3 || closes != 3 {
		t.Errorf("opens=%d closes=%d, want 3/3", opens, closes)
	}
}

func TestBinder_HandlerPanic_HandleStillReleased(t *testing.T) {
	f := &fakeResource{}
	b := newFakeBinder(f)

	a := app.New()
	if err := a.RegisterExtension(b); err != nil {
		t.Fatal(err)
	}
	a.Router.Get("/boom", func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	rec := serve(t, a, "/boom")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	opens, closes := f.counts()
	if opens != 1 || closes != 1 {
		t.Errorf("opens=%d closes=%d, want 1/1 even on the panic path", opens, closes)
	}
}

func TestBinder_FreshHandlePerRequest(t *testing.T) {
	f := &fakeResource{}
	b := newFakeBinder(f)

	a := app.New()
	if err := a.RegisterExtension(b); err != nil {
		t.Fatal(err)
	}

	var ids []int
	a.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, b.MustHandle(r.Context()).id)
	})

	serve(t, a, "/")
	serve(t, a, "/")

	if len(ids) != 2 || ids[0] == ids[1] {
		t.Errorf("handles not fresh per request: ids=%v", ids)
	}
}

// ── Failure semantics ────────────────────────────────────────────────────────

func TestBinder_OpenFailure_NoHandleStoredTeardownTolerates(t *testing.T) {
	f := &fakeResource{openErr: errors.New("bad target")}
	b := newFakeBinder(f)

	a := app.New()
	if err := a.RegisterExtension(b); err != nil {
		t.Fatal(err)
	}
	handlerRan := false
	a.Router.Get("/", func(w http.ResponseWriter, r *http.Request) { handlerRan = true })

	rec := serve(t, a, "/")

	if handlerRan {
		t.Error("handler should not run when the open fails")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	opens, closes := f.counts()
	if opens != 0 || closes != 0 {
		t.Errorf("opens=%d closes=%d, want 0/0", opens, closes)
	}
}

func TestBinder_LaterHookFails_HandleStillReleased(t *testing.T) {
	f := &fakeResource{}
	b := newFakeBinder(f)

	a := app.New()
	if err := a.RegisterExtension(b); err != nil {
		t.Fatal(err)
	}
	// Registered after the binder, so the binder's open already ran
	// when this hook aborts the request.
	a.BeforeRequest(func(s *reqctx.Scope) error { return errors.New("denied") })
	a.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	serve(t, a, "/")

	opens, closes := f.counts()
	if opens != 1 || closes != 1 {
		t.Errorf("opens=%d closes=%d, want 1/1 when a later before hook fails", opens, closes)
	}
}

func TestBinder_CloseFailure_DoesNotStarveOtherTeardowns(t *testing.T) {
	healthy := &fakeResource{}
	failing := &fakeResource{closeErr: errors.New("close failed")}

	healthyBinder := binding.New("healthy", "HEALTHY_TARGET", "h", healthy.open, healthy.close)
	failingBinder := binding.New("failing", "FAILING_TARGET", "f", failing.open, failing.close)

	a := app.New()
	// The failing binder registers second, so its teardown runs first.
	if err := a.RegisterExtension(healthyBinder); err != nil {
		t.Fatal(err)
	}
	if err := a.RegisterExtension(failingBinder); err != nil {
		t.Fatal(err)
	}
	a.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	serve(t, a, "/")

	if _, closes := healthy.counts(); closes != 1 {
		t.Errorf("healthy binder closes=%d, want 1 despite the other binder's close failure", closes)
	}
}

// ── Accessor ─────────────────────────────────────────────────────────────────

func TestBinder_AccessorOutsideRequest_Absent(t *testing.T) {
	b := newFakeBinder(&fakeResource{})

	if _, ok := b.Handle(context.Background()); ok {
		t.Error("Handle outside any request should report absence")
	}
}

func TestBinder_AccessorAbsentAfterOpenFailure(t *testing.T) {
	f := &fakeResource{}
	b := newFakeBinder(f)

	a := app.New()
	if err := a.RegisterExtension(b); err != nil {
		t.Fatal(err)
	}

	// Flip the opener into failure mode after registration.
	var sawHandle bool
	a.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, sawHandle = b.Handle(r.Context())
	})

	f.mu.Lock()
	f.openErr = errors.New("down")
	f.mu.Unlock()

	serve(t, a, "/")

	if sawHandle {
		t.Error("handler ran with a handle despite the open failure")
	}
}

// ── Configuration resolution ─────────────────────────────────────────────────

func TestBinder_DefaultTargetApplied(t *testing.T) {
	f := &fakeResource{}
	b := newFakeBinder(f)

	a := app.New()
	if err := a.RegisterExtension(b); err != nil {
		t.Fatal(err)
	}
	a.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	serve(t, a, "/")

	if len(f.targets) != 1 || f.targets[0] != "default-target" {
		t.Errorf("targets=%v, want the binder default", f.targets)
	}
	if got := a.Config.Get("FAKE_TARGET"); got != "default-target" {
		t.Errorf("option not defaulted: got %q", got)
	}
}

func TestBinder_ExplicitTargetWinsOverDefault(t *testing.T) {
	f := &fakeResource{}
	b := newFakeBinder(f)

	a := app.New()
	a.Config.Set("FAKE_TARGET", "explicit-target")
	if err := a.RegisterExtension(b); err != nil {
		t.Fatal(err)
	}
	a.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	serve(t, a, "/")

	if len(f.targets) != 1 || f.targets[0] != "explicit-target" {
		t.Errorf("targets=%v, want the explicit value, never the default", f.targets)
	}
}

// ── Multiple applications, concurrent requests ───────────────────────────────

func TestBinder_TwoApplications_IndependentResolutionAndLifecycles(t *testing.T) {
	f := &fakeResource{}
	b := newFakeBinder(f)

	appA := app.New()
	appA.Config.Set("FAKE_TARGET", "a-target")
	appB := app.New()

	if err := b.Init(appA); err != nil {
		t.Fatal(err)
	}
	if err := b.Init(appB); err != nil {
		t.Fatal(err)
	}
	appA.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {})
	appB.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {})

	serve(t, appA, "/")
	serve(t, appB, "/")

	opens, closes := f.counts()
	if opens != 2 || closes != 2 {
		t.Errorf("opens=%d closes=%d, want 2/2 across both applications", opens, closes)
	}
	if len(f.targets) != 2 || f.targets[0] != "a-target" || f.targets[1] != "default-target" {
		t.Errorf("targets=%v, want each application's own resolution", f.targets)
	}
}

func TestBinder_ConcurrentRequests_HandlesIsolated(t *testing.T) {
	f := &fakeResource{}
	b := newFakeBinder(f)

	a := app.New()
	if err := a.RegisterExtension(b); err != nil {
		t.Fatal(err)
	}

	const n = 2
	arrived := make(chan *conn, n)
	release := make(chan struct{})

	a.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		arrived <- b.MustHandle(r.Context())
		<-release // hold the request open so both are in flight at once
	})

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(t, a, "/")
		}()
	}

	seen := make(map[*conn]bool)
	for range n {
		seen[<-arrived] = true
	}
	close(release)
	wg.Wait()

	if len(seen) != n {
		t.Errorf("concurrent requests shared a handle: %d distinct of %d", len(seen), n)
	}
	opens, closes := f.counts()
	if opens != n || closes != n {
		t.Errorf("opens=%d closes=%d, want %d/%d", opens, closes, n, n)
	}
}
