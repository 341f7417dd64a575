package binding

import (
	"context"
	"fmt"

	"github.com/km-arc/go-flask/framework/app"
	"github.com/km-arc/go-flask/framework/reqctx"
)

// Opener opens a resource handle for one request. target is the
// resolved configuration value (connection string, file path, URL).
type Opener[T any] func(ctx context.Context, target string) (T, error)

// Closer releases a handle opened by the matching Opener.
type Closer[T any] func(handle T) error

// Binder ties a resource to the request lifecycle: a handle is opened
// before each request, stored on the request scope, and released in a
// teardown hook once the request finishes — on the error path too. It
// plays the role of a Flask extension like Flask-SQLite3: construct it
// standalone, then attach it to one or more applications.
//
//	db := binding.New("sqlite3", "SQLITE3_DATABASE", ":memory:", open, close)
//	db.Init(application)
//
//	application.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {
//	    conn, ok := db.Handle(r.Context())
//	    ...
//	})
//
// Every application the binder is attached to resolves its own target
// (explicit option, environment, or the binder's default) and owns its
// own handle lifecycles; the binder itself holds no per-request state.
type Binder[T any] struct {
	name          string
	optionKey     string
	defaultTarget string
	open          Opener[T]
	close         Closer[T]
}

// New creates a Binder. name identifies the binder on the application;
// optionKey is the configuration option naming the resource target,
// defaulting to defaultTarget when the user never set it.
func New[T any](name, optionKey, defaultTarget string, open Opener[T], close Closer[T]) *Binder[T] {
	return &Binder[T]{
		name:          name,
		optionKey:     optionKey,
		defaultTarget: defaultTarget,
		open:          open,
		close:         close,
	}
}

// Name implements app.Extension.
func (b *Binder[T]) Name() string { return b.name }

// OptionKey returns the configuration option the binder reads.
func (b *Binder[T]) OptionKey() string { return b.optionKey }

// Init implements app.Extension: record the target default (without
// overriding an explicit value) and install the open/release hooks.
func (b *Binder[T]) Init(a *app.Application) error {
	a.Config.SetDefault(b.optionKey, b.defaultTarget)
	a.Services.Instance(b.name, b)

	a.BeforeRequest(func(s *reqctx.Scope) error {
		target := a.Config.Get(b.optionKey, b.defaultTarget)
		handle, err := b.open(s.Request().Context(), target)
		if err != nil {
			// No handle is stored: teardown below sees an empty
			// scope and stays a no-op for this binder.
			a.Metrics.OpenFailures.WithLabelValues(b.name).Inc()
			return fmt.Errorf("binding [%s]: open %q: %w", b.name, target, err)
		}
		s.Set(b, handle)
		a.Metrics.HandlesOpened.WithLabelValues(b.name).Inc()
		return nil
	})

	a.TeardownRequest(func(s *reqctx.Scope, _ error) {
		v, ok := s.Lookup(b)
		if !ok {
			return
		}
		s.Delete(b)
		if err := b.close(v.(T)); err != nil {
			// Surface the failure without disturbing other teardown
			// hooks or another request's scope.
			a.Metrics.CloseFailures.WithLabelValues(b.name).Inc()
			a.Log.Error("binding: release handle", "binder", b.name, "error", err)
			return
		}
		a.Metrics.HandlesClosed.WithLabelValues(b.name).Inc()
	})

	return nil
}

// Handle returns the handle opened for the request the context belongs
// to. Outside request handling, or when no handle was opened (the open
// failed, or the binder is not attached to the serving application),
// ok is false. A handle is never created here.
func (b *Binder[T]) Handle(ctx context.Context) (T, bool) {
	var zero T
	s, ok := reqctx.FromContext(ctx)
	if !ok {
		return zero, false
	}
	v, ok := s.Lookup(b)
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// MustHandle is Handle for call sites inside a request where absence is
// a programming error.
func (b *Binder[T]) MustHandle(ctx context.Context) T {
	h, ok := b.Handle(ctx)
	if !ok {
		panic(fmt.Sprintf("binding [%s]: no handle on the active request scope", b.name))
	}
	return h
}

var _ app.Extension = (*Binder[struct{}])(nil)
