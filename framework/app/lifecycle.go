package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/km-arc/go-flask/framework/reqctx"
	gohttp "github.com/km-arc/go-flask/http"
)

// BeforeHook runs once per request before the handler — Flask's
// @app.before_request. The scope is the request's own; a non-nil error
// aborts handling and is routed to the application's error handler.
// Teardown hooks still run for an aborted request.
type BeforeHook func(s *reqctx.Scope) error

// TeardownHook runs once per request after handling finished — Flask's
// @app.teardown_request. err is the unhandled error the request died
// with, or nil on success. Teardown hooks run even when a before hook
// or the handler failed, so cleanup can never be skipped.
type TeardownHook func(s *reqctx.Scope, err error)

// ErrorHandler renders an error that aborted request handling.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// BeforeRequest appends a before hook. Hooks run in registration order
// and are independent: each registered callback is invoked regardless
// of what other extensions installed.
func (a *Application) BeforeRequest(h BeforeHook) {
	a.before = append(a.before, h)
}

// TeardownRequest appends a teardown hook. Hooks run in reverse
// registration order, like defer, so resources unwind opposite to how
// they were set up.
func (a *Application) TeardownRequest(h TeardownHook) {
	a.teardown = append(a.teardown, h)
}

// OnError replaces the application's error handler.
func (a *Application) OnError(h ErrorHandler) {
	a.onError = h
}

// ── Status errors ────────────────────────────────────────────────────────────

// StatusError carries an HTTP status through hook error propagation —
// Flask's abort(429) raised inside a before_request callback.
type StatusError struct {
	Code    int
	Message string
}

// NewStatusError builds a StatusError; an empty message falls back to
// the status's standard text.
func NewStatusError(code int, message string) *StatusError {
	return &StatusError{Code: code, Message: message}
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}

// ── Lifecycle middleware ─────────────────────────────────────────────────────

// lifecycle wraps the router with the per-request state machine: create
// the scope, run before hooks, serve, then tear down exactly once —
// whatever path the request died on.
func (a *Application) lifecycle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, r := reqctx.Attach(r)

		var reqErr error

		// Before hooks: the first failure aborts handling. Remaining
		// before hooks are skipped, but teardown still runs below.
		aborted := false
		for _, h := range a.before {
			if err := h(scope); err != nil {
				reqErr = err
				aborted = true
				a.onError(w, r, err)
				break
			}
		}

		if !aborted {
			func() {
				defer func() {
					if v := recover(); v != nil {
						reqErr = fmt.Errorf("app: panic while handling %s %s: %v", r.Method, r.URL.Path, v)
						a.Log.Error("request panicked", "method", r.Method, "path", r.URL.Path, "panic", v)
						a.onError(w, r, reqErr)
					}
				}()
				next.ServeHTTP(w, r)
			}()
		}

		a.runTeardown(scope, reqErr)

		a.Metrics.RequestsTotal.WithLabelValues(r.Method).Inc()
		a.Metrics.RequestDuration.Observe(time.Since(scope.Start()).Seconds())
		a.Log.Debug("request finished",
			"method", r.Method, "path", r.URL.Path,
			"duration", time.Since(scope.Start()), "error", reqErr)
	})
}

// runTeardown drives the scope to its terminal state exactly once. A
// teardown hook that panics is logged and must not keep the remaining
// hooks from running.
func (a *Application) runTeardown(scope *reqctx.Scope, reqErr error) {
	if !scope.Release() {
		return
	}
	for i := len(a.teardown) - 1; i >= 0; i-- {
		h := a.teardown[i]
		func() {
			defer func() {
				if v := recover(); v != nil {
					a.Log.Error("teardown hook panicked", "panic", v)
				}
			}()
			h(scope, reqErr)
		}()
	}
}

// defaultErrorHandler renders hook and handler errors as JSON. A
// StatusError keeps its code and message; anything else becomes a 500,
// with the underlying error exposed only in debug mode.
func (a *Application) defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	res := gohttp.NewResponse(w)

	var se *StatusError
	if errors.As(err, &se) {
		res.Abort(se.Code, se.Message)
		return
	}
	if a.Debug() {
		res.ServerError(err.Error())
		return
	}
	res.ServerError()
}
