package tests

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/km-arc/go-flask/framework/app"
	gohttp "github.com/km-arc/go-flask/http"
	"github.com/km-arc/go-flask/routing"
)

func get(t *testing.T, a *app.Application, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
	return rec
}

func TestRouter_PrefixAndParams(t *testing.T) {
	a := app.New()

	a.Router.Prefix("/api/v1", func(api *routing.Router) {
		api.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
			req := gohttp.NewRequest(r)
			gohttp.NewResponse(w).OK(map[string]any{"id": req.Param("id")})
		})
	})

	rec := get(t, a, "/api/v1/users/42")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"id":"42"`) {
		t.Errorf("body: got %s, want the route param echoed", rec.Body.String())
	}
}

func TestMetricsEndpoint_CountsRequests(t *testing.T) {
	a := app.New()
	a.Router.Get("/", func(w http.ResponseWriter, r *http.Request) {})
	a.Router.Mount("/metrics", a.Metrics.Handler())

	get(t, a, "/")
	get(t, a, "/")

	rec := get(t, a, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `goflask_requests_total{method="GET"}`) {
		t.Error("/metrics should expose the request counter")
	}
}

func TestAbortHelpers_JSONShape(t *testing.T) {
	a := app.New()
	a.Router.Get("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		gohttp.NewResponse(w).Abort(http.StatusForbidden)
	})

	rec := get(t, a, "/forbidden")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message":"Forbidden"`) {
		t.Errorf("body: got %s", rec.Body.String())
	}
}
