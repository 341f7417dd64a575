package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set holds the Prometheus instruments for one application. Each
// Application owns its own registry so several applications can live in
// one process (the usual situation in tests) without duplicate
// registration panics.
type Set struct {
	reg *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram

	HandlesOpened *prometheus.CounterVec
	HandlesClosed *prometheus.CounterVec
	OpenFailures  *prometheus.CounterVec
	CloseFailures *prometheus.CounterVec
}

// New creates a metric set on a fresh registry.
func New() *Set {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Set{
		reg: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "goflask_requests_total",
			Help: "Requests handled, by method.",
		}, []string{"method"}),
		RequestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "goflask_request_duration_seconds",
			Help:    "Time spent handling requests, hooks included.",
			Buckets: prometheus.DefBuckets,
		}),
		HandlesOpened: f.NewCounterVec(prometheus.CounterOpts{
			Name: "goflask_resource_handles_opened_total",
			Help: "Request-scoped resource handles opened, by binder.",
		}, []string{"binder"}),
		HandlesClosed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "goflask_resource_handles_closed_total",
			Help: "Request-scoped resource handles released, by binder.",
		}, []string{"binder"}),
		OpenFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "goflask_resource_open_failures_total",
			Help: "Failed attempts to open a resource handle, by binder.",
		}, []string{"binder"}),
		CloseFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "goflask_resource_close_failures_total",
			Help: "Failed releases of a resource handle, by binder.",
		}, []string{"binder"}),
	}
}

// Handler returns the scrape endpoint for this set, ready to mount:
//
//	app.Router.Mount("/metrics", app.Metrics.Handler())
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for extensions that register
// their own collectors.
func (s *Set) Registry() *prometheus.Registry { return s.reg }
