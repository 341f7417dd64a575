package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/km-arc/go-flask/framework/config"
	"github.com/km-arc/go-flask/framework/metrics"
	"github.com/km-arc/go-flask/framework/registry"
	"github.com/km-arc/go-flask/routing"
)

// Application is the long-lived object representing one configured web
// service instance — mirrors Flask's Flask(__name__) object. It owns
// the option store, the router, the shared-service registry, and the
// request lifecycle callback registries.
//
// Build everything at bootstrap, then serve:
//
//	application := app.New()
//	application.RegisterExtension(binding.SQLite())
//	application.Router.Get("/", handler)
//	application.Run()
//
// Configuration and callbacks are meant to be installed before serving
// begins; during serving they are read-only.
type Application struct {
	Config   *config.Config
	Router   *routing.Router
	Services *registry.Registry
	Metrics  *metrics.Set
	Log      *slog.Logger

	extensions map[string]Extension
	before     []BeforeHook
	teardown   []TeardownHook
	onError    ErrorHandler
}

// New bootstraps an application: configuration from .env files and the
// environment, a chi-backed router, and a fresh service registry.
func New(envFiles ...string) *Application {
	cfg := config.Load(envFiles...)

	a := &Application{
		Config:     cfg,
		Router:     routing.New(),
		Services:   registry.New(),
		Metrics:    metrics.New(),
		Log:        slog.New(slog.NewTextHandler(os.Stderr, nil)),
		extensions: make(map[string]Extension),
	}
	a.onError = a.defaultErrorHandler
	return a
}

// Name returns the configured application name.
func (a *Application) Name() string { return a.Config.App.Name }

// Environment returns the APP_ENV value.
func (a *Application) Environment() string { return a.Config.App.Env }

// Debug reports whether debug mode is on.
func (a *Application) Debug() bool { return a.Config.App.Debug }

// Handler returns the application's full http.Handler: the router
// wrapped in the request lifecycle middleware. Use it directly with
// httptest when exercising an application in tests.
func (a *Application) Handler() http.Handler {
	return a.lifecycle(a.Router)
}

// Run starts the HTTP server on APP_PORT (default 5000) and blocks.
func (a *Application) Run() error {
	addr := ":" + a.Config.App.Port
	a.Log.Info("serving", "app", a.Name(), "addr", addr, "env", a.Environment())

	if err := http.ListenAndServe(addr, a.Handler()); err != nil {
		return fmt.Errorf("app: serve %s: %w", addr, err)
	}
	return nil
}
