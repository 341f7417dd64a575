package main

import (
	"log"
	"net/http"

	"github.com/km-arc/go-flask/binding"
	"github.com/km-arc/go-flask/extensions/ratelimit"
	"github.com/km-arc/go-flask/framework/app"
	gohttp "github.com/km-arc/go-flask/http"
	"github.com/km-arc/go-flask/routing"
)

func main() {
	application := app.New() // loads .env automatically

	// A SQLite connection per request, released on teardown. With no
	// explicit SQLITE3_DATABASE option the binder's default applies.
	db := binding.SQLite()
	if err := application.RegisterExtension(db); err != nil {
		log.Fatal(err)
	}
	if err := application.RegisterExtension(ratelimit.New()); err != nil {
		log.Fatal(err)
	}

	r := application.Router

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		res := gohttp.NewResponse(w)
		res.OK(map[string]any{"message": "Welcome to go-flask!"})
	})

	r.Prefix("/api/v1", func(api *routing.Router) {

		// GET /api/v1/ping — touch the per-request connection
		api.Get("/ping", func(w http.ResponseWriter, req *http.Request) {
			res := gohttp.NewResponse(w)

			conn, ok := db.Handle(req.Context())
			if !ok {
				res.ServerError("no database handle on this request")
				return
			}
			var one int
			if err := conn.QueryRowContext(req.Context(), "SELECT 1").Scan(&one); err != nil {
				res.ServerError(err.Error())
				return
			}
			res.OK(map[string]any{"pong": one})
		})

		// GET /api/v1/boom — panics; the teardown hook still closes
		// the request's connection.
		api.Get("/boom", func(w http.ResponseWriter, req *http.Request) {
			panic("boom")
		})
	})

	r.Mount("/metrics", application.Metrics.Handler())

	if err := application.Run(); err != nil {
		log.Fatal(err)
	}
}
