package binding

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteOption names the SQLite database file. Default: ":memory:".
const SQLiteOption = "SQLITE3_DATABASE"

// SQLite builds a binder that opens a SQLite connection per request —
// the classic Flask-SQLite3 extension.
//
//	db := binding.SQLite()
//	application.RegisterExtension(db)
//
//	application.Router.Get("/todos", func(w http.ResponseWriter, r *http.Request) {
//	    conn := db.MustHandle(r.Context())
//	    rows, err := conn.QueryContext(r.Context(), "SELECT title FROM todos")
//	    ...
//	})
func SQLite() *Binder[*sql.DB] {
	return New("sqlite3", SQLiteOption, ":memory:",
		func(ctx context.Context, target string) (*sql.DB, error) {
			db, err := sql.Open("sqlite3", target)
			if err != nil {
				return nil, err
			}
			// sql.Open validates nothing; ping so a bad target fails
			// the before hook instead of the first query.
			if err := db.PingContext(ctx); err != nil {
				_ = db.Close()
				return nil, err
			}
			return db, nil
		},
		func(db *sql.DB) error { return db.Close() },
	)
}
