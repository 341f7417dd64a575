// Package binding implements request-scoped resource binders.
//
// A Binder attaches a resource (a database connection, a cache client)
// to the request lifecycle of an application: the handle is opened in a
// before-request hook, carried on the request scope, and released in a
// teardown hook exactly once per request — whether the request
// succeeded, a hook failed, or the handler panicked.
//
// # Attaching
//
// A binder is a regular extension. Bind it at construction time:
//
//	application.RegisterExtension(binding.SQLite())
//
// or construct it standalone and attach it to several applications —
// the pattern Flask extensions call init_app, handy when tests spin up
// independent application instances against one shared binder:
//
//	db := binding.SQLite()
//	db.Init(appA)
//	db.Init(appB)
//
// # Configuration
//
// Each binder reads a single option naming its target and records a
// default via SetDefault, so an explicit value from Set, a YAML file,
// or the environment is never overridden:
//
//	application.Config.Set(binding.SQLiteOption, "/var/db/app.db")
//
// # Access
//
// Inside a request, the handle comes from the request's context:
//
//	conn, ok := db.Handle(r.Context())
//
// Outside request handling there is no scope and ok is false — a
// handle is never opened implicitly.
//
// # Custom binders
//
// New builds a binder for any resource from an Opener and a Closer:
//
//	mq := binding.New("nats", "NATS_URL", nats.DefaultURL,
//	    func(ctx context.Context, target string) (*nats.Conn, error) {
//	        return nats.Connect(target)
//	    },
//	    func(c *nats.Conn) error { c.Close(); return nil },
//	)
package binding
