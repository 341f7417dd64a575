package app

import "fmt"

// Extension is an add-on that attaches behavior to an Application —
// the counterpart of a Flask extension with an init_app method.
//
// An extension is constructed independently of any application and may
// be attached to zero, one, or many applications over its life; each
// attachment configures defaults and installs hooks on that application
// only. The two Flask initialization styles collapse into one here:
//
//	// bound at construction time
//	application.RegisterExtension(binding.SQLite())
//
//	// deferred: one extension instance, several applications
//	db := binding.SQLite()
//	db.Init(appA)
//	db.Init(appB)
type Extension interface {
	// Name identifies the extension. An application rejects a second
	// registration under the same name.
	Name() string

	// Init attaches the extension to the application: apply option
	// defaults (never overriding user-supplied values) and install
	// lifecycle hooks. Init must not assume it is the only extension
	// on the application.
	Init(a *Application) error
}

// RegisterExtension attaches an extension to the application, at most
// once per extension name.
func (a *Application) RegisterExtension(ext Extension) error {
	name := ext.Name()
	if _, dup := a.extensions[name]; dup {
		return fmt.Errorf("app: extension [%s] already registered", name)
	}
	if err := ext.Init(a); err != nil {
		return fmt.Errorf("app: init extension [%s]: %w", name, err)
	}
	a.extensions[name] = ext
	return nil
}

// Extension returns a registered extension by name.
func (a *Application) Extension(name string) (Extension, bool) {
	ext, ok := a.extensions[name]
	return ext, ok
}
