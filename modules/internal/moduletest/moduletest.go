// Package moduletest composes modules over in-memory services for tests.
package moduletest

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/builder"
	"github.com/artpar/adminkit/core/module"
	"github.com/artpar/adminkit/core/registry"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/schema"
)

// Run registers services by name, loads defs and returns the composed app.
func Run(t testing.TB, services map[string]resource.Service, defs ...module.Definition) *registry.App {
	t.Helper()

	resources := resource.NewRegistry()
	for name, svc := range services {
		if err := resources.Register(name, svc); err != nil {
			t.Fatalf("register service %s: %v", name, err)
		}
	}

	reg := registry.New(registry.Deps{Resources: resources, Logger: zerolog.Nop()})
	for _, d := range defs {
		if err := reg.Register(d.Config, d.Init); err != nil {
			t.Fatalf("register module %s: %v", d.Config.Name, err)
		}
	}
	app, err := reg.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return app
}

// Store returns a snapshot with global permissions.
func Store(admin bool, perms ...string) authz.Snapshot {
	s := authz.Snapshot{
		CurrentUser: authz.User{ID: "u1", FullName: "Test User", Admin: admin},
		Global:      map[string]bool{},
	}
	for _, p := range perms {
		s.Global[p] = true
	}
	return s
}

// Env returns a render environment bound to app.
func Env(app *registry.App, locale string, store authz.Store) render.Env {
	return render.Env{Locale: locale, Authz: store, T: app.I18n, Links: app.Router}
}

// Route looks up a route by name.
func Route(t testing.TB, app *registry.App, name string) schema.RouteConfig {
	t.Helper()
	r, ok := app.Table.Lookup(name)
	if !ok {
		t.Fatalf("route %s not registered (have %v)", name, app.Table.Names())
	}
	return r
}

// Grid returns the grid runtime of route name.
func Grid(t testing.TB, app *registry.App, name string) *builder.Grid {
	t.Helper()
	g, ok := Route(t, app, name).Meta[schema.MetaScreen].(*builder.Grid)
	if !ok {
		t.Fatalf("route %s has no grid", name)
	}
	return g
}

// Page returns the CRUD page runtime of route name.
func Page(t testing.TB, app *registry.App, name string) *builder.Page {
	t.Helper()
	p, ok := Route(t, app, name).Meta[schema.MetaScreen].(*builder.Page)
	if !ok {
		t.Fatalf("route %s has no page", name)
	}
	return p
}

// Keys returns the keys of fields in order.
func Keys(fields []schema.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Key
	}
	return out
}
