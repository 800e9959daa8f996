package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/adminkit/core/builder"
	"github.com/artpar/adminkit/core/events"
	"github.com/artpar/adminkit/core/i18n"
	"github.com/artpar/adminkit/core/module"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/router"
	"github.com/artpar/adminkit/core/schema"
)

type memService struct {
	deleted []string
}

func (s *memService) GetAll(context.Context, resource.Filters) (resource.Page, error) {
	return resource.Page{Items: []resource.Item{{"id": "1"}}, Total: 1}, nil
}
func (s *memService) GetItem(_ context.Context, id string) (resource.Item, error) {
	return resource.Item{"id": id}, nil
}
func (s *memService) Save(_ context.Context, d resource.Item) (resource.Item, error) { return d, nil }
func (s *memService) DeleteItem(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type navRecorder struct{ pushed []schema.Location }

func (n *navRecorder) Push(_ context.Context, to schema.Location) error {
	n.pushed = append(n.pushed, to)
	return nil
}

func newRegistry() *Registry {
	return New(Deps{Logger: zerolog.Nop()})
}

func noop(*module.Context, *router.Router) error { return nil }

func TestRun_LoadOrder(t *testing.T) {
	r := newRegistry()
	var calls []string
	record := func(name string) module.Initializer {
		return func(*module.Context, *router.Router) error {
			calls = append(calls, name)
			return nil
		}
	}

	mods := []schema.ModuleConfig{
		{Name: "Settings", LoadOrder: 30},
		{Name: "Projects", LoadOrder: 20},
		{Name: "Core", LoadOrder: 10},
		{Name: "Tasks", LoadOrder: 20},
		{Name: "Reports", LoadOrder: 20},
	}
	for _, m := range mods {
		if err := r.Register(m, record(m.Name)); err != nil {
			t.Fatal(err)
		}
	}

	app, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Core", "Projects", "Tasks", "Reports", "Settings"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("init order = %v, want %v", calls, want)
	}
	for i := 1; i < len(app.Modules); i++ {
		if app.Modules[i-1].LoadOrder > app.Modules[i].LoadOrder {
			t.Errorf("modules out of order: %+v", app.Modules)
		}
	}
}

func TestRun_CrossModuleReferences(t *testing.T) {
	r := newRegistry()
	svc := &memService{}

	// B loads after A and subscribes after A has published: replay.
	var bSawA []string
	// A loads first and subscribes to B before B publishes.
	var aSawB int

	_ = r.Register(schema.ModuleConfig{Name: "A", RoutePrefix: "a", LoadOrder: 10}, func(ctx *module.Context, _ *router.Router) error {
		ctx.Subscribe("B", func(*schema.Descriptor) { aSawB++ })

		crud, err := ctx.CreateCrud("a.crud-title", "items", svc)
		if err != nil {
			return err
		}
		return ctx.AddRoute(crud)
	})

	var usersView string
	_ = r.Register(schema.ModuleConfig{Name: "B", RoutePrefix: "b", LoadOrder: 20}, func(ctx *module.Context, _ *router.Router) error {
		ctx.Subscribe("A", func(d *schema.Descriptor) {
			nav, _ := d.Navigation("items")
			usersView = nav.View
			for _, rt := range d.Routes() {
				bSawA = append(bSawA, rt.Name)
			}
		})

		grid, err := ctx.CreateGrid("b.grid-title", "things", svc)
		if err != nil {
			return err
		}
		grid.AddAction(schema.Action{
			Title: "open a",
			OnClick: func(c context.Context, nav schema.Navigator, row resource.Item, _ schema.ActionContext) error {
				return nav.Push(c, schema.Location{Name: usersView, Params: map[string]string{"id": row.ID()}})
			},
		})
		return ctx.AddRoute(grid)
	})

	app, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if aSawB != 1 {
		t.Errorf("A's subscription to B fired %d times, want 1", aSawB)
	}
	if len(bSawA) != 3 {
		t.Fatalf("B saw A routes %v", bSawA)
	}

	aView := app.Descriptors["A"].Routes()[0].Name
	gridRoute, ok := app.Table.Lookup("B.crud.things")
	if !ok {
		t.Fatal("B grid route missing")
	}
	grid := gridRoute.Meta[schema.MetaScreen].(*builder.Grid)
	nav := &navRecorder{}
	if err := grid.Dispatch(context.Background(), nav, 0, resource.Item{"id": "5"}); err != nil {
		t.Fatal(err)
	}
	if len(nav.pushed) != 1 || nav.pushed[0].Name != aView {
		t.Errorf("B linked to %+v, A registered %q", nav.pushed, aView)
	}
	if _, err := app.Table.Resolve(nav.pushed[0].Name, nav.pushed[0].Params); err != nil {
		t.Errorf("link does not resolve: %v", err)
	}
}

func TestRun_InitializerFailureAborts(t *testing.T) {
	r := newRegistry()
	loaded := map[string]bool{}
	ok := func(name string) module.Initializer {
		return func(*module.Context, *router.Router) error {
			loaded[name] = true
			return nil
		}
	}
	boom := errors.New("boom")

	_ = r.Register(schema.ModuleConfig{Name: "First", LoadOrder: 1}, ok("First"))
	_ = r.Register(schema.ModuleConfig{Name: "Broken", LoadOrder: 2}, func(*module.Context, *router.Router) error { return boom })
	_ = r.Register(schema.ModuleConfig{Name: "Last", LoadOrder: 3}, ok("Last"))

	app, err := r.Run(context.Background(), nil)
	var merr *ModuleError
	if !errors.As(err, &merr) || merr.Module != "Broken" || !errors.Is(err, boom) {
		t.Fatalf("Run error = %v", err)
	}
	if !loaded["First"] || loaded["Last"] {
		t.Errorf("loaded = %v", loaded)
	}
	if len(app.Modules) != 1 || app.Modules[0].Name != "First" {
		t.Errorf("modules kept = %+v", app.Modules)
	}
}

func TestRun_InitializerPanic(t *testing.T) {
	r := newRegistry()
	_ = r.Register(schema.ModuleConfig{Name: "Panics"}, func(*module.Context, *router.Router) error { panic("nil map") })

	_, err := r.Run(context.Background(), nil)
	var merr *ModuleError
	if !errors.As(err, &merr) || merr.Module != "Panics" {
		t.Fatalf("Run error = %v", err)
	}
}

func TestRun_RouteConflicts(t *testing.T) {
	r := newRegistry()
	route := schema.RouteConfig{Name: "Shared.route", Path: "/shared"}
	add := func(ctx *module.Context, _ *router.Router) error { return ctx.AddRoute(route) }

	_ = r.Register(schema.ModuleConfig{Name: "One", LoadOrder: 1}, add)
	_ = r.Register(schema.ModuleConfig{Name: "Two", LoadOrder: 2}, add)
	_ = r.Register(schema.ModuleConfig{Name: "Three", LoadOrder: 3}, noop)

	app, err := r.Run(context.Background(), nil)
	var cerr *ConflictError
	if !errors.As(err, &cerr) || len(cerr.Conflicts) != 2 {
		t.Fatalf("Run error = %v", err)
	}
	if cerr.Conflicts[0].Modules[0] != "One" || cerr.Conflicts[0].Modules[1] != "Two" {
		t.Errorf("conflict = %+v", cerr.Conflicts[0])
	}

	// checked before the conflicting module publishes; later modules never run
	var merr *ModuleError
	if !errors.As(err, &merr) || merr.Module != "Two" {
		t.Errorf("module error = %v", err)
	}
	if _, ok := r.Interceptor().Descriptor("Two"); ok {
		t.Error("conflicting module was published")
	}
	if _, ok := r.Interceptor().Descriptor("One"); !ok {
		t.Error("earlier module was unpublished")
	}
	if len(app.Modules) != 1 || app.Modules[0].Name != "One" {
		t.Errorf("modules kept = %+v", app.Modules)
	}
}

func TestRegister_Errors(t *testing.T) {
	r := newRegistry()
	if err := r.Register(schema.ModuleConfig{Name: "A"}, noop); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(schema.ModuleConfig{Name: "A"}, noop); err == nil {
		t.Error("duplicate registration accepted")
	}
	if err := r.Register(schema.ModuleConfig{}, noop); err == nil {
		t.Error("unnamed module accepted")
	}
	if _, err := r.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(schema.ModuleConfig{Name: "B"}, noop); !errors.Is(err, ErrFrozen) {
		t.Errorf("Register after Run = %v", err)
	}
	if _, err := r.Run(context.Background(), nil); !errors.Is(err, ErrFrozen) {
		t.Errorf("second Run = %v", err)
	}
}

type loadRecorder struct {
	loaded []string
	routes int
}

func (l *loadRecorder) ModuleLoaded(m string, _ time.Duration) { l.loaded = append(l.loaded, m) }
func (l *loadRecorder) RoutesRegistered(n int)                 { l.routes = n }

func TestRun_ComposesNavbarLocalesAndDisabled(t *testing.T) {
	rec := &loadRecorder{}
	store := i18n.New(zerolog.Nop(), "en")
	bus := events.New(zerolog.Nop())
	r := New(Deps{Logger: zerolog.Nop(), I18n: store, Interceptor: bus, Recorder: rec})

	_ = r.Register(schema.ModuleConfig{Name: "Tasks", RoutePrefix: "tasks", LoadOrder: 20}, func(ctx *module.Context, _ *router.Router) error {
		ctx.Subscribe("Integrations", func(*schema.Descriptor) {})
		_ = ctx.AddRoute(schema.RouteConfig{Name: "Tasks.list", Path: "/tasks"})
		_ = ctx.AddNavbarEntry(schema.NavbarEntry{Label: "navigation.tasks", To: "Tasks.list", Order: 2})
		return ctx.AddLocalizationData(map[string]map[string]any{"en": {"navigation": map[string]any{"tasks": "Tasks"}}})
	})
	_ = r.Register(schema.ModuleConfig{Name: "Projects", RoutePrefix: "projects", LoadOrder: 20}, func(ctx *module.Context, _ *router.Router) error {
		_ = ctx.AddRoute(schema.RouteConfig{Name: "Projects.list", Path: "/projects"})
		return ctx.AddNavbarEntry(schema.NavbarEntry{Label: "navigation.projects", To: "Projects.list", Order: 1})
	})
	_ = r.Register(schema.ModuleConfig{Name: "Integrations", LoadOrder: 50}, noop)
	r.Disable("Integrations")

	app, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run with an unresolved subscription should succeed: %v", err)
	}

	if len(app.Navbar) != 2 || app.Navbar[0].To != "Projects.list" {
		t.Errorf("navbar = %+v", app.Navbar)
	}
	if got := store.T("en", "navigation.tasks"); got != "Tasks" {
		t.Errorf("locale = %q", got)
	}
	if !store.Frozen() {
		t.Error("localization store not frozen")
	}
	if len(bus.Unresolved()) != 1 {
		t.Errorf("unresolved = %+v", bus.Unresolved())
	}
	if !reflect.DeepEqual(rec.loaded, []string{"Tasks", "Projects"}) || rec.routes != 2 {
		t.Errorf("recorder = %+v", rec)
	}
	if got, _ := app.Router.Resolve("Tasks.list", nil); got != "/tasks" {
		t.Errorf("router not mounted, Resolve = %q", got)
	}
}
