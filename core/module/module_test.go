package module

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/artpar/adminkit/core/builder"
	"github.com/artpar/adminkit/core/events"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/router"
	"github.com/artpar/adminkit/core/schema"
)

type stubService struct{}

func (stubService) GetAll(context.Context, resource.Filters) (resource.Page, error) {
	return resource.Page{}, nil
}
func (stubService) GetItem(context.Context, string) (resource.Item, error) { return nil, nil }
func (stubService) Save(_ context.Context, d resource.Item) (resource.Item, error) {
	return d, nil
}
func (stubService) DeleteItem(context.Context, string) error { return nil }

type readOnly struct{}

func (readOnly) GetAll(context.Context, resource.Filters) (resource.Page, error) {
	return resource.Page{}, nil
}

func newContext(t *testing.T, cfg schema.ModuleConfig) *Context {
	t.Helper()
	reg := resource.NewRegistry()
	if err := reg.Register("tasks", &stubService{}); err != nil {
		t.Fatal(err)
	}
	return New(context.Background(), cfg, Services{
		Interceptor: events.New(zerolog.Nop()),
		Resources:   reg,
		Logger:      zerolog.Nop(),
	})
}

func TestContext_CreateCrudRejectsInvalidService(t *testing.T) {
	ctx := newContext(t, schema.ModuleConfig{Name: "Tasks", RoutePrefix: "tasks"})

	_, err := ctx.CreateCrud("tasks.crud-title", "tasks", readOnly{})
	var invalid *resource.InvalidResourceServiceError
	if !errors.As(err, &invalid) {
		t.Fatalf("CreateCrud error = %v, want InvalidResourceServiceError", err)
	}
	if invalid.Module != "Tasks" || invalid.Builder != "crud" {
		t.Errorf("error = %+v", invalid)
	}

	if _, err := ctx.CreateGrid("tasks.grid-title", "tasks", nil); !errors.As(err, &invalid) || invalid.Builder != "grid" {
		t.Errorf("CreateGrid(nil) error = %v", err)
	}
}

func TestContext_BuildIncludesLateMeta(t *testing.T) {
	ctx := newContext(t, schema.ModuleConfig{Name: "Tasks", RoutePrefix: "tasks", LoadOrder: 20})

	crud, err := ctx.CreateCrud("tasks.crud-title", "tasks", stubService{})
	if err != nil {
		t.Fatal(err)
	}
	grid, err := ctx.CreateGrid("tasks.grid-title", "tasks", stubService{})
	if err != nil {
		t.Fatal(err)
	}
	_ = ctx.AddRoute(crud, grid)

	// meta set after AddRoute still lands in the built routes
	crud.New.AddToMetaProperties(schema.MetaPermissions, "tasks/create")
	grid.AddToMetaProperties(schema.MetaNavigation, crud.Navigation())

	_ = ctx.AddNavbarEntry(schema.NavbarEntry{Label: "navigation.tasks", To: grid.RouteName()})
	_ = ctx.AddLocalizationData(map[string]map[string]any{"en": {"tasks": map[string]any{"title": "Tasks"}}})

	res, err := ctx.Build()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Routes) != 4 {
		t.Fatalf("routes = %d, want 4", len(res.Routes))
	}
	if res.Routes[1].Meta.Permissions() != "tasks/create" {
		t.Errorf("late permission missing: %v", res.Routes[1].Meta)
	}
	if nav, ok := res.Routes[3].Meta.Navigation(); !ok || nav.View != "Tasks.crud.tasks.view" {
		t.Errorf("grid navigation = %+v", nav)
	}
	if res.Navbar[0].Module != "Tasks" || len(res.Locales) != 1 {
		t.Errorf("navbar = %+v locales = %v", res.Navbar, res.Locales)
	}
	if nav, ok := res.Descriptor.Navigation("tasks"); !ok || nav != crud.Navigation() {
		t.Errorf("descriptor bundle = %+v", nav)
	}

	if _, err := ctx.Build(); !errors.Is(err, ErrSealed) {
		t.Errorf("second Build = %v", err)
	}
	if err := ctx.AddRoute(schema.RouteConfig{Name: "x"}); !errors.Is(err, ErrSealed) {
		t.Errorf("AddRoute after Build = %v", err)
	}
}

func TestContext_ServiceNameFromRegistry(t *testing.T) {
	ctx := newContext(t, schema.ModuleConfig{Name: "Tasks", RoutePrefix: "tasks"})
	svc, err := ctx.Service("grid", "tasks")
	if err != nil {
		t.Fatal(err)
	}
	grid, err := ctx.CreateGrid("t", "tasks", svc)
	if err != nil {
		t.Fatal(err)
	}
	if got := grid.RouterConfig().Meta.String(schema.MetaService); got != "tasks" {
		t.Errorf("service meta = %q", got)
	}

	if _, err := ctx.Service("grid", "missing"); err == nil {
		t.Error("expected error for unknown service")
	}
}

const manifest = `
name: TimeIntervals
route_prefix: time-intervals
load_order: 40
crud:
  - title: time_intervals.crud-title
    base: time-intervals
    service: tasks
    title_field: task.task_name
    permissions: { edit: time-intervals/edit, delete: time-intervals/remove }
    view_fields:
      - { key: duration, label: field.duration, render: { name: duration } }
    form_fields:
      - { key: task_id, label: field.task, required: true }
grid:
  - title: time_intervals.grid-title
    base: time-intervals
    service: tasks
    where: { is_active: 1 }
    columns:
      - { key: task.task_name, title: field.task }
    actions:
      - { title: control.delete, handler: delete, condition: { can: time-intervals/remove } }
    page_controls:
      - { title: control.create, handler: new, type: primary }
navbar:
  - { label: navigation.time_intervals }
locales:
  en: { time_intervals: { grid-title: Time intervals } }
`

func TestFromManifest(t *testing.T) {
	m, err := schema.ParseManifest([]byte(manifest))
	if err != nil {
		t.Fatal(err)
	}
	ctx := newContext(t, m.Config())

	if err := FromManifest(m, render.NewCatalog())(ctx, router.New(zerolog.Nop())); err != nil {
		t.Fatalf("initializer: %v", err)
	}
	res, err := ctx.Build()
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Routes) != 4 {
		t.Fatalf("routes = %d", len(res.Routes))
	}
	view := res.Routes[0]
	page := view.Meta[schema.MetaScreen].(*builder.Page)
	if got := page.ItemTitle(resource.Item{"task": map[string]any{"task_name": "Docs"}}); got != "Docs" {
		t.Errorf("title = %q", got)
	}
	if res.Routes[2].Meta.Permissions() != "time-intervals/edit" {
		t.Errorf("edit permissions = %q", res.Routes[2].Meta.Permissions())
	}
	for _, r := range res.Routes[:3] {
		if got := r.Meta.String(schema.MetaDeletePermission); got != "time-intervals/remove" {
			t.Errorf("%s delete permission = %q", r.Name, got)
		}
	}

	grid := res.Routes[3].Meta[schema.MetaScreen].(*builder.Grid)
	if grid.Navigation.New != "TimeIntervals.crud.time-intervals.new" {
		t.Errorf("grid navigation = %+v", grid.Navigation)
	}
	if f := grid.Compose(builder.Query{}, nil); f["is_active"] != 1 {
		t.Errorf("static where lost: %v", f)
	}
	if len(grid.Actions) != 1 || len(grid.PageControls) != 1 {
		t.Errorf("actions = %d controls = %d", len(grid.Actions), len(grid.PageControls))
	}
	if res.Navbar[0].To != "TimeIntervals.crud.time-intervals" {
		t.Errorf("navbar to = %q", res.Navbar[0].To)
	}
}

func TestFromManifest_UnknownService(t *testing.T) {
	m := schema.Manifest{Name: "X", RoutePrefix: "x", Grid: []schema.GridSpec{{Base: "x", Service: "nope"}}}
	ctx := newContext(t, m.Config())

	err := FromManifest(m, render.NewCatalog())(ctx, nil)
	var invalid *resource.InvalidResourceServiceError
	if !errors.As(err, &invalid) || invalid.Name != "nope" || invalid.Module != "X" {
		t.Errorf("err = %v", err)
	}
}

func TestContext_RouteRef(t *testing.T) {
	bus := events.New(zerolog.Nop())
	services := Services{Interceptor: bus, Logger: zerolog.Nop()}

	projects := New(context.Background(), schema.ModuleConfig{Name: "Projects", RoutePrefix: "projects"}, services)
	view := projects.RouteRef("Users", "users", schema.KindView)
	grid := projects.RouteRef("Users", "users", "")
	missing := projects.RouteRef("Users", "teams", schema.KindView)

	if view.Resolved() {
		t.Fatal("ref resolved before publication")
	}

	users := New(context.Background(), schema.ModuleConfig{Name: "Users", RoutePrefix: "users"}, services)
	crud, err := users.CreateCrud("users.crud-title", "users", stubService{})
	if err != nil {
		t.Fatal(err)
	}
	if err := users.AddRoute(crud); err != nil {
		t.Fatal(err)
	}
	res, err := users.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Publish(res.Descriptor); err != nil {
		t.Fatal(err)
	}

	if got := view.Name(); got != "Users.crud.users.view" {
		t.Errorf("view ref = %q", got)
	}
	if got := grid.Name(); got != "Users.crud.users" {
		t.Errorf("grid ref = %q", got)
	}
	if missing.Resolved() {
		t.Errorf("missing bundle resolved to %q", missing.Name())
	}

	late := New(context.Background(), schema.ModuleConfig{Name: "Tasks", RoutePrefix: "tasks"}, services)
	if got := late.RouteRef("Users", "users", schema.KindEdit).Name(); got != "Users.crud.users.edit" {
		t.Errorf("late ref = %q, want replayed edit route", got)
	}
}
