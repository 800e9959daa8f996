package projects_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/builder"
	"github.com/artpar/adminkit/core/registry"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/modules"
	"github.com/artpar/adminkit/modules/internal/moduletest"
)

func newApp(t *testing.T) *registry.App {
	t.Helper()
	return moduletest.Run(t, moduletest.Services(), modules.Builtin()...)
}

func cell(row builder.Row, key string) render.Node {
	for _, c := range row.Cells {
		if c.Key == key {
			return c.Node
		}
	}
	return render.Empty
}

func field(fields []builder.RenderedField, key string) (builder.RenderedField, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return builder.RenderedField{}, false
}

func TestProjects_GridLoadsTeamAndTaskCount(t *testing.T) {
	app := newApp(t)
	g := moduletest.Grid(t, app, "Projects.crud.projects")

	page, err := g.Fetch(context.Background(), g.Compose(g.FromURL(nil), nil))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("Total = %d", page.Total)
	}

	rows := g.Render(page.Items, moduletest.Env(app, "en", moduletest.Store(false)))
	if got := cell(rows[0], "tasks").PlainText(); got != "2 tasks" {
		t.Errorf("Apollo tasks = %q", got)
	}
	if got := cell(rows[1], "tasks").PlainText(); got != "1 task" {
		t.Errorf("Gemini tasks = %q", got)
	}
	if team := cell(rows[0], "users"); len(team.Children) != 2 || team.Children[1].Text != "AL" {
		t.Errorf("Apollo team = %+v", team)
	}

	ru := g.Render(page.Items[:1], moduletest.Env(app, "ru", moduletest.Store(false)))
	if got := cell(ru[0], "tasks").PlainText(); got != "2 задач" {
		t.Errorf("ru Apollo tasks = %q", got)
	}
}

func TestProjects_RowScopedActions(t *testing.T) {
	app := newApp(t)
	g := moduletest.Grid(t, app, "Projects.crud.projects")

	editor := authz.Snapshot{Scoped: map[string]map[string]bool{
		"projects/edit":   {"1": true},
		"projects/remove": {"1": true},
	}}
	apollo := map[string]any{"id": "1"}
	gemini := map[string]any{"id": "2"}

	if got := g.VisibleActions(authz.Anonymous, apollo); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("anonymous actions = %v, want view only", got)
	}
	if got := g.VisibleActions(editor, apollo); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("editor on own project = %v", got)
	}
	if got := g.VisibleActions(editor, gemini); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("editor on other project = %v", got)
	}
	if got := g.VisiblePageControls(moduletest.Store(false, "projects/create")); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("creator controls = %v", got)
	}
}

func TestProjects_ViewLinksWorkersAcrossModules(t *testing.T) {
	app := newApp(t)
	p := moduletest.Page(t, app, "Projects.crud.projects.view")

	item, err := p.Load(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.ItemTitle(item); got != "Apollo" {
		t.Errorf("ItemTitle() = %q", got)
	}

	fields := p.Render(item, moduletest.Env(app, "en", moduletest.Store(true)))
	workers, ok := field(fields, "workers")
	if !ok || len(workers.Node.Children) != 2 {
		t.Fatalf("workers = %+v", workers)
	}
	first := workers.Node.Children[0]
	user := first.Children[0].Children[0]
	if user.Tag != "a" || user.Attrs["href"] != "/users/crud/users/view/2" {
		t.Errorf("worker user link = %+v", user)
	}
	task := first.Children[1].Children[0]
	if task.Attrs["href"] != "/tasks/crud/tasks/view/1" {
		t.Errorf("worker task link = %+v", task)
	}
	if got := first.Children[2].Text; got != "2h 30m" {
		t.Errorf("worker time = %q", got)
	}

	spent, _ := field(fields, "total_spent_time")
	if got := spent.Node.PlainText(); got != "3h 30m" {
		t.Errorf("total spent = %q", got)
	}
}

func TestProjects_FormPermissions(t *testing.T) {
	app := newApp(t)

	if got := moduletest.Route(t, app, "Projects.crud.projects.new").Meta.Permissions(); got != "projects/create" {
		t.Errorf("new permissions = %q", got)
	}
	if got := moduletest.Route(t, app, "Projects.crud.projects.edit").Meta.Permissions(); got != "projects/edit" {
		t.Errorf("edit permissions = %q", got)
	}
	keys := moduletest.Keys(moduletest.Page(t, app, "Projects.crud.projects.new").VisibleFields(authz.Anonymous, nil))
	if !reflect.DeepEqual(keys, []string{"name", "description", "important"}) {
		t.Errorf("form fields = %v", keys)
	}
}
