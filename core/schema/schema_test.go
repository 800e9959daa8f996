package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
)

func TestCrudNames(t *testing.T) {
	nav := CrudNames("Projects", "projects")
	if nav.View != "Projects.crud.projects.view" || nav.Edit != "Projects.crud.projects.edit" || nav.New != "Projects.crud.projects.new" {
		t.Errorf("CrudNames = %+v", nav)
	}
	if nav.View == nav.Edit || nav.Edit == nav.New || nav.View == nav.New {
		t.Error("names must be distinct")
	}
	if got := GridName("Projects", "projects"); got != "Projects.crud.projects" {
		t.Errorf("GridName = %q", got)
	}
	if got := CrudPath("projects", "projects", KindEdit); got != "/projects/crud/projects/edit/:id" {
		t.Errorf("CrudPath(edit) = %q", got)
	}
	if got := CrudPath("/projects/", "projects", KindNew); got != "/projects/crud/projects/new" {
		t.Errorf("CrudPath(new) = %q", got)
	}
}

func TestEval_RecoversPanics(t *testing.T) {
	ok, err := Eval("boom", func() bool { panic("broken") })
	if ok {
		t.Error("panicking predicate should evaluate to false")
	}
	var pe *PredicateError
	if !errors.As(err, &pe) || pe.Name != "boom" {
		t.Errorf("err = %v", err)
	}

	if ok, err := Eval("nil", nil); !ok || err != nil {
		t.Errorf("nil predicate = %v, %v", ok, err)
	}
}

func TestField_Visible(t *testing.T) {
	store := authz.Snapshot{}
	tests := []struct {
		name   string
		field  Field
		values resource.Item
		want   bool
	}{
		{"default", Field{Key: "name"}, nil, true},
		{"hidden", Field{Key: "id", Displayable: Hidden()}, nil, false},
		{"predicate true", Field{Key: "color", DisplayPredicate: func(_ authz.Store, v resource.Item) bool { return v["work_time"] != nil }}, resource.Item{"work_time": 8}, true},
		{"predicate false", Field{Key: "color", DisplayPredicate: func(_ authz.Store, v resource.Item) bool { return v["work_time"] != nil }}, resource.Item{}, false},
		{"predicate panics", Field{Key: "x", DisplayPredicate: func(authz.Store, resource.Item) bool { panic("x") }}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := tt.field.Visible(store, tt.values)
			if got != tt.want {
				t.Errorf("Visible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestField_DefaultValue(t *testing.T) {
	store := authz.Snapshot{CurrentUser: authz.User{ID: "12"}}
	f := Field{Key: "user_id", Default: "x", DefaultFunc: func(s authz.Store) any { return s.User().ID }}
	if got := f.DefaultValue(store); got != "12" {
		t.Errorf("DefaultValue = %v", got)
	}
	if got := (Field{Default: 2}).DefaultValue(store); got != 2 {
		t.Errorf("DefaultValue = %v", got)
	}
}

func TestConditions(t *testing.T) {
	store := authz.Snapshot{Scoped: map[string]map[string]bool{"tasks/edit": {"1": true}}}
	c := Unless("integration", CanOnRow("tasks/edit", "project_id"))

	if !c(store, resource.Item{"project_id": 1}) {
		t.Error("authorized row rejected")
	}
	if c(store, resource.Item{"project_id": 2}) {
		t.Error("unauthorized row accepted")
	}
	if c(store, resource.Item{"project_id": 1, "integration": "gitlab"}) {
		t.Error("integration row accepted")
	}
	if !CanInAnyProject("tasks/edit")(store, nil) {
		t.Error("CanInAnyProject rejected")
	}
}

func TestMeta_Public(t *testing.T) {
	m := Meta{
		MetaPermissions:   "projects/edit",
		MetaNavigation:    Navigation{View: "a"},
		MetaTitleCallback: TitleCallback(func(resource.Item) string { return "" }),
		MetaScreen:        private{},
	}
	pub := m.Public()
	if len(pub) != 2 || pub.Permissions() != "projects/edit" {
		t.Errorf("Public() = %v", pub)
	}
	if m.TitleCallback() == nil {
		t.Error("TitleCallback() = nil")
	}
	if _, ok := pub.Navigation(); !ok {
		t.Error("navigation dropped")
	}
}

type private struct{}

func (private) PrivateMeta() {}

func TestDescriptor_ReturnsCopies(t *testing.T) {
	routes := []RouteConfig{{Name: "A.view", Path: "/a", Meta: Meta{"k": "v"}}}
	d := NewDescriptor(ModuleConfig{Name: "A"}, routes, map[string]Navigation{"a": {View: "A.view"}})

	routes[0].Meta["k"] = "changed"
	got := d.Routes()
	if got[0].Meta["k"] != "v" {
		t.Error("descriptor shares meta with its input")
	}
	got[0].Meta["k"] = "mutated"
	if r, _ := d.Route("A.view"); r.Meta["k"] != "v" {
		t.Error("descriptor shares meta with consumers")
	}
	if nav, ok := d.Navigation("a"); !ok || nav.View != "A.view" {
		t.Errorf("Navigation(a) = %+v, %v", nav, ok)
	}
}

type recordingContext struct{ calls []string }

func (r *recordingContext) OnView(context.Context, resource.Item) error {
	r.calls = append(r.calls, "view")
	return nil
}

func (r *recordingContext) OnEdit(context.Context, resource.Item) error {
	r.calls = append(r.calls, "edit")
	return nil
}

func (r *recordingContext) OnDelete(context.Context, resource.Item) error {
	r.calls = append(r.calls, "delete")
	return nil
}

type recordingNav struct{ pushed []string }

func (n *recordingNav) Push(_ context.Context, to Location) error {
	n.pushed = append(n.pushed, to.Name)
	return nil
}

func TestActionSpec_Action(t *testing.T) {
	bc := &recordingContext{}
	nav := &recordingNav{}
	ctx := context.Background()

	for _, h := range []string{HandlerView, HandlerEdit, HandlerDelete} {
		a, err := ActionSpec{Title: h, Handler: h}.Action("")
		if err != nil {
			t.Fatalf("Action(%s): %v", h, err)
		}
		if err := a.OnClick(ctx, nav, resource.Item{"id": 1}, bc); err != nil {
			t.Fatal(err)
		}
	}
	if len(bc.calls) != 3 || bc.calls[2] != "delete" {
		t.Errorf("calls = %v", bc.calls)
	}

	a, err := ActionSpec{Title: "create", Handler: HandlerNew}.Action("T.crud.t.new")
	if err != nil {
		t.Fatal(err)
	}
	_ = a.OnClick(ctx, nav, nil, bc)
	if len(nav.pushed) != 1 || nav.pushed[0] != "T.crud.t.new" {
		t.Errorf("pushed = %v", nav.pushed)
	}

	if _, err := (ActionSpec{Title: "x", Handler: "explode"}).Action(""); err == nil {
		t.Error("expected error for unknown handler")
	}
}

func TestFieldSpec_Field(t *testing.T) {
	catalog := render.NewCatalog()
	f, err := FieldSpec{Key: "user_id", DefaultUser: true, ShowWhen: "project_id", Render: &RendererSpec{Name: "yesno"}}.Field(catalog)
	if err != nil {
		t.Fatal(err)
	}
	store := authz.Snapshot{CurrentUser: authz.User{ID: "3"}}
	if f.DefaultValue(store) != "3" {
		t.Error("default_user not applied")
	}
	if ok, _ := f.Visible(store, resource.Item{}); ok {
		t.Error("show_when ignored")
	}
	if ok, _ := f.Visible(store, resource.Item{"project_id": 5}); !ok {
		t.Error("show_when rejected present value")
	}

	if _, err := (FieldSpec{Key: "x", Render: &RendererSpec{Name: "missing"}}).Field(catalog); err == nil {
		t.Error("expected error for unknown renderer")
	}
}
