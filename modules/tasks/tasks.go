// Package tasks is the tasks module.
package tasks

import (
	"embed"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/module"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/router"
	"github.com/artpar/adminkit/core/schema"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Config identifies the module.
var Config = schema.ModuleConfig{Name: "Tasks", RoutePrefix: "tasks", LoadOrder: 20}

// Module is the tasks module definition.
var Module = module.Definition{Config: Config, Init: Init}

// Service is the name of the resource service the module binds to.
const Service = "tasks"

// Priorities are the selectable task priorities.
var Priorities = []schema.Option{
	{Value: 1, Label: "tasks.priority.low"},
	{Value: 2, Label: "tasks.priority.normal"},
	{Value: 3, Label: "tasks.priority.high"},
}

// Init builds the tasks CRUD bundle and grid.
func Init(ctx *module.Context, _ *router.Router) error {
	usersView := ctx.RouteRef("Users", "users", schema.KindView)
	projectsView := ctx.RouteRef("Projects", "projects", schema.KindView)

	svc, err := ctx.Service("crud", Service)
	if err != nil {
		return err
	}
	with := resource.With("priority", "project", "user")

	crud, err := ctx.CreateCrud("tasks.crud-title", "tasks", svc, with)
	if err != nil {
		return err
	}
	nav := crud.Navigation()

	crud.View.AddToMetaProperties(schema.MetaTitleCallback, schema.TitleCallback(func(values resource.Item) string {
		return resource.ToString(values["task_name"])
	}))
	crud.View.AddToMetaProperties(schema.MetaNavigation, nav)
	crud.New.AddToMetaProperties(schema.MetaPermissions, "tasks/create")
	crud.New.AddToMetaProperties(schema.MetaNavigation, nav)
	crud.Edit.AddToMetaProperties(schema.MetaPermissions, "tasks/edit")
	crud.DeletePermission("tasks/remove")

	grid, err := ctx.CreateGrid("tasks.grid-title", "tasks", svc, with)
	if err != nil {
		return err
	}
	grid.AddToMetaProperties(schema.MetaNavigation, nav)

	crud.View.AddField(
		schema.Field{Key: "active", Label: "field.active", Renderer: render.YesNo},
		schema.Field{Key: "project", Label: "field.project", Renderer: render.Link{Route: projectsView.Name, Label: "name"}},
		schema.Field{Key: "priority", Label: "field.priority", Renderer: render.Translate{Prefix: "tasks.priority.", Path: "name"}},
		schema.Field{Key: "user", Label: "field.user", Renderer: render.Link{Route: usersView.Name, Label: "full_name", AdminOnly: true}},
		schema.Field{Key: "description", Label: "field.description", Renderer: render.NewHTML()},
		schema.Field{Key: "url", Label: "field.source", Renderer: render.Source},
		schema.Field{Key: "created_at", Label: "field.created_at", Renderer: render.DateTime(render.DateLayout)},
		schema.Field{Key: "total_spent_time", Label: "field.total_spent", Renderer: render.Duration},
		schema.Field{Key: "workers", Label: "field.users", Renderer: render.Workers{Users: usersView.Name}},
	)

	form := []schema.Field{
		{Key: "id", Displayable: schema.Hidden()},
		{Key: "project_id", Label: "field.project", Type: schema.FieldTypeResourceSelect, Service: "projects", Required: true},
		{Key: "task_name", Label: "field.task_name", Type: schema.FieldTypeInput, Placeholder: "field.name", Required: true},
		{Key: "description", Label: "field.description", Type: schema.FieldTypeRichText, Placeholder: "field.description"},
		{Key: "important", Label: "field.important", Tooltip: "tooltip.task_important", Type: schema.FieldTypeCheckbox, InitialValue: false},
		{
			Key:      "user_id",
			Label:    "field.user",
			Type:     schema.FieldTypeResourceSelect,
			Service:  "users",
			Required: true,
			DefaultFunc: func(store authz.Store) any {
				if id := store.User().ID; id != "" {
					return id
				}
				return nil
			},
		},
		{Key: "priority_id", Label: "field.priority", Type: schema.FieldTypeSelect, Options: Priorities, InitialValue: 2, Required: true, Default: 2},
		{Key: "active", Label: "field.active", Type: schema.FieldTypeCheckbox, InitialValue: true, Default: 1},
	}
	crud.New.AddField(form...)
	crud.Edit.AddField(form...)

	grid.AddColumn(
		schema.Column{Key: "task_name", Title: "field.task", Renderer: taskName},
		schema.Column{Key: "project", Title: "field.project", Renderer: projectName},
		schema.Column{Key: "user", Title: "field.user", Renderer: assignee},
	)
	grid.AddFilter(
		schema.Filter{ReferenceKey: "task_name", FilterName: "filter.fields.task_name"},
		schema.Filter{ReferenceKey: "project.name", FilterName: "filter.fields.project_name"},
	)
	grid.AddFilterField(
		schema.FilterField{
			Key:          "project_id",
			Label:        "tasks.projects",
			FieldOptions: schema.FieldOptions{Type: schema.FieldTypeResourceSelect, Service: "projects"},
		},
		schema.FilterField{
			Key:          "user_id",
			Label:        "tasks.users",
			FieldOptions: schema.FieldOptions{Type: schema.FieldTypeResourceSelect, Service: "users"},
		},
		schema.FilterField{
			Key:         "active",
			Label:       "tasks.status",
			Placeholder: "tasks.statuses.any",
			SaveToQuery: true,
			Default:     "1",
			FieldOptions: schema.FieldOptions{
				Type: schema.FieldTypeSelect,
				Options: []schema.Option{
					{Value: "", Label: "tasks.statuses.any"},
					{Value: "1", Label: "tasks.statuses.open"},
					{Value: "0", Label: "tasks.statuses.closed"},
				},
			},
		},
	)
	grid.AddAction(
		schema.Action{Title: "control.view", Icon: "icon-eye", OnClick: schema.ViewHandler, RenderCondition: schema.Always},
		schema.Action{Title: "control.edit", Icon: "icon-edit", OnClick: schema.EditHandler, RenderCondition: schema.Unless("integration", schema.CanOnRow("tasks/edit", "project_id"))},
		schema.Action{Title: "control.delete", Icon: "icon-trash-2", ActionType: "error", OnClick: schema.DeleteHandler, RenderCondition: schema.Unless("integration", schema.CanOnRow("tasks/remove", "project_id"))},
	)
	grid.AddPageControls(schema.Action{
		Title:           "control.create",
		Icon:            "icon-edit",
		Type:            "primary",
		OnClick:         schema.PushHandler(crud.NewRouteName),
		RenderCondition: schema.CanInAnyProject("tasks/create"),
	})

	if err := ctx.AddRoute(crud, grid); err != nil {
		return err
	}
	if err := ctx.AddNavbarEntry(schema.NavbarEntry{Label: "navigation.tasks", To: grid.RouteName(), Icon: "icon-list", Order: 20}); err != nil {
		return err
	}

	locales, err := module.LoadLocales(localeFS, "locales")
	if err != nil {
		return err
	}
	return ctx.AddLocalizationData(locales)
}

var taskName = render.Func(func(value any, env render.Env) render.Node {
	name := resource.ToString(value)
	class := "tasks-grid__task"
	if !render.Truthy(env.Values["active"]) {
		class += " tasks-grid__task--inactive"
	}
	return render.Node{Tag: "span", Text: name, Attrs: map[string]string{"class": class, "title": name}}
})

var projectName = render.Func(func(value any, _ render.Env) render.Node {
	var name string
	if p, ok := value.(map[string]any); ok {
		name = resource.ToString(p["name"])
	}
	return render.Node{Tag: "span", Text: name, Attrs: map[string]string{"class": "tasks-grid__project", "title": name}}
})

var assignee = render.Func(func(value any, env render.Env) render.Node {
	if value == nil {
		return render.Empty
	}
	return render.Avatars.Render([]any{value}, env)
})
