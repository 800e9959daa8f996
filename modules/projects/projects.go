// Package projects is the projects module.
package projects

import (
	"context"
	"embed"

	"github.com/artpar/adminkit/core/module"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/router"
	"github.com/artpar/adminkit/core/schema"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Config identifies the module.
var Config = schema.ModuleConfig{Name: "Projects", RoutePrefix: "projects", LoadOrder: 20}

// Module is the projects module definition.
var Module = module.Definition{Config: Config, Init: Init}

// Service is the name of the resource service the module binds to.
const Service = "projects"

// Init builds the projects CRUD bundle and grid.
func Init(ctx *module.Context, _ *router.Router) error {
	usersView := ctx.RouteRef("Users", "users", schema.KindView)
	tasksView := ctx.RouteRef("Tasks", "tasks", schema.KindView)

	svc, err := ctx.Service("crud", Service)
	if err != nil {
		return err
	}

	crud, err := ctx.CreateCrud("projects.crud-title", "projects", svc)
	if err != nil {
		return err
	}
	nav := crud.Navigation()

	crud.View.AddToMetaProperties(schema.MetaTitleCallback, schema.TitleCallback(func(values resource.Item) string {
		return resource.ToString(values["name"])
	}))
	crud.View.AddToMetaProperties(schema.MetaNavigation, nav)
	crud.New.AddToMetaProperties(schema.MetaPermissions, "projects/create")
	crud.New.AddToMetaProperties(schema.MetaNavigation, nav)
	crud.Edit.AddToMetaProperties(schema.MetaPermissions, "projects/edit")
	crud.DeletePermission("projects/remove")

	grid, err := ctx.CreateGrid("projects.grid-title", "projects", svc,
		resource.With("users"),
		resource.WithCount("tasks"),
	)
	if err != nil {
		return err
	}
	grid.AddToMetaProperties(schema.MetaNavigation, nav)

	crud.View.AddField(
		schema.Field{Key: "name", Label: "field.name"},
		schema.Field{Key: "created_at", Label: "field.created_at", Renderer: render.DateTime(render.DateTimeLayout)},
		schema.Field{Key: "updated_at", Label: "field.updated_at", Renderer: render.DateTime(render.DateTimeLayout)},
		schema.Field{Key: "description", Label: "field.description"},
		schema.Field{Key: "total_spent_time", Label: "field.total_spent", Renderer: render.Duration},
		schema.Field{Key: "workers", Label: "field.users", Renderer: render.Workers{Users: usersView.Name, Tasks: tasksView.Name}},
	)

	form := []schema.Field{
		{Key: "id", Displayable: schema.Hidden()},
		{Key: "name", Label: "field.name", Type: schema.FieldTypeText, Placeholder: "field.name", Required: true},
		{Key: "description", Label: "field.description", Type: schema.FieldTypeTextarea, Placeholder: "field.description", Required: true},
		{Key: "important", Label: "field.important", Tooltip: "tooltip.task_important", Type: schema.FieldTypeCheckbox, Default: 0},
	}
	crud.New.AddField(form...)
	crud.Edit.AddField(form...)

	grid.AddColumn(
		schema.Column{Key: "name", Title: "field.project"},
		schema.Column{Key: "users", Title: "field.team", Renderer: render.Avatars},
		schema.Column{Key: "tasks", Title: "field.amount_of_tasks", Renderer: render.Count{Key: "projects.amount_of_tasks", Path: "tasks_count"}},
	)
	grid.AddFilter(schema.Filter{ReferenceKey: "name", FilterName: "filter.fields.project_name"})
	grid.AddAction(
		// Assigning users has no screen yet.
		schema.Action{Title: "projects.assign-users", Icon: "icon-user", OnClick: noop, RenderCondition: schema.Never},
		schema.Action{Title: "control.view", Icon: "icon-eye", OnClick: schema.ViewHandler, RenderCondition: schema.Always},
		schema.Action{Title: "control.edit", Icon: "icon-edit", OnClick: schema.EditHandler, RenderCondition: schema.CanOnRow("projects/edit", "id")},
		schema.Action{Title: "control.delete", Icon: "icon-trash-2", ActionType: "error", OnClick: schema.DeleteHandler, RenderCondition: schema.CanOnRow("projects/remove", "id")},
	)
	grid.AddPageControls(schema.Action{
		Title:           "control.create",
		Icon:            "icon-edit",
		Type:            "primary",
		OnClick:         schema.PushHandler(crud.NewRouteName),
		RenderCondition: schema.Can("projects/create"),
	})

	if err := ctx.AddRoute(crud, grid); err != nil {
		return err
	}
	if err := ctx.AddNavbarEntry(schema.NavbarEntry{Label: "navigation.projects", To: grid.RouteName(), Icon: "icon-layers", Order: 10}); err != nil {
		return err
	}

	locales, err := module.LoadLocales(localeFS, "locales")
	if err != nil {
		return err
	}
	return ctx.AddLocalizationData(locales)
}

func noop(context.Context, schema.Navigator, resource.Item, schema.ActionContext) error {
	return nil
}
