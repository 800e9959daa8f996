// Package users is the user management module. It loads first so other
// modules can link to user pages.
package users

import (
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
var Config = schema.ModuleConfig{Name: "Users", RoutePrefix: "users", LoadOrder: 10}

// Module is the users module definition.
var Module = module.Definition{Config: Config, Init: Init}

// Service is the name of the resource service the module binds to.
const Service = "users"

// Languages offered to users.
var Languages = []schema.Option{
	{Value: "en", Label: "languages.en"},
	{Value: "ru", Label: "languages.ru"},
}

// Init builds the users CRUD bundle and grid.
func Init(ctx *module.Context, _ *router.Router) error {
	svc, err := ctx.Service("crud", Service)
	if err != nil {
		return err
	}

	crud, err := ctx.CreateCrud("users.crud-title", "users", svc)
	if err != nil {
		return err
	}
	nav := crud.Navigation()

	crud.View.AddToMetaProperties(schema.MetaTitleCallback, schema.TitleCallback(func(values resource.Item) string {
		return resource.ToString(values["full_name"])
	}))
	crud.View.AddToMetaProperties(schema.MetaNavigation, nav)
	crud.New.AddToMetaProperties(schema.MetaPermissions, "users/create")
	crud.New.AddToMetaProperties(schema.MetaNavigation, nav)
	crud.Edit.AddToMetaProperties(schema.MetaPermissions, "users/edit")
	crud.DeletePermission("users/remove")

	crud.View.AddField(
		schema.Field{Key: "full_name", Label: "field.full_name"},
		schema.Field{Key: "email", Label: "field.email"},
		schema.Field{Key: "is_admin", Label: "field.is_admin", Renderer: render.YesNo},
		schema.Field{Key: "active", Label: "field.active", Renderer: render.YesNo},
		schema.Field{Key: "user_language", Label: "field.user_language", Renderer: render.Translate{Prefix: "languages."}},
		schema.Field{Key: "created_at", Label: "field.created_at", Renderer: render.DateTime(render.DateTimeLayout)},
	)

	form := []schema.Field{
		{Key: "id", Displayable: schema.Hidden()},
		{Key: "full_name", Label: "field.full_name", Type: schema.FieldTypeText, Placeholder: "field.full_name", Required: true},
		{Key: "email", Label: "field.email", Type: schema.FieldTypeText, Placeholder: "field.email", Required: true},
		{Key: "is_admin", Label: "field.is_admin", Type: schema.FieldTypeCheckbox, Default: 0},
		{Key: "active", Label: "field.active", Type: schema.FieldTypeCheckbox, InitialValue: true, Default: 1},
		{Key: "user_language", Label: "field.user_language", Type: schema.FieldTypeSelect, Options: Languages, InitialValue: "en", Default: "en"},
	}
	crud.New.AddField(form...)
	crud.New.AddField(schema.Field{Key: "password", Label: "field.password", Type: schema.FieldTypeInput, Placeholder: "field.password", Required: true})
	crud.Edit.AddField(form...)
	crud.Edit.AddField(schema.Field{Key: "password", Label: "field.password", Type: schema.FieldTypeInput, Placeholder: "users.password-unchanged"})

	grid, err := ctx.CreateGrid("users.grid-title", "users", svc)
	if err != nil {
		return err
	}
	grid.AddToMetaProperties(schema.MetaNavigation, nav)
	grid.AddToMetaProperties(schema.MetaPermissions, "users/list")

	grid.AddColumn(
		schema.Column{Key: "full_name", Title: "field.full_name"},
		schema.Column{Key: "email", Title: "field.email"},
		schema.Column{Key: "is_admin", Title: "field.is_admin", Renderer: render.YesNo},
		schema.Column{Key: "active", Title: "field.active", Renderer: render.YesNo},
	)
	grid.AddFilter(
		schema.Filter{ReferenceKey: "full_name", FilterName: "filter.fields.full_name"},
		schema.Filter{ReferenceKey: "email", FilterName: "filter.fields.email"},
	)
	grid.AddFilterField(schema.FilterField{
		Key:         "active",
		Label:       "users.status",
		Placeholder: "users.statuses.any",
		SaveToQuery: true,
		FieldOptions: schema.FieldOptions{
			Type: schema.FieldTypeSelect,
			Options: []schema.Option{
				{Value: "", Label: "users.statuses.any"},
				{Value: "1", Label: "users.statuses.active"},
				{Value: "0", Label: "users.statuses.inactive"},
			},
		},
	})
	grid.AddAction(
		schema.Action{Title: "control.view", Icon: "icon-eye", OnClick: schema.ViewHandler},
		schema.Action{Title: "control.edit", Icon: "icon-edit", OnClick: schema.EditHandler, RenderCondition: schema.Can("users/edit")},
		schema.Action{Title: "control.delete", Icon: "icon-trash-2", ActionType: "error", OnClick: schema.DeleteHandler, RenderCondition: schema.Can("users/remove")},
	)
	grid.AddPageControls(schema.Action{
		Title:           "control.create",
		Icon:            "icon-edit",
		Type:            "primary",
		OnClick:         schema.PushHandler(crud.NewRouteName),
		RenderCondition: schema.Can("users/create"),
	})

	if err := ctx.AddRoute(crud, grid); err != nil {
		return err
	}
	if err := ctx.AddNavbarEntry(schema.NavbarEntry{Label: "navigation.users", To: grid.RouteName(), Icon: "icon-users", Order: 30}); err != nil {
		return err
	}

	locales, err := module.LoadLocales(localeFS, "locales")
	if err != nil {
		return err
	}
	return ctx.AddLocalizationData(locales)
}
