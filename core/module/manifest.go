package module

import (
	"fmt"

	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/router"
	"github.com/artpar/adminkit/core/schema"
)

// FromManifest returns an initializer that builds the module declared by m.
// Services are resolved by name from the context's registry and renderers
// from catalog.
func FromManifest(m schema.Manifest, catalog *render.Catalog) Initializer {
	return func(ctx *Context, _ *router.Router) error {
		for _, spec := range m.Crud {
			if err := buildCrud(ctx, spec, catalog); err != nil {
				return err
			}
		}
		for _, spec := range m.Grid {
			if err := buildGrid(ctx, spec, catalog); err != nil {
				return err
			}
		}

		for _, e := range m.Navbar {
			if e.To == "" && len(m.Grid) > 0 {
				e.To = schema.GridName(m.Name, m.Grid[0].Base)
			}
			if err := ctx.AddNavbarEntry(e); err != nil {
				return err
			}
		}
		if len(m.Locales) > 0 {
			return ctx.AddLocalizationData(m.Locales)
		}
		return nil
	}
}

func buildCrud(ctx *Context, spec schema.CrudSpec, catalog *render.Catalog) error {
	svc, err := ctx.Service("crud", spec.Service)
	if err != nil {
		return err
	}
	crud, err := ctx.CreateCrud(spec.Title, spec.Base, svc, resource.With(spec.With...))
	if err != nil {
		return err
	}

	for _, fs := range spec.ViewFields {
		f, err := fs.Field(catalog)
		if err != nil {
			return fmt.Errorf("crud %s view: %w", spec.Base, err)
		}
		crud.View.AddField(f)
	}
	for _, fs := range spec.FormFields {
		f, err := fs.Field(catalog)
		if err != nil {
			return fmt.Errorf("crud %s form: %w", spec.Base, err)
		}
		crud.New.AddField(f)
		crud.Edit.AddField(f)
	}

	nav := crud.Navigation()
	crud.View.AddToMetaProperties(schema.MetaNavigation, nav)
	crud.New.AddToMetaProperties(schema.MetaNavigation, nav)

	if key := spec.TitleField; key != "" {
		crud.View.AddToMetaProperties(schema.MetaTitleCallback, schema.TitleCallback(func(values resource.Item) string {
			v, _ := resource.Lookup(values, key)
			return resource.ToString(v)
		}))
	}

	for kind, perm := range spec.Permissions {
		switch kind {
		case schema.KindView:
			crud.View.AddToMetaProperties(schema.MetaPermissions, perm)
		case schema.KindNew:
			crud.New.AddToMetaProperties(schema.MetaPermissions, perm)
		case schema.KindEdit:
			crud.Edit.AddToMetaProperties(schema.MetaPermissions, perm)
		case "delete":
			crud.DeletePermission(perm)
		}
	}

	return ctx.AddRoute(crud)
}

func buildGrid(ctx *Context, spec schema.GridSpec, catalog *render.Catalog) error {
	svc, err := ctx.Service("grid", spec.Service)
	if err != nil {
		return err
	}
	opts := []resource.Option{resource.With(spec.With...), resource.WithCount(spec.WithCount...)}
	for k, v := range spec.Where {
		opts = append(opts, resource.Where(k, v))
	}
	grid, err := ctx.CreateGrid(spec.Title, spec.Base, svc, opts...)
	if err != nil {
		return err
	}

	nav, hasCrud := ctx.bundles[spec.Base]
	if hasCrud {
		grid.AddToMetaProperties(schema.MetaNavigation, nav)
	}

	for _, cs := range spec.Columns {
		c, err := cs.Column(catalog)
		if err != nil {
			return fmt.Errorf("grid %s: %w", spec.Base, err)
		}
		grid.AddColumn(c)
	}
	grid.AddFilter(spec.Filters...)
	grid.AddFilterField(spec.FilterFields...)

	for _, as := range spec.Actions {
		a, err := as.Action(nav.New)
		if err != nil {
			return fmt.Errorf("grid %s: %w", spec.Base, err)
		}
		grid.AddAction(a)
	}
	for _, as := range spec.PageControls {
		a, err := as.Action(nav.New)
		if err != nil {
			return fmt.Errorf("grid %s: %w", spec.Base, err)
		}
		grid.AddPageControls(a)
	}

	return ctx.AddRoute(grid)
}
