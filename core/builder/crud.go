package builder

import (
	"github.com/artpar/adminkit/core/schema"
)

// Crud builds the view/new/edit route bundle for one resource.
type Crud struct {
	View *PageBuilder
	New  *PageBuilder
	Edit *PageBuilder

	cfg   Config
	title string
	base  string
	nav   schema.Navigation
}

// NewCrud creates the bundle for base. Route names are fixed here and never
// change as fields are added.
func NewCrud(cfg Config, title, base string) *Crud {
	c := &Crud{
		cfg:   cfg,
		title: title,
		base:  base,
		nav:   schema.CrudNames(cfg.Module.Name, base),
	}
	c.View = c.page(schema.KindView, c.nav.View, "CrudView")
	c.New = c.page(schema.KindNew, c.nav.New, "CrudNew")
	c.Edit = c.page(schema.KindEdit, c.nav.Edit, "CrudEdit")
	return c
}

func (c *Crud) page(kind, name, component string) *PageBuilder {
	return NewPage(c.cfg, c.title, kind, name, schema.CrudPath(c.cfg.Module.RoutePrefix, c.base, kind), component)
}

// Base returns the resource base name.
func (c *Crud) Base() string { return c.base }

// Navigation returns the view/edit/new route names.
func (c *Crud) Navigation() schema.Navigation { return c.nav }

// ViewRouteName returns the name of the view route.
func (c *Crud) ViewRouteName() string { return c.nav.View }

// NewRouteName returns the name of the new route.
func (c *Crud) NewRouteName() string { return c.nav.New }

// EditRouteName returns the name of the edit route.
func (c *Crud) EditRouteName() string { return c.nav.Edit }

// DeletePermission lets holders of perm delete items through the bundle's
// routes.
func (c *Crud) DeletePermission(perm string) *Crud {
	for _, r := range c.RouterConfig() {
		r.Meta[schema.MetaDeletePermission] = perm
	}
	return c
}

// RouterConfig returns the live route configs of the three pages.
func (c *Crud) RouterConfig() []*schema.RouteConfig {
	return []*schema.RouteConfig{c.View.route, c.New.route, c.Edit.route}
}

// Routes compiles the three routes. Meta changes made after Routes is called
// do not affect the returned configs.
func (c *Crud) Routes() []schema.RouteConfig {
	return []schema.RouteConfig{c.View.compile(), c.New.compile(), c.Edit.compile()}
}

// PageBuilder builds one page of a CRUD bundle or a standalone form page.
type PageBuilder struct {
	cfg    Config
	title  string
	kind   string
	route  *schema.RouteConfig
	fields []schema.Field
}

// NewPage creates a page outside a CRUD bundle, e.g. a settings section.
// kind selects the view, new or edit behavior of the page runtime.
func NewPage(cfg Config, title, kind, name, path, component string) *PageBuilder {
	return &PageBuilder{
		cfg:   cfg,
		title: title,
		kind:  kind,
		route: &schema.RouteConfig{
			Name:      name,
			Path:      path,
			Component: component,
			Module:    cfg.Module.Name,
			Meta: schema.Meta{
				schema.MetaTitle:   title,
				schema.MetaService: cfg.ServiceName,
			},
		},
	}
}

// AddField appends field descriptors.
func (p *PageBuilder) AddField(fields ...schema.Field) *PageBuilder {
	p.fields = append(p.fields, fields...)
	return p
}

// Fields returns the descriptors added so far.
func (p *PageBuilder) Fields() []schema.Field {
	return append([]schema.Field(nil), p.fields...)
}

// AddToMetaProperties sets a meta key on targets, or on this page's route
// when no target is given.
func (p *PageBuilder) AddToMetaProperties(key string, value any, targets ...*schema.RouteConfig) *PageBuilder {
	setMeta(p.route, key, value, targets)
	return p
}

// RouterConfig returns the live route config of this page.
func (p *PageBuilder) RouterConfig() *schema.RouteConfig {
	return p.route
}

// RouteName returns this page's route name.
func (p *PageBuilder) RouteName() string {
	return p.route.Name
}

// Kind returns view, new or edit.
func (p *PageBuilder) Kind() string {
	return p.kind
}

// Routes compiles the page route.
func (p *PageBuilder) Routes() []schema.RouteConfig {
	return []schema.RouteConfig{p.compile()}
}

func (p *PageBuilder) compile() schema.RouteConfig {
	r := p.route.Clone()
	r.Meta[schema.MetaScreen] = &Page{
		Kind:    p.kind,
		Route:   r.Name,
		Title:   p.title,
		Fields:  p.Fields(),
		title:   r.Meta.TitleCallback(),
		service: p.cfg.Service,
		cfg:     p.cfg,
	}
	return r
}
