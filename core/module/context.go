// Package module provides the per-module facade handed to initializers.
//
// A Context is bound to one module's namespace. Initializers use it to build
// CRUD and grid bundles, register routes, navbar entries and localization
// tables, and subscribe to descriptors of other modules.
package module

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/adminkit/core/builder"
	"github.com/artpar/adminkit/core/events"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/router"
	"github.com/artpar/adminkit/core/schema"
)

// ErrSealed is returned when a context is used after its module was built.
var ErrSealed = errors.New("module context is sealed")

// Initializer sets a module up through its context.
type Initializer func(ctx *Context, r *router.Router) error

// Services is the shared environment every context is created from.
type Services struct {
	Interceptor *events.Interceptor
	Resources   *resource.Registry
	Logger      zerolog.Logger
	Recorder    builder.Recorder
}

// Context is the facade bound to one module.
type Context struct {
	cfg      schema.ModuleConfig
	services Services
	logger   zerolog.Logger
	bg       context.Context

	sources []schema.RouteSource
	navbar  []schema.NavbarEntry
	locales []map[string]map[string]any
	bundles map[string]schema.Navigation
	sealed  bool
}

// New creates a context for cfg.
func New(ctx context.Context, cfg schema.ModuleConfig, services Services) *Context {
	return &Context{
		cfg:      cfg,
		services: services,
		logger:   services.Logger.With().Str("module", cfg.Name).Logger(),
		bg:       ctx,
		bundles:  make(map[string]schema.Navigation),
	}
}

// Config returns the module identity.
func (c *Context) Config() schema.ModuleConfig { return c.cfg }

// Name returns the module name.
func (c *Context) Name() string { return c.cfg.Name }

// RoutePrefix returns the module route prefix.
func (c *Context) RoutePrefix() string { return c.cfg.RoutePrefix }

// RouteName prefixes name with the module name.
func (c *Context) RouteName(name string) string {
	return c.cfg.Name + "." + strings.TrimPrefix(name, ".")
}

// Path prefixes p with the module route prefix.
func (c *Context) Path(p string) string {
	return "/" + strings.Trim(c.cfg.RoutePrefix, "/") + "/" + strings.TrimPrefix(p, "/")
}

// Logger returns the module's logger.
func (c *Context) Logger() zerolog.Logger { return c.logger }

// Background returns the bootstrap context.
func (c *Context) Background() context.Context { return c.bg }

// Resources returns the named service registry.
func (c *Context) Resources() *resource.Registry { return c.services.Resources }

func (c *Context) builderConfig(kind string, svc any, opts []resource.Option) (builder.Config, error) {
	service, err := resource.Check(c.cfg.Name, kind, svc)
	if err != nil {
		return builder.Config{}, err
	}
	name := ""
	if n, ok := svc.(interface{ Name() string }); ok {
		name = n.Name()
	} else if c.services.Resources != nil {
		name = c.services.Resources.NameOf(svc)
	}
	return builder.Config{
		Module:      c.cfg,
		Service:     service,
		ServiceName: name,
		Options:     resource.NewOptions(opts...),
		Logger:      c.logger,
		Recorder:    c.services.Recorder,
	}, nil
}

// CreateCrud builds the view/new/edit bundle for base. svc must implement
// resource.Service.
func (c *Context) CreateCrud(title, base string, svc any, opts ...resource.Option) (*builder.Crud, error) {
	if c.sealed {
		return nil, ErrSealed
	}
	cfg, err := c.builderConfig("crud", svc, opts)
	if err != nil {
		return nil, err
	}
	crud := builder.NewCrud(cfg, title, base)
	c.bundles[base] = crud.Navigation()
	return crud, nil
}

// CreateGrid builds the list route for base. svc must implement
// resource.Service.
func (c *Context) CreateGrid(title, base string, svc any, opts ...resource.Option) (*builder.GridBuilder, error) {
	if c.sealed {
		return nil, ErrSealed
	}
	cfg, err := c.builderConfig("grid", svc, opts)
	if err != nil {
		return nil, err
	}
	return builder.NewGrid(cfg, title, base), nil
}

// CreatePage builds a standalone edit page named name at path, outside any
// CRUD bundle. svc must implement resource.Service.
func (c *Context) CreatePage(title, name, path string, svc any, opts ...resource.Option) (*builder.PageBuilder, error) {
	if c.sealed {
		return nil, ErrSealed
	}
	cfg, err := c.builderConfig("page", svc, opts)
	if err != nil {
		return nil, err
	}
	return builder.NewPage(cfg, title, schema.KindEdit, name, path, "CrudEdit"), nil
}

// Service resolves a named service from the registry.
func (c *Context) Service(kind, name string) (resource.Service, error) {
	if c.services.Resources == nil {
		return nil, &resource.InvalidResourceServiceError{Module: c.cfg.Name, Builder: kind, Name: name, Missing: []string{"GetAll", "GetItem", "Save", "DeleteItem"}}
	}
	return c.services.Resources.Resolve(c.cfg.Name, kind, name)
}

// AddRoute appends routes. Builders are compiled when the module is built,
// so meta set after AddRoute is still included.
func (c *Context) AddRoute(sources ...schema.RouteSource) error {
	if c.sealed {
		return ErrSealed
	}
	c.sources = append(c.sources, sources...)
	return nil
}

// AddNavbarEntry appends navigation-menu entries.
func (c *Context) AddNavbarEntry(entries ...schema.NavbarEntry) error {
	if c.sealed {
		return ErrSealed
	}
	for _, e := range entries {
		e.Module = c.cfg.Name
		c.navbar = append(c.navbar, e)
	}
	return nil
}

// AddLocalizationData queues per-locale string tables for merging.
func (c *Context) AddLocalizationData(data map[string]map[string]any) error {
	if c.sealed {
		return ErrSealed
	}
	c.locales = append(c.locales, data)
	return nil
}

// Subscribe registers h for the descriptor of another module.
func (c *Context) Subscribe(module string, h events.Handler) {
	c.services.Interceptor.SubscribeAs(c.cfg.Name, module, h)
}

// Result is everything a module contributed.
type Result struct {
	Descriptor *schema.Descriptor
	Routes     []schema.RouteConfig
	Navbar     []schema.NavbarEntry
	Locales    []map[string]map[string]any
}

// Build compiles every route source and seals the context.
func (c *Context) Build() (Result, error) {
	if c.sealed {
		return Result{}, ErrSealed
	}
	c.sealed = true

	var routes []schema.RouteConfig
	for _, src := range c.sources {
		for _, r := range src.Routes() {
			if r.Name == "" {
				return Result{}, fmt.Errorf("module %s: route with path %q has no name", c.cfg.Name, r.Path)
			}
			if r.Module == "" {
				r.Module = c.cfg.Name
			}
			if r.Meta == nil {
				r.Meta = schema.Meta{}
			}
			routes = append(routes, r)
		}
	}

	return Result{
		Descriptor: schema.NewDescriptor(c.cfg, routes, c.bundles),
		Routes:     routes,
		Navbar:     append([]schema.NavbarEntry(nil), c.navbar...),
		Locales:    c.locales,
	}, nil
}

// Definition pairs a module identity with its initializer.
type Definition struct {
	Config schema.ModuleConfig
	Init   Initializer
}
