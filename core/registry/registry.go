// Package registry is the module loader. It orders registered modules by
// load order, runs their initializers with a scoped context, publishes each
// module's descriptor on the interceptor and composes the frozen route
// table, navbar and localization store.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
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

// ErrFrozen is returned by Register once Run has started.
var ErrFrozen = errors.New("module registry is frozen")

// ModuleError attaches the failing module's name to a bootstrap error.
type ModuleError struct {
	Module string
	Err    error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %s: %v", e.Module, e.Err)
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}

// Conflict is a route name or path claimed twice.
type Conflict struct {
	Kind    string
	Key     string
	Modules []string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s %q claimed by %s", c.Kind, c.Key, strings.Join(c.Modules, " and "))
}

// ConflictError represents one or more route conflicts.
type ConflictError struct {
	Conflicts []Conflict
}

// Error returns the conflict error message.
func (e *ConflictError) Error() string {
	var msgs []string
	for _, c := range e.Conflicts {
		msgs = append(msgs, c.String())
	}
	return fmt.Sprintf("route conflicts detected:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasConflicts returns true if there are any conflicts.
func (e *ConflictError) HasConflicts() bool {
	return len(e.Conflicts) > 0
}

// Recorder observes module loading.
type Recorder interface {
	ModuleLoaded(module string, took time.Duration)
	RoutesRegistered(n int)
}

// Deps are the shared collaborators of a loader.
type Deps struct {
	Interceptor *events.Interceptor
	I18n        *i18n.Store
	Router      *router.Router
	Resources   *resource.Registry
	Logger      zerolog.Logger

	Recorder        Recorder
	BuilderRecorder builder.Recorder
}

// ContextFactory creates the context handed to a module's initializer.
type ContextFactory func(ctx context.Context, cfg schema.ModuleConfig) *module.Context

type entry struct {
	cfg  schema.ModuleConfig
	init module.Initializer
}

// Registry collects modules and runs them once.
type Registry struct {
	mu       sync.Mutex
	pending  []entry
	names    map[string]bool
	disabled map[string]bool
	frozen   bool
	deps     Deps
}

// New creates a loader. Missing collaborators are created with defaults.
func New(deps Deps) *Registry {
	if deps.Interceptor == nil {
		deps.Interceptor = events.New(deps.Logger)
	}
	if deps.I18n == nil {
		deps.I18n = i18n.New(deps.Logger, "en")
	}
	if deps.Router == nil {
		deps.Router = router.New(deps.Logger)
	}
	if deps.Resources == nil {
		deps.Resources = resource.NewRegistry()
	}
	return &Registry{
		names:    make(map[string]bool),
		disabled: make(map[string]bool),
		deps:     deps,
	}
}

// Interceptor returns the loader's interceptor.
func (r *Registry) Interceptor() *events.Interceptor { return r.deps.Interceptor }

// Register adds a module to the pending set.
func (r *Registry) Register(cfg schema.ModuleConfig, init module.Initializer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}
	if cfg.Name == "" {
		return errors.New("module name is required")
	}
	if init == nil {
		return fmt.Errorf("module %q has no initializer", cfg.Name)
	}
	if r.names[cfg.Name] {
		return fmt.Errorf("module %q already registered", cfg.Name)
	}
	r.names[cfg.Name] = true
	r.pending = append(r.pending, entry{cfg: cfg, init: init})
	return nil
}

// Disable skips the named modules when Run is called.
func (r *Registry) Disable(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		r.disabled[n] = true
	}
}

// Order returns the pending modules in the order Run will load them:
// ascending load order, ties in registration order.
func (r *Registry) Order() []schema.ModuleConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order()
}

func (r *Registry) order() []schema.ModuleConfig {
	sorted := make([]entry, 0, len(r.pending))
	for _, e := range r.pending {
		if !r.disabled[e.cfg.Name] {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].cfg.LoadOrder < sorted[j].cfg.LoadOrder
	})
	out := make([]schema.ModuleConfig, len(sorted))
	for i, e := range sorted {
		out[i] = e.cfg
	}
	return out
}

// App is the composed, frozen application.
type App struct {
	Modules     []schema.ModuleConfig
	Descriptors map[string]*schema.Descriptor
	Table       *router.Table
	Navbar      []schema.NavbarEntry
	I18n        *i18n.Store
	Router      *router.Router
	Resources   *resource.Registry
}

// Routes returns the route table in load order.
func (a *App) Routes() []schema.RouteConfig {
	return a.Table.Routes()
}

// Run loads every pending module once, in order. A failing initializer
// aborts bootstrap with a *ModuleError; modules loaded before it are not
// rolled back. factory may be nil.
func (r *Registry) Run(ctx context.Context, factory ContextFactory) (*App, error) {
	r.mu.Lock()
	if r.frozen {
		r.mu.Unlock()
		return nil, ErrFrozen
	}
	r.frozen = true
	order := r.order()
	inits := make(map[string]module.Initializer, len(r.pending))
	for _, e := range r.pending {
		inits[e.cfg.Name] = e.init
	}
	r.mu.Unlock()

	if factory == nil {
		factory = r.defaultFactory
	}
	log := r.deps.Logger

	app := &App{
		Descriptors: make(map[string]*schema.Descriptor),
		I18n:        r.deps.I18n,
		Router:      r.deps.Router,
		Resources:   r.deps.Resources,
	}
	var routes []schema.RouteConfig
	names := map[string]string{}
	paths := map[string]string{}

	for _, cfg := range order {
		start := time.Now()

		mctx := factory(ctx, cfg)
		if err := runInit(inits[cfg.Name], mctx, r.deps.Router); err != nil {
			return app, &ModuleError{Module: cfg.Name, Err: err}
		}
		res, err := mctx.Build()
		if err != nil {
			return app, &ModuleError{Module: cfg.Name, Err: err}
		}

		if conflicts := detectConflicts(cfg.Name, res.Routes, names, paths); len(conflicts) > 0 {
			return app, &ModuleError{Module: cfg.Name, Err: &ConflictError{Conflicts: conflicts}}
		}

		if err := r.deps.Interceptor.Publish(res.Descriptor); err != nil {
			return app, &ModuleError{Module: cfg.Name, Err: err}
		}

		for _, data := range res.Locales {
			if _, err := r.deps.I18n.Add(cfg.Name, data); err != nil {
				return app, &ModuleError{Module: cfg.Name, Err: err}
			}
		}
		routes = append(routes, res.Routes...)
		app.Navbar = append(app.Navbar, res.Navbar...)
		app.Modules = append(app.Modules, cfg)
		app.Descriptors[cfg.Name] = res.Descriptor

		took := time.Since(start)
		log.Debug().
			Str("module", cfg.Name).
			Int("load_order", cfg.LoadOrder).
			Int("routes", len(res.Routes)).
			Dur("took", took).
			Msg("module loaded")
		if r.deps.Recorder != nil {
			r.deps.Recorder.ModuleLoaded(cfg.Name, took)
		}
	}

	for _, u := range r.deps.Interceptor.Unresolved() {
		log.Warn().
			Str("module", u.Module).
			Strs("subscribers", u.Subscribers).
			Msg(u.Error())
	}

	sort.SliceStable(app.Navbar, func(i, j int) bool {
		return app.Navbar[i].Order < app.Navbar[j].Order
	})

	r.deps.I18n.Freeze()
	app.Table = router.NewTable(routes)
	r.deps.Router.Mount(app.Table)
	if r.deps.Recorder != nil {
		r.deps.Recorder.RoutesRegistered(app.Table.Len())
	}

	log.Info().
		Int("modules", len(app.Modules)).
		Int("routes", app.Table.Len()).
		Int("navbar", len(app.Navbar)).
		Msg("modules composed")

	return app, nil
}

func (r *Registry) defaultFactory(ctx context.Context, cfg schema.ModuleConfig) *module.Context {
	return module.New(ctx, cfg, module.Services{
		Interceptor: r.deps.Interceptor,
		Resources:   r.deps.Resources,
		Logger:      r.deps.Logger,
		Recorder:    r.deps.BuilderRecorder,
	})
}

func runInit(init module.Initializer, ctx *module.Context, rt *router.Router) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("initializer panicked: %v", p)
		}
	}()
	return init(ctx, rt)
}

// detectConflicts checks routes against claims of earlier modules and among
// themselves, recording new claims when there is no conflict.
func detectConflicts(mod string, routes []schema.RouteConfig, names, paths map[string]string) []Conflict {
	var conflicts []Conflict
	seenNames := map[string]bool{}
	seenPaths := map[string]bool{}

	for _, rt := range routes {
		if owner, ok := names[rt.Name]; ok || seenNames[rt.Name] {
			if !ok {
				owner = mod
			}
			conflicts = append(conflicts, Conflict{Kind: "name", Key: rt.Name, Modules: []string{owner, mod}})
		}
		seenNames[rt.Name] = true

		if rt.Path == "" {
			continue
		}
		if owner, ok := paths[rt.Path]; ok || seenPaths[rt.Path] {
			if !ok {
				owner = mod
			}
			conflicts = append(conflicts, Conflict{Kind: "path", Key: rt.Path, Modules: []string{owner, mod}})
		}
		seenPaths[rt.Path] = true
	}

	if len(conflicts) == 0 {
		for _, rt := range routes {
			names[rt.Name] = mod
			if rt.Path != "" {
				paths[rt.Path] = mod
			}
		}
	}
	return conflicts
}
