package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/schema"
)

// Router is the shared router handle given to module initializers. Its
// table is empty until the loader mounts the composed routes.
type Router struct {
	mu      sync.RWMutex
	table   *Table
	current schema.Location
	logger  zerolog.Logger
}

// New creates a router with an empty table.
func New(logger zerolog.Logger) *Router {
	return &Router{table: NewTable(nil), logger: logger}
}

// Mount installs the frozen table.
func (r *Router) Mount(t *Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table = t
}

// Table returns the mounted table.
func (r *Router) Table() *Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table
}

// Resolve builds the path of a named route.
func (r *Router) Resolve(name string, params map[string]string) (string, error) {
	return r.Table().Resolve(name, params)
}

// Enter runs the guard of the named route against the store attached to
// ctx: the route's permission must be held and its access check, if any,
// must pass.
func (r *Router) Enter(ctx context.Context, name string) (schema.RouteConfig, error) {
	route, ok := r.Table().Lookup(name)
	if !ok {
		return schema.RouteConfig{}, fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}
	if err := Guard(ctx, route, authz.FromContext(ctx)); err != nil {
		var pe *schema.PredicateError
		if errors.As(err, &pe) {
			r.logger.Warn().Err(err).Str("route", name).Msg("access check panicked")
		}
		return schema.RouteConfig{}, err
	}
	return route, nil
}

// Guard evaluates meta.permissions and meta.accessCheck of route. A
// panicking access check denies entry; the returned error wraps both
// ErrForbidden and a *schema.PredicateError.
func Guard(ctx context.Context, route schema.RouteConfig, store authz.Store) error {
	if p := route.Meta.Permissions(); p != "" && !store.Can(p) && !store.CanInAnyProject(p) {
		return fmt.Errorf("%w: %s requires %s", ErrForbidden, route.Name, p)
	}
	if check := route.Meta.AccessCheck(); check != nil {
		ok, err := runCheck(ctx, route.Name, check, store)
		var pe *schema.PredicateError
		if errors.As(err, &pe) {
			return fmt.Errorf("%w: %s: %w", ErrForbidden, route.Name, pe)
		}
		if err != nil {
			return fmt.Errorf("access check %s: %w", route.Name, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrForbidden, route.Name)
		}
	}
	return nil
}

func runCheck(ctx context.Context, name string, check schema.AccessCheck, store authz.Store) (ok bool, err error) {
	defer func() {
		if v := recover(); v != nil {
			ok, err = false, &schema.PredicateError{Name: name, Value: v}
		}
	}()
	return check(ctx, store)
}

// Push navigates to a location after resolving its path and running the
// route guard. The location is recorded on the History attached to ctx, or
// as the router's current location when there is none.
func (r *Router) Push(ctx context.Context, to schema.Location) error {
	route, err := r.Enter(ctx, to.Name)
	if err != nil {
		return err
	}
	if _, err := Fill(route.Path, to.Params); err != nil {
		return err
	}

	r.logger.Debug().Str("route", to.Name).Msg("navigate")

	if h := historyFrom(ctx); h != nil {
		h.push(to)
		return nil
	}
	r.mu.Lock()
	r.current = to
	r.mu.Unlock()
	return nil
}

// Current returns the last location pushed without a History.
func (r *Router) Current() schema.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// History collects the navigations of one request.
type History struct {
	mu        sync.Mutex
	locations []schema.Location
}

func (h *History) push(l schema.Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.locations = append(h.locations, l)
}

// Locations returns the recorded locations.
func (h *History) Locations() []schema.Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]schema.Location(nil), h.locations...)
}

// Last returns the most recent location.
func (h *History) Last() (schema.Location, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.locations) == 0 {
		return schema.Location{}, false
	}
	return h.locations[len(h.locations)-1], true
}

type historyKey struct{}

// WithHistory attaches a fresh History to ctx.
func WithHistory(ctx context.Context) (context.Context, *History) {
	h := &History{}
	return context.WithValue(ctx, historyKey{}, h), h
}

func historyFrom(ctx context.Context) *History {
	h, _ := ctx.Value(historyKey{}).(*History)
	return h
}
