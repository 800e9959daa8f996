package module

import (
	"sync"

	"github.com/artpar/adminkit/core/schema"
)

// RouteRef is the name of a route owned by another module. It is empty
// until that module publishes its descriptor, and when the bundle is absent.
type RouteRef struct {
	mu   sync.RWMutex
	name string
}

// Name returns the resolved route name.
func (r *RouteRef) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

// Resolved reports whether the route name is known.
func (r *RouteRef) Resolved() bool {
	return r.Name() != ""
}

func (r *RouteRef) set(name string) {
	r.mu.Lock()
	r.name = name
	r.mu.Unlock()
}

// RouteRef subscribes to module and resolves the kind page (view, edit or
// new) of its CRUD bundle for base. An empty kind resolves the grid.
func (c *Context) RouteRef(module, base, kind string) *RouteRef {
	ref := &RouteRef{}
	c.Subscribe(module, func(d *schema.Descriptor) {
		nav, ok := d.Navigation(base)
		if !ok {
			c.logger.Warn().Str("target", module).Str("bundle", base).Msg("referenced bundle not published")
			return
		}
		switch kind {
		case schema.KindView:
			ref.set(nav.View)
		case schema.KindEdit:
			ref.set(nav.Edit)
		case schema.KindNew:
			ref.set(nav.New)
		default:
			ref.set(schema.GridName(d.Name, base))
		}
	})
	return ref
}
