package schema

import (
	"context"
	"reflect"
	"strings"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/resource"
)

// Well-known meta keys.
const (
	MetaPermissions   = "permissions"
	MetaNavigation    = "navigation"
	MetaTitleCallback = "titleCallback"
	MetaService       = "service"
	MetaLabel         = "label"
	MetaTitle         = "title"
	MetaAccessCheck   = "accessCheck"
	MetaScope         = "scope"
	MetaOrder         = "order"
	MetaFields        = "fields"

	// MetaDeletePermission is the permission needed to delete items
	// through the routes of a CRUD bundle. Without it they cannot delete.
	MetaDeletePermission = "deletePermission"

	// MetaScreen holds the compiled runtime of a CRUD page or grid.
	MetaScreen = "screen"
)

// TitleCallback labels a detail page from its loaded values.
type TitleCallback func(values resource.Item) string

// AccessCheck is evaluated lazily when a route is entered.
type AccessCheck func(ctx context.Context, store authz.Store) (bool, error)

// Private is implemented by meta values that must not leave the process.
type Private interface {
	PrivateMeta()
}

// Meta is the route metadata bag. It is mutable until the owning module
// publishes and read-only afterwards.
type Meta map[string]any

// Clone returns a shallow copy of m.
func (m Meta) Clone() Meta {
	if m == nil {
		return Meta{}
	}
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String returns a string-valued key.
func (m Meta) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Permissions returns the permission required to enter the route.
func (m Meta) Permissions() string {
	return m.String(MetaPermissions)
}

// Navigation returns the navigation bundle, if any.
func (m Meta) Navigation() (Navigation, bool) {
	n, ok := m[MetaNavigation].(Navigation)
	return n, ok
}

// TitleCallback returns the title callback, if any.
func (m Meta) TitleCallback() TitleCallback {
	switch fn := m[MetaTitleCallback].(type) {
	case TitleCallback:
		return fn
	case func(resource.Item) string:
		return fn
	}
	return nil
}

// AccessCheck returns the access check, if any.
func (m Meta) AccessCheck() AccessCheck {
	switch fn := m[MetaAccessCheck].(type) {
	case AccessCheck:
		return fn
	case func(context.Context, authz.Store) (bool, error):
		return fn
	}
	return nil
}

// Public returns the subset of m that can be serialized: functions and
// Private values are dropped.
func (m Meta) Public() Meta {
	out := make(Meta, len(m))
	for k, v := range m {
		if v == nil {
			continue
		}
		if _, ok := v.(Private); ok {
			continue
		}
		if reflect.TypeOf(v).Kind() == reflect.Func {
			continue
		}
		out[k] = v
	}
	return out
}

// RouteConfig is one entry of the route table handed to the router.
type RouteConfig struct {
	Name      string `json:"name" yaml:"name"`
	Path      string `json:"path" yaml:"path"`
	Component string `json:"component,omitempty" yaml:"component,omitempty"`
	Module    string `json:"module,omitempty" yaml:"module,omitempty"`
	Meta      Meta   `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Routes lets a single route be passed wherever a RouteSource is accepted.
func (r RouteConfig) Routes() []RouteConfig {
	return []RouteConfig{r}
}

// Clone returns a copy of r with its own meta map.
func (r RouteConfig) Clone() RouteConfig {
	r.Meta = r.Meta.Clone()
	return r
}

// Public returns a copy of r with only serializable meta.
func (r RouteConfig) Public() RouteConfig {
	r.Meta = r.Meta.Public()
	return r
}

// RouteSource produces routes: a single RouteConfig, a route list or a
// builder.
type RouteSource interface {
	Routes() []RouteConfig
}

// RouteList is a RouteSource over a slice.
type RouteList []RouteConfig

// Routes returns the list.
func (l RouteList) Routes() []RouteConfig {
	return l
}

// Navigation is the view/edit/new route-name triple of one CRUD bundle.
type Navigation struct {
	View string `json:"view" yaml:"view"`
	Edit string `json:"edit" yaml:"edit"`
	New  string `json:"new" yaml:"new"`
}

// NavbarEntry is one navigation-menu item.
type NavbarEntry struct {
	Label  string `json:"label" yaml:"label"`
	To     string `json:"to" yaml:"to"`
	Icon   string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Order  int    `json:"order,omitempty" yaml:"order,omitempty"`
	Module string `json:"module,omitempty" yaml:"module,omitempty"`
}

// ModuleConfig identifies a module and its position in the load order.
type ModuleConfig struct {
	Name        string `json:"name" yaml:"name"`
	RoutePrefix string `json:"route_prefix" yaml:"route_prefix"`
	LoadOrder   int    `json:"load_order" yaml:"load_order"`
}

// Page kinds of a CRUD bundle.
const (
	KindView = "view"
	KindNew  = "new"
	KindEdit = "edit"
)

// CrudNames returns the deterministic route names of the CRUD bundle for
// base under module.
func CrudNames(module, base string) Navigation {
	prefix := GridName(module, base)
	return Navigation{
		View: prefix + "." + KindView,
		Edit: prefix + "." + KindEdit,
		New:  prefix + "." + KindNew,
	}
}

// GridName returns the route name of the grid for base under module.
func GridName(module, base string) string {
	return module + ".crud." + base
}

// GridPath returns the path of the grid for base under routePrefix.
func GridPath(routePrefix, base string) string {
	return "/" + strings.Trim(routePrefix, "/") + "/crud/" + base
}

// CrudPath returns the path of a CRUD page.
func CrudPath(routePrefix, base, kind string) string {
	p := GridPath(routePrefix, base) + "/" + kind
	if kind != KindNew {
		p += "/:id"
	}
	return p
}

// Descriptor is the read-only summary of a loaded module published on the
// interceptor. Consumers receive copies of its routes.
type Descriptor struct {
	Name        string
	RoutePrefix string
	LoadOrder   int

	routes     []RouteConfig
	navigation map[string]Navigation
}

// NewDescriptor seals routes and navigation bundles for cfg.
func NewDescriptor(cfg ModuleConfig, routes []RouteConfig, navigation map[string]Navigation) *Descriptor {
	d := &Descriptor{
		Name:        cfg.Name,
		RoutePrefix: cfg.RoutePrefix,
		LoadOrder:   cfg.LoadOrder,
		routes:      make([]RouteConfig, len(routes)),
		navigation:  make(map[string]Navigation, len(navigation)),
	}
	for i, r := range routes {
		d.routes[i] = r.Clone()
	}
	for k, v := range navigation {
		d.navigation[k] = v
	}
	return d
}

// Routes returns copies of the module's routes.
func (d *Descriptor) Routes() []RouteConfig {
	out := make([]RouteConfig, len(d.routes))
	for i, r := range d.routes {
		out[i] = r.Clone()
	}
	return out
}

// Route returns the route with the given name.
func (d *Descriptor) Route(name string) (RouteConfig, bool) {
	for _, r := range d.routes {
		if r.Name == name {
			return r.Clone(), true
		}
	}
	return RouteConfig{}, false
}

// Navigation returns the CRUD bundle the module built for base.
func (d *Descriptor) Navigation(base string) (Navigation, bool) {
	n, ok := d.navigation[base]
	return n, ok
}

// Bundles returns the base names of every CRUD bundle, unsorted.
func (d *Descriptor) Bundles() map[string]Navigation {
	out := make(map[string]Navigation, len(d.navigation))
	for k, v := range d.navigation {
		out[k] = v
	}
	return out
}
