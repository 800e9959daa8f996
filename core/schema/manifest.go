package schema

import (
	"fmt"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
)

// Manifest declares a module in YAML.
type Manifest struct {
	Name        string `yaml:"name"`
	RoutePrefix string `yaml:"route_prefix"`
	LoadOrder   int    `yaml:"load_order"`

	Crud []CrudSpec `yaml:"crud,omitempty"`
	Grid []GridSpec `yaml:"grid,omitempty"`

	Navbar  []NavbarEntry             `yaml:"navbar,omitempty"`
	Locales map[string]map[string]any `yaml:"locales,omitempty"`
}

// Config returns the module identity.
func (m Manifest) Config() ModuleConfig {
	return ModuleConfig{Name: m.Name, RoutePrefix: m.RoutePrefix, LoadOrder: m.LoadOrder}
}

// CrudSpec declares a CRUD bundle.
type CrudSpec struct {
	Title   string   `yaml:"title"`
	Base    string   `yaml:"base"`
	Service string   `yaml:"service"`
	With    []string `yaml:"with,omitempty"`

	// TitleField names the value used as the view page title.
	TitleField string `yaml:"title_field,omitempty"`

	// Permissions maps page kind (new, edit, view) to a permission. The
	// "delete" key enables deleting items.
	Permissions map[string]string `yaml:"permissions,omitempty"`

	ViewFields []FieldSpec `yaml:"view_fields,omitempty"`
	FormFields []FieldSpec `yaml:"form_fields,omitempty"`
}

// GridSpec declares a grid.
type GridSpec struct {
	Title     string         `yaml:"title"`
	Base      string         `yaml:"base"`
	Service   string         `yaml:"service"`
	With      []string       `yaml:"with,omitempty"`
	WithCount []string       `yaml:"with_count,omitempty"`
	Where     map[string]any `yaml:"where,omitempty"`

	Columns      []ColumnSpec  `yaml:"columns,omitempty"`
	Filters      []Filter      `yaml:"filters,omitempty"`
	FilterFields []FilterField `yaml:"filter_fields,omitempty"`
	Actions      []ActionSpec  `yaml:"actions,omitempty"`
	PageControls []ActionSpec  `yaml:"page_controls,omitempty"`
}

// RendererSpec references a renderer in a render.Catalog.
type RendererSpec struct {
	Name string      `yaml:"name"`
	Args render.Args `yaml:"args,omitempty"`
}

// FieldSpec declares a field.
type FieldSpec struct {
	Key          string        `yaml:"key"`
	Label        string        `yaml:"label,omitempty"`
	Type         FieldType     `yaml:"type,omitempty"`
	Required     bool          `yaml:"required,omitempty"`
	Placeholder  string        `yaml:"placeholder,omitempty"`
	Tooltip      string        `yaml:"tooltip,omitempty"`
	Options      []Option      `yaml:"options,omitempty"`
	Service      string        `yaml:"service,omitempty"`
	InitialValue any           `yaml:"initial_value,omitempty"`
	Default      any           `yaml:"default,omitempty"`
	DefaultUser  bool          `yaml:"default_user,omitempty"`
	Min          *float64      `yaml:"min,omitempty"`
	Max          *float64      `yaml:"max,omitempty"`
	Displayable  *bool         `yaml:"displayable,omitempty"`
	ShowWhen     string        `yaml:"show_when,omitempty"`
	Render       *RendererSpec `yaml:"render,omitempty"`
}

// Field compiles the spec, building its renderer from catalog.
func (s FieldSpec) Field(catalog *render.Catalog) (Field, error) {
	f := Field{
		Key:          s.Key,
		Label:        s.Label,
		Type:         s.Type,
		Required:     s.Required,
		Placeholder:  s.Placeholder,
		Tooltip:      s.Tooltip,
		Options:      s.Options,
		Service:      s.Service,
		InitialValue: s.InitialValue,
		Default:      s.Default,
		Min:          s.Min,
		Max:          s.Max,
		Displayable:  s.Displayable,
	}
	if s.DefaultUser {
		f.DefaultFunc = func(store authz.Store) any { return store.User().ID }
	}
	if s.ShowWhen != "" {
		key := s.ShowWhen
		f.DisplayPredicate = func(_ authz.Store, values resource.Item) bool {
			v, ok := resource.Lookup(values, key)
			return ok && render.Truthy(v)
		}
	}
	if s.Render != nil {
		r, err := catalog.Build(s.Render.Name, s.Render.Args)
		if err != nil {
			return Field{}, fmt.Errorf("field %q: %w", s.Key, err)
		}
		f.Renderer = r
	}
	return f, nil
}

// ColumnSpec declares a grid column.
type ColumnSpec struct {
	Key    string        `yaml:"key"`
	Title  string        `yaml:"title"`
	Render *RendererSpec `yaml:"render,omitempty"`
}

// Column compiles the spec.
func (s ColumnSpec) Column(catalog *render.Catalog) (Column, error) {
	c := Column{Key: s.Key, Title: s.Title}
	if s.Render != nil {
		r, err := catalog.Build(s.Render.Name, s.Render.Args)
		if err != nil {
			return Column{}, fmt.Errorf("column %q: %w", s.Key, err)
		}
		c.Renderer = r
	}
	return c, nil
}

// ConditionSpec declares a render condition. Empty means always.
type ConditionSpec struct {
	Never bool `yaml:"never,omitempty"`

	// Can requires a permission, scoped to the row's Scope value when set.
	Can   string `yaml:"can,omitempty"`
	Scope string `yaml:"scope,omitempty"`

	// AnyProject requires the permission in any scope instead.
	AnyProject bool `yaml:"any_project,omitempty"`

	// UnlessField rejects rows carrying the field.
	UnlessField string `yaml:"unless_field,omitempty"`
}

// Condition compiles the spec.
func (s ConditionSpec) Condition() Condition {
	var c Condition
	switch {
	case s.Never:
		return Never
	case s.Can == "":
		c = Always
	case s.AnyProject:
		c = CanInAnyProject(s.Can)
	case s.Scope != "":
		c = CanOnRow(s.Can, s.Scope)
	default:
		c = Can(s.Can)
	}
	if s.UnlessField != "" {
		c = Unless(s.UnlessField, c)
	}
	return c
}

// Action handler names usable in manifests.
const (
	HandlerView   = "view"
	HandlerEdit   = "edit"
	HandlerDelete = "delete"
	HandlerNew    = "new"
)

// ActionSpec declares a row action or page control.
type ActionSpec struct {
	Title      string        `yaml:"title"`
	Icon       string        `yaml:"icon,omitempty"`
	ActionType string        `yaml:"action_type,omitempty"`
	Type       string        `yaml:"type,omitempty"`
	Handler    string        `yaml:"handler"`
	Route      string        `yaml:"route,omitempty"`
	Condition  ConditionSpec `yaml:"condition,omitempty"`
}

// Action compiles the spec. newRoute is the route pushed by the "new"
// handler.
func (s ActionSpec) Action(newRoute string) (Action, error) {
	a := Action{
		Title:           s.Title,
		Icon:            s.Icon,
		ActionType:      s.ActionType,
		Type:            s.Type,
		RenderCondition: s.Condition.Condition(),
	}
	switch s.Handler {
	case HandlerView:
		a.OnClick = ViewHandler
	case HandlerEdit:
		a.OnClick = EditHandler
	case HandlerDelete:
		a.OnClick = DeleteHandler
	case HandlerNew:
		if newRoute == "" {
			return Action{}, fmt.Errorf("action %q: no crud bundle for new handler", s.Title)
		}
		a.OnClick = PushHandler(func() string { return newRoute })
	case "":
		if s.Route == "" {
			return Action{}, fmt.Errorf("action %q: handler or route is required", s.Title)
		}
		a.OnClick = PushHandler(func() string { return s.Route })
	default:
		return Action{}, fmt.Errorf("action %q: unknown handler %q", s.Title, s.Handler)
	}
	return a, nil
}
