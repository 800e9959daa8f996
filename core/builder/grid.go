package builder

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/schema"
)

// GridBuilder builds the list route of one resource.
type GridBuilder struct {
	cfg   Config
	title string
	base  string
	route *schema.RouteConfig

	columns      []schema.Column
	filters      []schema.Filter
	filterFields []schema.FilterField
	actions      []schema.Action
	pageControls []schema.Action
}

// NewGrid creates the grid builder for base.
func NewGrid(cfg Config, title, base string) *GridBuilder {
	return &GridBuilder{
		cfg:   cfg,
		title: title,
		base:  base,
		route: &schema.RouteConfig{
			Name:      schema.GridName(cfg.Module.Name, base),
			Path:      schema.GridPath(cfg.Module.RoutePrefix, base),
			Component: "Grid",
			Module:    cfg.Module.Name,
			Meta: schema.Meta{
				schema.MetaTitle:   title,
				schema.MetaService: cfg.ServiceName,
			},
		},
	}
}

// AddColumn appends columns.
func (b *GridBuilder) AddColumn(columns ...schema.Column) *GridBuilder {
	b.columns = append(b.columns, columns...)
	return b
}

// AddFilter appends free-text search fields.
func (b *GridBuilder) AddFilter(filters ...schema.Filter) *GridBuilder {
	b.filters = append(b.filters, filters...)
	return b
}

// AddFilterField appends structured filter inputs. A field keyed like a
// static filter of the grid never changes that filter.
func (b *GridBuilder) AddFilterField(fields ...schema.FilterField) *GridBuilder {
	static := b.cfg.Options.Static
	for _, ff := range fields {
		if _, ok := static[ff.Key]; ok {
			b.cfg.Logger.Warn().
				Str("route", b.route.Name).
				Str("key", ff.Key).
				Msg("filter field shadowed by static filter")
		}
	}
	b.filterFields = append(b.filterFields, fields...)
	return b
}

// AddAction appends per-row actions.
func (b *GridBuilder) AddAction(actions ...schema.Action) *GridBuilder {
	b.actions = append(b.actions, actions...)
	return b
}

// AddPageControls appends page-level controls.
func (b *GridBuilder) AddPageControls(controls ...schema.Action) *GridBuilder {
	b.pageControls = append(b.pageControls, controls...)
	return b
}

// AddToMetaProperties sets a meta key on targets, or on the grid route when
// no target is given.
func (b *GridBuilder) AddToMetaProperties(key string, value any, targets ...*schema.RouteConfig) *GridBuilder {
	setMeta(b.route, key, value, targets)
	return b
}

// RouterConfig returns the live route config.
func (b *GridBuilder) RouterConfig() *schema.RouteConfig {
	return b.route
}

// RouteName returns the grid route name.
func (b *GridBuilder) RouteName() string {
	return b.route.Name
}

// Routes compiles the grid route.
func (b *GridBuilder) Routes() []schema.RouteConfig {
	r := b.route.Clone()
	r.Meta[schema.MetaScreen] = b.Grid()
	return []schema.RouteConfig{r}
}

// Grid compiles the runtime from the descriptors added so far.
func (b *GridBuilder) Grid() *Grid {
	nav, _ := b.route.Meta.Navigation()
	return &Grid{
		Route:        b.route.Name,
		Title:        b.title,
		Columns:      append([]schema.Column(nil), b.columns...),
		Filters:      append([]schema.Filter(nil), b.filters...),
		FilterFields: append([]schema.FilterField(nil), b.filterFields...),
		Actions:      append([]schema.Action(nil), b.actions...),
		PageControls: append([]schema.Action(nil), b.pageControls...),
		Navigation:   nav,
		cfg:          b.cfg,
	}
}

// Grid is the runtime of a compiled grid route.
type Grid struct {
	Route        string
	Title        string
	Columns      []schema.Column
	Filters      []schema.Filter
	FilterFields []schema.FilterField
	Actions      []schema.Action
	PageControls []schema.Action
	Navigation   schema.Navigation

	cfg Config
}

// PrivateMeta keeps the grid out of serialized route meta.
func (*Grid) PrivateMeta() {}

// Service returns the bound resource service.
func (g *Grid) Service() resource.Service { return g.cfg.Service }

// Query is the state of the grid's filter inputs.
type Query struct {
	Search  string
	Values  map[string]string
	Page    int
	PerPage int
}

// Query string parameter names.
const (
	ParamSearch  = "search"
	ParamPage    = "page"
	ParamPerPage = "perPage"
)

// Compose builds the single filter object passed to GetAll. Static options
// always hold. Each filter field takes the UI value, else the saved query
// value, else its default; an empty value means "any" and adds no condition.
func (g *Grid) Compose(q Query, saved url.Values) resource.Filters {
	f := g.cfg.Options.Filters()
	static := g.cfg.Options.Static

	for _, ff := range g.FilterFields {
		if _, ok := static[ff.Key]; ok {
			continue
		}
		value := ff.Default
		if v, ok := saved[ff.Key]; ok && len(v) > 0 && ff.SaveToQuery {
			value = v[0]
		}
		if v, ok := q.Values[ff.Key]; ok {
			value = v
		}
		if value != "" {
			f[ff.Key] = value
		}
	}

	if s := strings.TrimSpace(q.Search); s != "" && len(g.Filters) > 0 {
		fields := make([]string, len(g.Filters))
		for i, flt := range g.Filters {
			fields[i] = flt.ReferenceKey
		}
		f[resource.KeySearch] = resource.Search{Query: s, Fields: fields}
	}
	if q.Page > 0 {
		f[resource.KeyPage] = q.Page
	}
	if q.PerPage > 0 {
		f[resource.KeyPerPage] = q.PerPage
	}
	return f
}

// SaveToQuery returns the URL query persisting q: the search text, the page
// and every saveToQuery field with a value.
func (g *Grid) SaveToQuery(q Query) url.Values {
	v := url.Values{}
	for _, ff := range g.FilterFields {
		if !ff.SaveToQuery {
			continue
		}
		if val := q.Values[ff.Key]; val != "" {
			v.Set(ff.Key, val)
		}
	}
	if q.Search != "" {
		v.Set(ParamSearch, q.Search)
	}
	if q.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set(ParamPerPage, strconv.Itoa(q.PerPage))
	}
	return v
}

// FromURL reconstructs a Query from a URL query string. Only declared filter
// fields are read.
func (g *Grid) FromURL(v url.Values) Query {
	q := Query{Search: v.Get(ParamSearch), Values: map[string]string{}}
	q.Page, _ = strconv.Atoi(v.Get(ParamPage))
	q.PerPage, _ = strconv.Atoi(v.Get(ParamPerPage))
	for _, ff := range g.FilterFields {
		if vals, ok := v[ff.Key]; ok && len(vals) > 0 {
			q.Values[ff.Key] = vals[0]
		}
	}
	return q
}

// Fetch issues exactly one list request.
func (g *Grid) Fetch(ctx context.Context, filters resource.Filters) (resource.Page, error) {
	page, err := g.cfg.Service.GetAll(ctx, filters)
	g.cfg.recorder().GridRequest(g.Route, err)
	if err != nil {
		return resource.Page{}, fmt.Errorf("list %s: %w", g.Route, err)
	}
	return page, nil
}

// VisibleActions returns the indexes of the row actions exposed for row.
// Conditions are evaluated on every call.
func (g *Grid) VisibleActions(store authz.Store, row resource.Item) []int {
	return g.visible(g.Actions, store, row)
}

// VisiblePageControls returns the indexes of the exposed page controls.
func (g *Grid) VisiblePageControls(store authz.Store) []int {
	return g.visible(g.PageControls, store, nil)
}

func (g *Grid) visible(actions []schema.Action, store authz.Store, row resource.Item) []int {
	var out []int
	for i, a := range actions {
		ok, err := a.Visible(store, row)
		if err != nil {
			g.cfg.Logger.Warn().Err(err).Str("route", g.Route).Msg("render condition failed")
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// ActionRef is an exposed action in a rendered row.
type ActionRef struct {
	Index      int    `json:"index"`
	Title      string `json:"title"`
	Icon       string `json:"icon,omitempty"`
	ActionType string `json:"actionType,omitempty"`
	Type       string `json:"type,omitempty"`
}

// Cell is one rendered column.
type Cell struct {
	Key  string      `json:"key"`
	Node render.Node `json:"node"`
}

// Row is one rendered grid row.
type Row struct {
	ID      string        `json:"id"`
	Item    resource.Item `json:"item"`
	Cells   []Cell        `json:"cells"`
	Actions []ActionRef   `json:"actions"`
}

// Render draws the columns and visible actions of every row.
func (g *Grid) Render(items []resource.Item, env render.Env) []Row {
	store := env.Store()
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row := Row{ID: item.ID(), Item: item}
		for _, c := range g.Columns {
			row.Cells = append(row.Cells, Cell{Key: c.Key, Node: c.Render(item, env)})
		}
		row.Actions = g.refs(g.Actions, g.VisibleActions(store, item), env)
		rows = append(rows, row)
	}
	return rows
}

// Controls returns the exposed page controls.
func (g *Grid) Controls(env render.Env) []ActionRef {
	return g.refs(g.PageControls, g.VisiblePageControls(env.Store()), env)
}

func (g *Grid) refs(actions []schema.Action, idx []int, env render.Env) []ActionRef {
	out := make([]ActionRef, 0, len(idx))
	for _, i := range idx {
		a := actions[i]
		out = append(out, ActionRef{
			Index:      i,
			Title:      env.Translate(a.Title),
			Icon:       a.Icon,
			ActionType: a.ActionType,
			Type:       a.Type,
		})
	}
	return out
}

// Dispatch runs row action i once for row. The action's render condition is
// checked against the store attached to ctx first.
func (g *Grid) Dispatch(ctx context.Context, nav schema.Navigator, i int, row resource.Item) error {
	return g.dispatch(ctx, nav, g.Actions, i, row)
}

// DispatchControl runs page control i once.
func (g *Grid) DispatchControl(ctx context.Context, nav schema.Navigator, i int) error {
	return g.dispatch(ctx, nav, g.PageControls, i, nil)
}

func (g *Grid) dispatch(ctx context.Context, nav schema.Navigator, actions []schema.Action, i int, row resource.Item) error {
	if i < 0 || i >= len(actions) {
		return fmt.Errorf("%w: %d", ErrNoAction, i)
	}
	a := actions[i]
	ok, err := a.Visible(authz.FromContext(ctx), row)
	if err != nil {
		g.cfg.Logger.Warn().Err(err).Str("route", g.Route).Msg("render condition failed")
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrActionHidden, a.Title)
	}
	if a.OnClick == nil {
		return nil
	}
	return a.OnClick(ctx, nav, row, &actionContext{grid: g, nav: nav})
}

type actionContext struct {
	grid *Grid
	nav  schema.Navigator
}

func (c *actionContext) OnView(ctx context.Context, item resource.Item) error {
	return c.push(ctx, c.grid.Navigation.View, item)
}

func (c *actionContext) OnEdit(ctx context.Context, item resource.Item) error {
	return c.push(ctx, c.grid.Navigation.Edit, item)
}

func (c *actionContext) push(ctx context.Context, route string, item resource.Item) error {
	if route == "" {
		return fmt.Errorf("grid %s has no navigation bundle", c.grid.Route)
	}
	return c.nav.Push(ctx, schema.Location{Name: route, Params: map[string]string{"id": item.ID()}})
}

func (c *actionContext) OnDelete(ctx context.Context, item resource.Item) error {
	err := c.grid.cfg.Service.DeleteItem(ctx, item.ID())
	c.grid.cfg.recorder().ResourceCall(c.grid.Route, "delete", err)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", c.grid.Route, item.ID(), err)
	}
	return nil
}
