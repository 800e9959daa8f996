package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/builder"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/router"
	"github.com/artpar/adminkit/core/schema"
	"github.com/artpar/adminkit/pkg/jsonapi"
)

// errNoScreen is returned when a route has no runtime of the wanted kind.
var errNoScreen = errors.New("route has no such screen")

// screen resolves the named route, runs its guard and returns its runtime.
func screen[T any](c *Channel, r *http.Request) (schema.RouteConfig, T, error) {
	var zero T
	name := chi.URLParam(r, "route")
	route, ok := c.app.Table.Lookup(name)
	if !ok {
		return route, zero, fmt.Errorf("%w: %s", router.ErrRouteNotFound, name)
	}
	if err := router.Guard(r.Context(), route, authz.FromContext(r.Context())); err != nil {
		return route, zero, err
	}
	s, ok := route.Meta[schema.MetaScreen].(T)
	if !ok {
		return route, zero, fmt.Errorf("%w: %s: %w", router.ErrRouteNotFound, name, errNoScreen)
	}
	return route, s, nil
}

// handleGrid composes the grid filters from the query string, lists the
// resource once and returns the rendered rows.
func (c *Channel) handleGrid(w http.ResponseWriter, r *http.Request) {
	route, g, err := screen[*builder.Grid](c, r)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}

	values := r.URL.Query()
	q := g.FromURL(values)
	if page, perPage := jsonapi.ParsePaginationParams(values); page > 0 || perPage > 0 {
		if page > 0 {
			q.Page = page
		}
		if perPage > 0 {
			q.PerPage = perPage
		}
	}

	page, err := g.Fetch(r.Context(), g.Compose(q, values))
	if err != nil {
		c.writeErr(w, r, err)
		return
	}

	env := c.env(r)
	rows := g.Render(page.Items, env)
	data := make([]jsonapi.Resource, 0, len(rows))
	for _, row := range rows {
		b := jsonapi.NewResource(resourceType(route), row.ID).
			Attrs(row.Item).
			Meta("cells", row.Cells).
			Meta("actions", row.Actions)
		if g.Navigation.View != "" && row.ID != "" {
			if path, err := c.app.Router.Resolve(g.Navigation.View, map[string]string{"id": row.ID}); err == nil {
				b.Link(path)
			}
		}
		data = append(data, b.Build())
	}

	doc := jsonapi.NewDocument().
		DataCollection(data).
		Pagination(jsonapi.NewPagination(page.Total, page.Page, page.PerPage, r.URL.String())).
		Meta("title", env.Translate(g.Title)).
		Meta("route", g.Route).
		Meta("columns", g.Columns).
		Meta("filters", g.Filters).
		Meta("filterFields", g.FilterFields).
		Meta("controls", g.Controls(env)).
		Meta("query", g.SaveToQuery(q).Encode())
	if g.Navigation != (schema.Navigation{}) {
		doc.Meta("navigation", g.Navigation)
	}
	jsonapi.WriteDocument(w, http.StatusOK, doc.Build())
}

// handleGridAction dispatches one row action for the item with the given id.
func (c *Channel) handleGridAction(w http.ResponseWriter, r *http.Request) {
	_, g, err := screen[*builder.Grid](c, r)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonapi.WriteBadRequest(w, "action index must be a number")
		return
	}

	row, err := g.Service().GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeErr(w, r, err)
		return
	}

	ctx, history := router.WithHistory(r.Context())
	if err := g.Dispatch(ctx, c.app.Router, i, row); err != nil {
		c.writeErr(w, r, err)
		return
	}
	c.writeDispatched(w, history)
}

// handleGridControl dispatches one page control.
func (c *Channel) handleGridControl(w http.ResponseWriter, r *http.Request) {
	_, g, err := screen[*builder.Grid](c, r)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonapi.WriteBadRequest(w, "control index must be a number")
		return
	}

	ctx, history := router.WithHistory(r.Context())
	if err := g.DispatchControl(ctx, c.app.Router, i); err != nil {
		c.writeErr(w, r, err)
		return
	}
	c.writeDispatched(w, history)
}

// writeDispatched reports where an action navigated, if anywhere.
func (c *Channel) writeDispatched(w http.ResponseWriter, history *router.History) {
	meta := jsonapi.Meta{"dispatched": true}
	if loc, ok := history.Last(); ok {
		meta["location"] = loc
		if path, err := c.app.Router.Resolve(loc.Name, loc.Params); err == nil {
			meta["path"] = path
		}
	}
	jsonapi.WriteMeta(w, http.StatusOK, meta)
}

// resourceType names the JSON:API type of a route's items: the bound
// service name when known, the route name otherwise.
func resourceType(route schema.RouteConfig) string {
	if s := route.Meta.String(schema.MetaService); s != "" {
		return s
	}
	return route.Name
}

// rendered is the payload of a CRUD page.
type rendered struct {
	Title  string                  `json:"title"`
	Kind   string                  `json:"kind"`
	Fields []builder.RenderedField `json:"fields"`
}

func renderPage(p *builder.Page, item resource.Item, env render.Env) rendered {
	return rendered{
		Title:  p.ItemTitle(item),
		Kind:   p.Kind,
		Fields: p.Render(item, env),
	}
}
