package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/router"
	"github.com/artpar/adminkit/pkg/jsonapi"
)

func (c *Channel) handleRoutes(w http.ResponseWriter, r *http.Request) {
	module := r.URL.Query().Get("module")
	routes := c.app.Routes()
	out := make([]jsonapi.Resource, 0, len(routes))
	for _, route := range routes {
		if module != "" && route.Module != module {
			continue
		}
		route = route.Public()
		b := jsonapi.NewResource("route", route.Name).
			Attr("path", route.Path).
			Attr("component", route.Component).
			Attr("module", route.Module)
		if len(route.Meta) > 0 {
			b.Attr("meta", route.Meta)
		}
		out = append(out, b.Build())
	}
	jsonapi.WriteDocument(w, http.StatusOK, jsonapi.NewDocument().
		DataCollection(out).
		Meta("count", len(out)).
		Build())
}

// handleNavbar lists the navbar entries whose target route the current user
// may enter.
func (c *Channel) handleNavbar(w http.ResponseWriter, r *http.Request) {
	store := authz.FromContext(r.Context())
	env := c.env(r)

	out := make([]jsonapi.Resource, 0, len(c.app.Navbar))
	for _, e := range c.app.Navbar {
		b := jsonapi.NewResource("navbar", e.To).
			Attr("label", e.Label).
			Attr("title", env.Translate(e.Label)).
			Attr("to", e.To).
			Attr("icon", e.Icon).
			Attr("order", e.Order).
			Attr("module", e.Module)

		if route, ok := c.app.Table.Lookup(e.To); ok {
			if err := router.Guard(r.Context(), route, store); err != nil {
				continue
			}
			if path, err := c.app.Table.Resolve(e.To, nil); err == nil {
				b.Link(path)
			}
		}
		out = append(out, b.Build())
	}
	jsonapi.WriteCollection(w, http.StatusOK, out, nil)
}

func (c *Channel) handleLocales(w http.ResponseWriter, r *http.Request) {
	jsonapi.WriteMeta(w, http.StatusOK, jsonapi.Meta{
		"locales": c.app.I18n.Locales(),
		"current": c.locale(r),
	})
}

// handleLocale returns the merged table of the locale best matching the
// requested one. The prefix query parameter limits keys to one subtree.
func (c *Channel) handleLocale(w http.ResponseWriter, r *http.Request) {
	locale, table := c.app.I18n.Table(chi.URLParam(r, "locale"))

	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		for k := range table {
			if k != prefix && !strings.HasPrefix(k, prefix+".") {
				delete(table, k)
			}
		}
	}

	jsonapi.WriteMeta(w, http.StatusOK, jsonapi.Meta{
		"locale":   locale,
		"messages": table,
	})
}
