package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/builder"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/router"
	"github.com/artpar/adminkit/core/schema"
	"github.com/artpar/adminkit/pkg/jsonapi"
)

const maxBodyBytes = 1 << 20

// errMethod rejects a write the addressed page does not accept.
var errMethod = errors.New("method not allowed")

// saveKind is the page kind each write method is served by: new pages
// create, edit pages update.
var saveKind = map[string]string{
	http.MethodPost: schema.KindNew,
	http.MethodPut:  schema.KindEdit,
}

// deletable checks that route's bundle allows deletion and that the
// current user holds its delete permission.
func deletable(r *http.Request, route schema.RouteConfig) error {
	perm := route.Meta.String(schema.MetaDeletePermission)
	if perm == "" {
		return fmt.Errorf("%w: %s does not delete items", errMethod, route.Name)
	}
	if !authz.FromContext(r.Context()).Can(perm) {
		return fmt.Errorf("%w: %s requires %s", router.ErrForbidden, route.Name, perm)
	}
	return nil
}

// handleItem returns an item with its visible fields rendered.
func (c *Channel) handleItem(w http.ResponseWriter, r *http.Request) {
	route, p, err := screen[*builder.Page](c, r)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	if p.Kind == schema.KindNew {
		jsonapi.WriteBadRequest(w, fmt.Sprintf("%s does not show items", route.Name))
		return
	}

	item, err := p.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeErr(w, r, err)
		return
	}

	env := c.env(r)
	page := renderPage(p, item, env)
	jsonapi.WriteResource(w, http.StatusOK, c.itemResource(route, p, item, authz.FromContext(r.Context())), jsonapi.Meta{
		"title":  page.Title,
		"kind":   page.Kind,
		"fields": page.Fields,
	})
}

// handleNew returns the initial values and the visible fields of a form.
func (c *Channel) handleNew(w http.ResponseWriter, r *http.Request) {
	route, p, err := screen[*builder.Page](c, r)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}

	initial := p.Initial()
	store := authz.FromContext(r.Context())
	jsonapi.WriteResource(w, http.StatusOK, jsonapi.NewResource(resourceType(route), "").Attrs(initial).Build(), jsonapi.Meta{
		"title":  c.env(r).Translate(p.Title),
		"kind":   p.Kind,
		"fields": p.VisibleFields(store, initial),
	})
}

// handleSave validates the submitted values and persists them once. POST
// on a new page creates; PUT on an edit page updates the addressed item.
func (c *Channel) handleSave(w http.ResponseWriter, r *http.Request) {
	route, p, err := screen[*builder.Page](c, r)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	if saveKind[r.Method] != p.Kind {
		c.writeErr(w, r, fmt.Errorf("%w: %s on %s page %s", errMethod, r.Method, p.Kind, route.Name))
		return
	}

	data, err := decodeItem(w, r)
	if err != nil {
		jsonapi.WriteBadRequest(w, err.Error())
		return
	}
	delete(data, "id")
	if id := chi.URLParam(r, "id"); id != "" {
		data["id"] = id
	}
	created := data.ID() == ""

	saved, err := p.Save(r.Context(), authz.FromContext(r.Context()), data)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}

	res := c.itemResource(route, p, saved, authz.FromContext(r.Context()))
	if created {
		location := ""
		if res.Links != nil {
			location = res.Links.Self
		}
		jsonapi.WriteCreated(w, res, location)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, res, nil)
}

// handleDelete removes one item, issuing exactly one DeleteItem call. The
// bundle must grant a delete permission the user holds.
func (c *Channel) handleDelete(w http.ResponseWriter, r *http.Request) {
	route, p, err := screen[*builder.Page](c, r)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	if err := deletable(r, route); err != nil {
		c.writeErr(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := p.Service().DeleteItem(r.Context(), id); err != nil {
		c.writeErr(w, r, fmt.Errorf("delete %s %s: %w", route.Name, id, err))
		return
	}
	jsonapi.WriteNoContent(w)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// handleBulkDelete removes many items when the bound service supports it.
func (c *Channel) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	route, p, err := screen[*builder.Page](c, r)
	if err != nil {
		c.writeErr(w, r, err)
		return
	}
	if err := deletable(r, route); err != nil {
		c.writeErr(w, r, err)
		return
	}
	bulk, ok := p.Service().(resource.BulkDeleter)
	if !ok {
		jsonapi.WriteError(w, jsonapi.ErrNotImplemented("bulk delete on "+route.Name))
		return
	}

	var req bulkDeleteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		jsonapi.WriteBadRequest(w, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		jsonapi.WriteBadRequest(w, "ids must not be empty")
		return
	}
	if err := bulk.BulkDelete(r.Context(), req.IDs); err != nil {
		c.writeErr(w, r, fmt.Errorf("bulk delete %s: %w", route.Name, err))
		return
	}
	jsonapi.WriteMeta(w, http.StatusOK, jsonapi.Meta{"deleted": len(req.IDs)})
}

// itemResource exposes the values of the fields visible for item. The self
// link points at the view page of the bundle.
func (c *Channel) itemResource(route schema.RouteConfig, p *builder.Page, item resource.Item, store authz.Store) jsonapi.Resource {
	b := jsonapi.NewResource(resourceType(route), item.ID())
	for _, f := range p.VisibleFields(store, item) {
		if v, ok := item[f.Key]; ok {
			b.Attr(f.Key, v)
		}
	}
	if item.ID() != "" {
		if path, err := c.app.Router.Resolve(viewRoute(route, p), map[string]string{"id": item.ID()}); err == nil {
			b.Link(path)
		}
	}
	return b.Build()
}

// viewRoute names the view page of p's bundle.
func viewRoute(route schema.RouteConfig, p *builder.Page) string {
	if nav, ok := route.Meta.Navigation(); ok && nav.View != "" {
		return nav.View
	}
	return strings.TrimSuffix(p.Route, "."+p.Kind) + "." + schema.KindView
}

// decodeItem reads a JSON:API resource document or a plain JSON object.
func decodeItem(w http.ResponseWriter, r *http.Request) (resource.Item, error) {
	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		return resource.Item(body), nil
	}
	item := resource.Item{}
	if attrs, ok := data["attributes"].(map[string]any); ok {
		for k, v := range attrs {
			item[k] = v
		}
	}
	if id, ok := data["id"]; ok && id != nil && id != "" {
		item["id"] = id
	}
	return item, nil
}
