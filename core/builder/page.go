package builder

import (
	"context"
	"fmt"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/schema"
)

// Page is the runtime of a compiled CRUD page.
type Page struct {
	Kind   string
	Route  string
	Title  string
	Fields []schema.Field

	title   schema.TitleCallback
	service resource.Service
	cfg     Config
}

// PrivateMeta keeps the page out of serialized route meta.
func (*Page) PrivateMeta() {}

// Service returns the bound resource service.
func (p *Page) Service() resource.Service { return p.service }

// Load fetches the item shown or edited by the page, eager-loading the
// bundle's relations when the service supports it.
func (p *Page) Load(ctx context.Context, id string) (resource.Item, error) {
	item, err := p.service.GetItem(ctx, id)
	p.cfg.recorder().ResourceCall(p.Route, "get", err)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", p.Route, id, err)
	}
	with, withCount := p.cfg.Options.With, p.cfg.Options.WithCount
	if loader, ok := p.service.(resource.RelationLoader); ok && len(with)+len(withCount) > 0 {
		if err := loader.LoadRelations(ctx, item, with, withCount); err != nil {
			return nil, fmt.Errorf("load %s %s relations: %w", p.Route, id, err)
		}
	}
	return item, nil
}

// ItemTitle labels the page for a loaded item. The title callback is
// consulted first; without one, or when it yields nothing, Title is used.
func (p *Page) ItemTitle(values resource.Item) string {
	if p.title != nil {
		if t := p.title(values); t != "" {
			return t
		}
	}
	return p.Title
}

// VisibleFields returns the fields shown for store and values.
func (p *Page) VisibleFields(store authz.Store, values resource.Item) []schema.Field {
	var out []schema.Field
	for _, f := range p.Fields {
		ok, err := f.Visible(store, values)
		if err != nil {
			p.cfg.Logger.Warn().Err(err).Str("route", p.Route).Str("key", f.Key).Msg("display predicate failed")
		}
		if ok {
			out = append(out, f)
		}
	}
	return out
}

// RenderedField is one field of a rendered item.
type RenderedField struct {
	Key   string      `json:"key"`
	Label string      `json:"label"`
	Node  render.Node `json:"node"`
}

// Render draws the visible fields of item.
func (p *Page) Render(item resource.Item, env render.Env) []RenderedField {
	env.Values = item
	fields := p.VisibleFields(env.Store(), item)
	out := make([]RenderedField, 0, len(fields))
	for _, f := range fields {
		out = append(out, RenderedField{
			Key:   f.Key,
			Label: env.Translate(f.Label),
			Node:  f.Render(env),
		})
	}
	return out
}

// Initial returns the pre-filled values of a new form.
func (p *Page) Initial() resource.Item {
	out := resource.Item{}
	for _, f := range p.Fields {
		if f.InitialValue != nil {
			out[f.Key] = f.InitialValue
		}
	}
	return out
}

// Prepare keeps the item id and the fields visible for store, applies
// defaults to absent ones and checks required ones. Other keys of data are
// dropped.
func (p *Page) Prepare(store authz.Store, data resource.Item) (resource.Item, error) {
	in := data.Clone()
	if in == nil {
		in = resource.Item{}
	}
	out := resource.Item{}
	if id, ok := in["id"]; ok {
		out["id"] = id
	}
	errs := map[string]string{}
	for _, f := range p.VisibleFields(store, in) {
		v, present := in[f.Key]
		if !present || v == nil || v == "" {
			if d := f.DefaultValue(store); d != nil {
				out[f.Key] = d
				continue
			}
			if f.Required {
				errs[f.Key] = "required"
			}
			if present {
				out[f.Key] = v
			}
			continue
		}
		if msg := checkRange(f, v); msg != "" {
			errs[f.Key] = msg
		}
		out[f.Key] = v
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return out, nil
}

func checkRange(f schema.Field, v any) string {
	if f.Min == nil && f.Max == nil {
		return ""
	}
	var n float64
	if _, err := fmt.Sscan(resource.ToString(v), &n); err != nil {
		return "must be a number"
	}
	if f.Min != nil && n < *f.Min {
		return fmt.Sprintf("must be at least %v", *f.Min)
	}
	if f.Max != nil && n > *f.Max {
		return fmt.Sprintf("must be at most %v", *f.Max)
	}
	return ""
}

// Save validates data and persists it through the service.
func (p *Page) Save(ctx context.Context, store authz.Store, data resource.Item) (resource.Item, error) {
	prepared, err := p.Prepare(store, data)
	if err != nil {
		return nil, err
	}
	saved, err := p.service.Save(ctx, prepared)
	p.cfg.recorder().ResourceCall(p.Route, "save", err)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", p.Route, err)
	}
	return saved, nil
}
