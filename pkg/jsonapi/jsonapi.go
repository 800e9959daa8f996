// Package jsonapi shapes HTTP channel responses as JSON:API documents
// (https://jsonapi.org). Grid rows, CRUD items and route listings are all
// resources; screen descriptions travel in top-level meta.
package jsonapi

// ContentType is the JSON:API media type.
const ContentType = "application/vnd.api+json"

// Meta is free-form metadata attached to a document, resource or error.
type Meta map[string]any

// Document is a top-level response body. At least one of data, errors or
// meta is set.
type Document struct {
	Data   any     `json:"data,omitempty"`
	Errors []Error `json:"errors,omitempty"`
	Meta   Meta    `json:"meta,omitempty"`
	Links  *Links  `json:"links,omitempty"`
}

// Resource is one row or item.
type Resource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Links      *ResourceLinks `json:"links,omitempty"`
	Meta       Meta           `json:"meta,omitempty"`
}

// ResourceLinks points a resource at its own view.
type ResourceLinks struct {
	Self string `json:"self,omitempty"`
}

// Links are the paging links of a collection.
type Links struct {
	Self  string `json:"self,omitempty"`
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
}

// DocumentBuilder assembles a Document.
type DocumentBuilder struct {
	doc Document
}

func NewDocument() *DocumentBuilder {
	return &DocumentBuilder{}
}

// Data sets a single resource or any other value as primary data.
func (b *DocumentBuilder) Data(data any) *DocumentBuilder {
	b.doc.Data = data
	return b
}

// DataCollection sets primary data to a list. A nil list encodes as [].
func (b *DocumentBuilder) DataCollection(resources []Resource) *DocumentBuilder {
	if resources == nil {
		resources = []Resource{}
	}
	b.doc.Data = resources
	return b
}

func (b *DocumentBuilder) Errors(errs ...Error) *DocumentBuilder {
	b.doc.Errors = append(b.doc.Errors, errs...)
	return b
}

func (b *DocumentBuilder) Meta(key string, value any) *DocumentBuilder {
	if b.doc.Meta == nil {
		b.doc.Meta = Meta{}
	}
	b.doc.Meta[key] = value
	return b
}

func (b *DocumentBuilder) MetaAll(meta Meta) *DocumentBuilder {
	for k, v := range meta {
		b.Meta(k, v)
	}
	return b
}

// Pagination stores the page counters under meta.pagination and, when the
// request URL is known, the paging links.
func (b *DocumentBuilder) Pagination(p *Pagination) *DocumentBuilder {
	if p == nil {
		return b
	}
	if links := p.Links(); links.Self != "" {
		b.doc.Links = links
	}
	return b.Meta("pagination", p.Meta())
}

func (b *DocumentBuilder) Build() Document {
	return b.doc
}

// ResourceBuilder assembles a Resource.
type ResourceBuilder struct {
	res Resource
}

func NewResource(typ, id string) *ResourceBuilder {
	return &ResourceBuilder{res: Resource{Type: typ, ID: id, Attributes: map[string]any{}}}
}

func (b *ResourceBuilder) Attr(key string, value any) *ResourceBuilder {
	b.res.Attributes[key] = value
	return b
}

// Attrs copies a record into the attributes. The id and type keys belong
// to the resource itself and are skipped.
func (b *ResourceBuilder) Attrs(record map[string]any) *ResourceBuilder {
	for k, v := range record {
		if k != "id" && k != "type" {
			b.res.Attributes[k] = v
		}
	}
	return b
}

func (b *ResourceBuilder) Meta(key string, value any) *ResourceBuilder {
	if b.res.Meta == nil {
		b.res.Meta = Meta{}
	}
	b.res.Meta[key] = value
	return b
}

// Link sets the self link. Empty paths are ignored so rows without a view
// route carry no links object.
func (b *ResourceBuilder) Link(self string) *ResourceBuilder {
	if self != "" {
		b.res.Links = &ResourceLinks{Self: self}
	}
	return b
}

func (b *ResourceBuilder) Build() Resource {
	return b.res
}
