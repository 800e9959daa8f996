package schema

import (
	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/render"
	"github.com/artpar/adminkit/core/resource"
)

// FieldType is the input widget used on new/edit pages.
type FieldType string

const (
	FieldTypeText           FieldType = "text"
	FieldTypeInput          FieldType = "input"
	FieldTypeTextarea       FieldType = "textarea"
	FieldTypeCheckbox       FieldType = "checkbox"
	FieldTypeSelect         FieldType = "select"
	FieldTypeNumber         FieldType = "number"
	FieldTypeResourceSelect FieldType = "resource-select"
	FieldTypeRichText       FieldType = "rich-text"
	FieldTypeTimezone       FieldType = "timezone"
)

// Option is one choice of a select input.
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FieldOptions configures the input of a filter field or settings field.
type FieldOptions struct {
	Type        FieldType `json:"type,omitempty" yaml:"type,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []Option  `json:"options,omitempty" yaml:"options,omitempty"`

	// Service names the resource service backing a resource-select input.
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
}

// Field describes one field of a CRUD page.
type Field struct {
	Key      string    `json:"key" yaml:"key"`
	Label    string    `json:"label" yaml:"label"`
	Type     FieldType `json:"type" yaml:"type"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`

	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Tooltip     string   `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	Options     []Option `json:"options,omitempty" yaml:"options,omitempty"`

	// Service names the resource service backing a resource-select input.
	Service string `json:"service,omitempty" yaml:"service,omitempty"`

	// InitialValue pre-fills a new form.
	InitialValue any `json:"initialValue,omitempty" yaml:"initial_value,omitempty"`

	// Default is submitted when the value is absent. DefaultFunc, when set,
	// wins and is evaluated against the current authorization state.
	Default     any                        `json:"default,omitempty" yaml:"default,omitempty"`
	DefaultFunc func(store authz.Store) any `json:"-" yaml:"-"`

	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Displayable set to false hides the field unconditionally.
	Displayable *bool `json:"displayable,omitempty" yaml:"displayable,omitempty"`

	// DisplayPredicate gates the field on the ambient state.
	DisplayPredicate func(store authz.Store, values resource.Item) bool `json:"-" yaml:"-"`

	// Renderer draws the value on view pages; nil means plain text.
	Renderer render.Renderer `json:"-" yaml:"-"`
}

// Hidden returns a Displayable value of false.
func Hidden() *bool {
	f := false
	return &f
}

// Visible reports whether the field appears for store and values.
func (f Field) Visible(store authz.Store, values resource.Item) (bool, error) {
	if f.Displayable != nil && !*f.Displayable {
		return false, nil
	}
	if f.DisplayPredicate == nil {
		return true, nil
	}
	return Eval("field "+f.Key, func() bool { return f.DisplayPredicate(store, values) })
}

// DefaultValue returns the value to submit when the field is absent.
func (f Field) DefaultValue(store authz.Store) any {
	if f.DefaultFunc != nil {
		return f.DefaultFunc(store)
	}
	return f.Default
}

// Render draws the field's value out of env.Values.
func (f Field) Render(env render.Env) render.Node {
	v, _ := resource.Lookup(env.Values, f.Key)
	return render.Or(f.Renderer).Render(v, env)
}

// Column describes one grid column.
type Column struct {
	Key      string          `json:"key" yaml:"key"`
	Title    string          `json:"title" yaml:"title"`
	Renderer render.Renderer `json:"-" yaml:"-"`
}

// Render draws the column for row.
func (c Column) Render(row resource.Item, env render.Env) render.Node {
	env.Values = row
	v, _ := resource.Lookup(row, c.Key)
	return render.Or(c.Renderer).Render(v, env)
}

// Filter declares a free-text search field. ReferenceKey may be a dotted
// path into a related entity, e.g. "project.name".
type Filter struct {
	ReferenceKey string `json:"referenceKey" yaml:"reference_key"`
	FilterName   string `json:"filterName" yaml:"filter_name"`
}

// FilterField declares a structured filter input. Fields with SaveToQuery
// round-trip through the URL query string. Default applies while neither
// the UI nor the saved query sets the field.
type FilterField struct {
	Key          string       `json:"key" yaml:"key"`
	Label        string       `json:"label" yaml:"label"`
	Placeholder  string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	FieldOptions FieldOptions `json:"fieldOptions" yaml:"field_options"`
	SaveToQuery  bool         `json:"saveToQuery,omitempty" yaml:"save_to_query,omitempty"`
	Default      string       `json:"default,omitempty" yaml:"default,omitempty"`
}
