// Package render turns field and column values into renderable nodes.
//
// A Renderer is a strategy object attached to a field or column descriptor.
// It receives the current value and a read-only Env and returns a Node; it
// never mutates the Env. Descriptors without a renderer use Plain.
package render

import (
	"encoding/json"
	"html"
	"strings"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/resource"
)

// Node is a renderable element. A node with an empty Tag is a text node.
type Node struct {
	Tag      string            `json:"tag,omitempty" yaml:"tag,omitempty"`
	Text     string            `json:"text,omitempty" yaml:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Children []Node            `json:"children,omitempty" yaml:"children,omitempty"`

	// HTML is sanitized markup rendered verbatim inside Tag.
	HTML string `json:"html,omitempty" yaml:"html,omitempty"`
}

// Empty is the node rendered for absent values.
var Empty = Node{}

// IsEmpty reports whether n renders nothing.
func (n Node) IsEmpty() bool {
	return n.Tag == "" && n.Text == "" && n.HTML == "" && len(n.Children) == 0
}

// Span wraps text in a span element.
func Span(text string) Node {
	return Node{Tag: "span", Text: text}
}

// PlainText returns the concatenated text content of n.
func (n Node) PlainText() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n Node) writeText(b *strings.Builder) {
	b.WriteString(n.Text)
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// String renders n as HTML.
func (n Node) String() string {
	var b strings.Builder
	n.writeHTML(&b)
	return b.String()
}

func (n Node) writeHTML(b *strings.Builder) {
	if n.Tag == "" {
		b.WriteString(html.EscapeString(n.Text))
		for _, c := range n.Children {
			c.writeHTML(b)
		}
		return
	}
	b.WriteString("<")
	b.WriteString(n.Tag)
	for _, k := range sortedKeys(n.Attrs) {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(n.Attrs[k]))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.WriteString(html.EscapeString(n.Text))
	b.WriteString(n.HTML)
	for _, c := range n.Children {
		c.writeHTML(b)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteString(">")
}

// Translator looks up localized strings.
type Translator interface {
	T(locale, key string) string
	TC(locale, key string, n int) string
}

// LinkResolver turns a route name and params into a path.
type LinkResolver interface {
	Resolve(name string, params map[string]string) (string, error)
}

// Env is the ambient read-only context handed to renderers.
type Env struct {
	Locale   string
	Timezone string

	// Authz is the current authorization snapshot.
	Authz authz.Store

	// Values holds the sibling values of the item being rendered.
	Values resource.Item

	T     Translator
	Links LinkResolver
}

// Translate looks key up in the active locale, returning key itself when no
// translator is configured.
func (e Env) Translate(key string) string {
	if e.T == nil {
		return key
	}
	return e.T.T(e.Locale, key)
}

// TranslateCount is Translate with pluralization.
func (e Env) TranslateCount(key string, n int) string {
	if e.T == nil {
		return key
	}
	return e.T.TC(e.Locale, key, n)
}

// Store returns the authorization snapshot, never nil.
func (e Env) Store() authz.Store {
	if e.Authz == nil {
		return authz.Anonymous
	}
	return e.Authz
}

// Renderer renders one value.
type Renderer interface {
	Render(value any, env Env) Node
}

// Func adapts a function to Renderer.
type Func func(value any, env Env) Node

// Render calls f.
func (f Func) Render(value any, env Env) Node {
	return f(value, env)
}

// Plain renders the value as text.
var Plain Renderer = Func(func(value any, _ Env) Node {
	if value == nil {
		return Empty
	}
	switch v := value.(type) {
	case map[string]any, []any, resource.Item:
		data, err := json.Marshal(v)
		if err != nil {
			return Empty
		}
		return Span(string(data))
	}
	return Span(resource.ToString(value))
})

// Or returns r, or Plain when r is nil.
func Or(r Renderer) Renderer {
	if r == nil {
		return Plain
	}
	return r
}
