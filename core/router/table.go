// Package router holds the frozen route table produced by the module loader
// and the router handle that module code navigates with.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/artpar/adminkit/core/schema"
)

var (
	// ErrRouteNotFound is returned for unknown route names or paths.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMissingParam is returned when a path placeholder has no value.
	ErrMissingParam = errors.New("missing route param")

	// ErrForbidden is returned when a route guard rejects entry.
	ErrForbidden = errors.New("route access denied")
)

// Table is an immutable route table indexed by name.
type Table struct {
	routes []schema.RouteConfig
	byName map[string]int
}

// NewTable indexes routes. Later duplicates of a name are ignored; the
// loader rejects them before a table is built.
func NewTable(routes []schema.RouteConfig) *Table {
	t := &Table{
		routes: make([]schema.RouteConfig, 0, len(routes)),
		byName: make(map[string]int, len(routes)),
	}
	for _, r := range routes {
		if _, dup := t.byName[r.Name]; dup {
			continue
		}
		t.byName[r.Name] = len(t.routes)
		t.routes = append(t.routes, r.Clone())
	}
	return t
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Routes returns copies of all routes in load order.
func (t *Table) Routes() []schema.RouteConfig {
	out := make([]schema.RouteConfig, len(t.routes))
	for i, r := range t.routes {
		out[i] = r.Clone()
	}
	return out
}

// Lookup returns the route with the given name. The returned meta is shared
// with the table and must be treated as read-only.
func (t *Table) Lookup(name string) (schema.RouteConfig, bool) {
	i, ok := t.byName[name]
	if !ok {
		return schema.RouteConfig{}, false
	}
	return t.routes[i], true
}

// Names returns all route names, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the path of the named route, filling ":param" segments.
func (t *Table) Resolve(name string, params map[string]string) (string, error) {
	r, ok := t.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}
	return Fill(r.Path, params)
}

// Fill substitutes ":param" segments of pattern.
func Fill(pattern string, params map[string]string) (string, error) {
	segs := strings.Split(pattern, "/")
	for i, s := range segs {
		if !strings.HasPrefix(s, ":") {
			continue
		}
		v, ok := params[s[1:]]
		if !ok || v == "" {
			return "", fmt.Errorf("%w: %s in %s", ErrMissingParam, s[1:], pattern)
		}
		segs[i] = url.PathEscape(v)
	}
	return strings.Join(segs, "/"), nil
}

// Match finds the route whose path pattern matches path and returns the
// extracted params.
func (t *Table) Match(path string) (schema.RouteConfig, map[string]string, bool) {
	want := strings.Split(strings.Trim(path, "/"), "/")
	for _, r := range t.routes {
		got := strings.Split(strings.Trim(r.Path, "/"), "/")
		if len(got) != len(want) {
			continue
		}
		params := map[string]string{}
		matched := true
		for i, seg := range got {
			if strings.HasPrefix(seg, ":") {
				v, err := url.PathUnescape(want[i])
				if err != nil {
					matched = false
					break
				}
				params[seg[1:]] = v
				continue
			}
			if seg != want[i] {
				matched = false
				break
			}
		}
		if matched {
			return r, params, true
		}
	}
	return schema.RouteConfig{}, nil, false
}
