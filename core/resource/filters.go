package resource

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Well-known filter keys. Everything else in a Filters map is an equality
// condition on the named (possibly dotted) field.
const (
	KeyWith      = "with"
	KeyWithCount = "withCount"
	KeySearch    = "search"
	KeyPage      = "page"
	KeyPerPage   = "perPage"
)

// DefaultPerPage is used when a list request does not specify a page size.
const DefaultPerPage = 15

// Search is a free-text condition matched against several fields.
type Search struct {
	Query  string   `json:"query" yaml:"query"`
	Fields []string `json:"fields" yaml:"fields"`
}

// Filters is the single filter object passed to Service.GetAll.
type Filters map[string]any

// Clone returns a copy of f. Nested values are shared.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Search returns the free-text condition, if any.
func (f Filters) Search() (Search, bool) {
	s, ok := f[KeySearch].(Search)
	if !ok || strings.TrimSpace(s.Query) == "" {
		return Search{}, false
	}
	return s, true
}

// Pagination returns the requested page (1-based) and page size. The page
// is clamped so that Offset never overflows.
func (f Filters) Pagination() (page, perPage int) {
	page = toInt(f[KeyPage])
	perPage = toInt(f[KeyPerPage])
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if last := math.MaxInt/perPage + 1; page > last {
		page = last
	}
	return page, perPage
}

// Offset returns the number of items skipped before the requested page.
func (f Filters) Offset() int {
	page, perPage := f.Pagination()
	return (page - 1) * perPage
}

// Relations returns the eager-load and count-aggregate specs.
func (f Filters) Relations() (with, withCount []string) {
	return toStrings(f[KeyWith]), toStrings(f[KeyWithCount])
}

// Conditions returns the equality conditions sorted by key.
func (f Filters) Conditions() []Condition {
	var out []Condition
	for k, v := range f {
		switch k {
		case KeyWith, KeyWithCount, KeySearch, KeyPage, KeyPerPage:
			continue
		}
		out = append(out, Condition{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Condition is an equality filter on one field.
type Condition struct {
	Key   string
	Value any
}

// Match reports whether item satisfies the search and equality conditions
// in f. Pagination and relation keys are ignored.
func Match(item Item, f Filters) bool {
	for _, c := range f.Conditions() {
		got, ok := Lookup(item, c.Key)
		if !ok || !equalValues(got, c.Value) {
			return false
		}
	}

	s, ok := f.Search()
	if !ok {
		return true
	}
	query := strings.ToLower(s.Query)
	for _, field := range s.Fields {
		v, ok := Lookup(item, field)
		if ok && strings.Contains(strings.ToLower(ToString(v)), query) {
			return true
		}
	}
	return false
}

// Lookup resolves a dotted path such as "project.name" inside item.
func Lookup(item Item, path string) (any, bool) {
	var cur any = map[string]any(item)
	for _, part := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case Item:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// ToString renders scalar values the way they appear in a URL query string.
func ToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func equalValues(a, b any) bool {
	return ToString(a) == ToString(b)
}

func toInt(v any) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		n, _ := strconv.Atoi(val)
		return n
	default:
		return 0
	}
}

func toStrings(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case string:
		var out []string
		for _, part := range strings.Split(val, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, ToString(item))
		}
		return out
	default:
		return nil
	}
}
