package formatter

import (
	"sort"
	"strings"

	"github.com/artpar/adminkit/core/schema"
)

// Routes builds a dataset from a route table. Only serializable meta is
// included.
func Routes(routes []schema.RouteConfig) Dataset {
	rows := make([]map[string]any, 0, len(routes))
	for _, r := range routes {
		r = r.Public()
		row := map[string]any{
			"name":        r.Name,
			"path":        r.Path,
			"component":   r.Component,
			"module":      r.Module,
			"permissions": r.Meta.Permissions(),
		}
		if len(r.Meta) > 0 {
			row["meta"] = map[string]any(r.Meta)
		}
		rows = append(rows, row)
	}
	return Dataset{
		Kind:    "routes",
		Columns: []string{"name", "path", "component", "module", "permissions"},
		Rows:    rows,
	}
}

// Navbar builds a dataset from navbar entries.
func Navbar(entries []schema.NavbarEntry) Dataset {
	rows := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]any{
			"label":  e.Label,
			"to":     e.To,
			"icon":   e.Icon,
			"order":  e.Order,
			"module": e.Module,
		})
	}
	return Dataset{
		Kind:    "navbar",
		Columns: []string{"order", "label", "to", "icon", "module"},
		Rows:    rows,
	}
}

// Locale builds a dataset from a flattened locale table, sorted by key.
// prefix limits output to keys under it.
func Locale(locale string, table map[string]string, prefix string) Dataset {
	keys := make([]string, 0, len(table))
	for k := range table {
		if prefix == "" || k == prefix || strings.HasPrefix(k, prefix+".") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	rows := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, map[string]any{"key": k, "value": table[k]})
	}
	return Dataset{
		Kind:    "locale:" + locale,
		Columns: []string{"key", "value"},
		Rows:    rows,
	}
}
