package formatter

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// Encoded writes a dataset as a {kind, count, data} document.
type Encoded struct {
	name   string
	encode func(w io.Writer, v any, opts Options) error
}

var (
	JSON = Encoded{name: "json", encode: func(w io.Writer, v any, opts Options) error {
		enc := json.NewEncoder(w)
		if !opts.Compact {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	}}

	YAML = Encoded{name: "yaml", encode: func(w io.Writer, v any, _ Options) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}}
)

func (f Encoded) Name() string { return f.name }

// Format keeps every row field unless opts names columns.
func (f Encoded) Format(w io.Writer, data Dataset, opts Options) error {
	rows := make([]map[string]any, 0, len(data.Rows))
	for _, row := range data.Rows {
		rows = append(rows, pick(row, opts.Columns))
	}
	return f.encode(w, map[string]any{
		"kind":  data.Kind,
		"count": len(rows),
		"data":  rows,
	}, opts)
}

func pick(row map[string]any, columns []string) map[string]any {
	if len(columns) == 0 {
		return row
	}
	out := make(map[string]any, len(columns))
	for _, col := range columns {
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}
