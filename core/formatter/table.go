package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Table writes aligned columns with an upper-case header.
type Table struct{}

func (Table) Name() string { return "table" }

func (Table) Format(w io.Writer, data Dataset, opts Options) error {
	if len(data.Rows) == 0 {
		_, err := fmt.Fprintf(w, "No %s found.\n", data.Kind)
		return err
	}

	columns := opts.columns(data)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cells := make([]string, len(columns))

	if !opts.NoHeader {
		for i, col := range columns {
			cells[i] = strings.ToUpper(col)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	for _, row := range data.Rows {
		for i, col := range columns {
			cells[i] = truncate(cell(row[col]), opts.MaxWidth)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// cell renders a value; empty values show as a dash.
func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case string:
		if v == "" {
			return "-"
		}
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

func truncate(s string, width int) string {
	if width > 3 && len(s) > width {
		return s[:width-3] + "..."
	}
	return s
}
