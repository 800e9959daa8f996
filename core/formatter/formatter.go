// Package formatter renders the composed route table, navbar and locale
// tables for the CLI as a text table, JSON or YAML.
package formatter

import (
	"io"
	"sort"
	"sync"
)

// Dataset is a uniform view of tabular output.
type Dataset struct {
	// Kind names the content, e.g. "routes" or "locale:en".
	Kind string
	// Columns is the default column order.
	Columns []string
	Rows    []map[string]any
}

// Options tune one Format call.
type Options struct {
	// Columns overrides Dataset.Columns.
	Columns []string
	// NoHeader drops the header line of tables.
	NoHeader bool
	// Compact writes JSON on one line.
	Compact bool
	// MaxWidth truncates table cells; 0 means no limit.
	MaxWidth int
}

func (o Options) columns(data Dataset) []string {
	if len(o.Columns) > 0 {
		return o.Columns
	}
	return data.Columns
}

// Formatter writes a dataset in one output format.
type Formatter interface {
	Name() string
	Format(w io.Writer, data Dataset, opts Options) error
}

var (
	mu         sync.RWMutex
	formatters = map[string]Formatter{}
)

// Register makes f available under its name, replacing any formatter
// registered before under the same name.
func Register(f Formatter) {
	mu.Lock()
	defer mu.Unlock()
	formatters[f.Name()] = f
}

func Get(name string) (Formatter, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := formatters[name]
	return f, ok
}

// List returns the registered names in order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(Table{})
	Register(JSON)
	Register(YAML)
}
