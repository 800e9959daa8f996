package resource

// Options configures how a builder queries its service.
type Options struct {
	// With is the related-entity eager-load spec.
	With []string

	// WithCount is the count-aggregate spec.
	WithCount []string

	// Static filters are merged into every list request.
	Static Filters
}

// Option mutates Options.
type Option func(*Options)

// With adds relations to eager-load. A single comma-separated string is
// accepted as well, e.g. With("priority, project, user").
func With(relations ...string) Option {
	return func(o *Options) {
		for _, r := range relations {
			o.With = append(o.With, toStrings(r)...)
		}
	}
}

// WithCount adds count aggregates.
func WithCount(relations ...string) Option {
	return func(o *Options) {
		for _, r := range relations {
			o.WithCount = append(o.WithCount, toStrings(r)...)
		}
	}
}

// Where adds a static equality filter.
func Where(key string, value any) Option {
	return func(o *Options) {
		if o.Static == nil {
			o.Static = Filters{}
		}
		o.Static[key] = value
	}
}

// NewOptions applies opts to a zero Options.
func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Filters returns the base filter object for a list request: relations plus
// static filters.
func (o Options) Filters() Filters {
	f := Filters{}
	for k, v := range o.Static {
		f[k] = v
	}
	if len(o.With) > 0 {
		f[KeyWith] = append([]string(nil), o.With...)
	}
	if len(o.WithCount) > 0 {
		f[KeyWithCount] = append([]string(nil), o.WithCount...)
	}
	return f
}
