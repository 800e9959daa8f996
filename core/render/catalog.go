package render

import (
	"fmt"
	"sort"
	"sync"
)

// Args are the string parameters given to a named renderer in a manifest.
type Args map[string]string

// Factory builds a renderer from manifest args.
type Factory func(args Args) (Renderer, error)

// Catalog maps renderer names to factories so that manifests can reference
// renderers by name.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog returns a catalog holding the built-in renderers.
func NewCatalog() *Catalog {
	c := &Catalog{factories: make(map[string]Factory)}

	c.Register("plain", fixed(Plain))
	c.Register("duration", fixed(Duration))
	c.Register("yesno", fixed(YesNo))
	c.Register("source", fixed(Source))
	c.Register("avatars", fixed(Avatars))
	c.Register("html", func(Args) (Renderer, error) { return NewHTML(), nil })
	c.Register("datetime", func(a Args) (Renderer, error) {
		layout := a["layout"]
		if layout == "" {
			layout = DateTimeLayout
		}
		return DateTime(layout), nil
	})
	c.Register("date", func(Args) (Renderer, error) { return DateTime(DateLayout), nil })
	c.Register("translate", func(a Args) (Renderer, error) {
		return Translate{Prefix: a["prefix"], Path: a["path"]}, nil
	})
	c.Register("count", func(a Args) (Renderer, error) {
		if a["key"] == "" {
			return nil, fmt.Errorf("count renderer requires key")
		}
		return Count{Key: a["key"], Path: a["path"]}, nil
	})
	c.Register("link", func(a Args) (Renderer, error) {
		if a["route"] == "" {
			return nil, fmt.Errorf("link renderer requires route")
		}
		return Link{
			Route:      StaticRoute(a["route"]),
			Param:      a["param"],
			Label:      a["label"],
			Permission: a["permission"],
			AdminOnly:  a["admin_only"] == "true",
		}, nil
	})

	return c
}

func fixed(r Renderer) Factory {
	return func(Args) (Renderer, error) { return r, nil }
}

// Register adds or replaces a named factory.
func (c *Catalog) Register(name string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = f
}

// Build instantiates the named renderer. An empty name yields Plain.
func (c *Catalog) Build(name string, args Args) (Renderer, error) {
	if name == "" {
		return Plain, nil
	}
	c.mu.RLock()
	f, ok := c.factories[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown renderer %q", name)
	}
	r, err := f(args)
	if err != nil {
		return nil, fmt.Errorf("renderer %q: %w", name, err)
	}
	return r, nil
}

// Names returns the registered renderer names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.factories))
	for n := range c.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
