// Package builder compiles field, column, action and filter descriptors into
// route configurations.
//
// A CRUD builder yields three coupled routes (view, new, edit) whose names are
// known as soon as the builder exists. A grid builder yields one list route.
// Each compiled route carries a runtime screen in its meta under
// schema.MetaScreen: a *Page or a *Grid that loads data through the bound
// resource service and evaluates render-time predicates.
package builder

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/schema"
)

// ErrActionHidden is returned when dispatching an action whose render
// condition is false for the current state.
var ErrActionHidden = errors.New("action not available")

// ErrNoAction is returned for an out-of-range action index.
var ErrNoAction = errors.New("no such action")

// ValidationError lists per-field problems of a submitted form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

// Recorder observes service traffic issued by screens.
type Recorder interface {
	GridRequest(route string, err error)
	ResourceCall(route, op string, err error)
}

type nopRecorder struct{}

func (nopRecorder) GridRequest(string, error)          {}
func (nopRecorder) ResourceCall(string, string, error) {}

// Config binds a builder to its module and service.
type Config struct {
	Module schema.ModuleConfig

	Service     resource.Service
	ServiceName string
	Options     resource.Options

	Logger   zerolog.Logger
	Recorder Recorder
}

func (c Config) recorder() Recorder {
	if c.Recorder == nil {
		return nopRecorder{}
	}
	return c.Recorder
}

// setMeta writes key on every target, or on own when no target is given.
func setMeta(own *schema.RouteConfig, key string, value any, targets []*schema.RouteConfig) {
	if len(targets) == 0 {
		targets = []*schema.RouteConfig{own}
	}
	for _, t := range targets {
		if t == nil {
			continue
		}
		if t.Meta == nil {
			t.Meta = schema.Meta{}
		}
		t.Meta[key] = value
	}
}
