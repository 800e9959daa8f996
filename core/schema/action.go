package schema

import (
	"context"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/resource"
)

// Location is a navigation target.
type Location struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
	Query  map[string]string `json:"query,omitempty"`
}

// Navigator is the router handle passed to action handlers.
type Navigator interface {
	Push(ctx context.Context, to Location) error
}

// ActionContext exposes the standard item operations of the grid that
// invoked an action.
type ActionContext interface {
	OnView(ctx context.Context, item resource.Item) error
	OnEdit(ctx context.Context, item resource.Item) error
	OnDelete(ctx context.Context, item resource.Item) error
}

// Handler runs when an action is clicked. row is nil for page controls.
type Handler func(ctx context.Context, nav Navigator, row resource.Item, bc ActionContext) error

// Condition decides whether an action is shown. row is nil for page controls.
type Condition func(store authz.Store, row resource.Item) bool

// Action is a per-row grid action or a page-level control.
type Action struct {
	Title string
	Icon  string

	// ActionType is the visual intent of a row action, e.g. "error".
	ActionType string

	// Type is the button type of a page control, e.g. "primary".
	Type string

	OnClick         Handler
	RenderCondition Condition
}

// Visible evaluates the render condition. It is never cached: callers
// evaluate it on every render pass.
func (a Action) Visible(store authz.Store, row resource.Item) (bool, error) {
	if a.RenderCondition == nil {
		return true, nil
	}
	return Eval("action "+a.Title, func() bool { return a.RenderCondition(store, row) })
}

// Always is a Condition that is always true.
func Always(authz.Store, resource.Item) bool { return true }

// Never is a Condition that is always false.
func Never(authz.Store, resource.Item) bool { return false }

// Can returns a Condition requiring permission globally.
func Can(permission string) Condition {
	return func(store authz.Store, _ resource.Item) bool {
		return store.Can(permission)
	}
}

// CanInAnyProject returns a Condition requiring permission in any scope.
func CanInAnyProject(permission string) Condition {
	return func(store authz.Store, _ resource.Item) bool {
		return store.CanInAnyProject(permission)
	}
}

// CanOnRow returns a Condition requiring permission scoped to the row's
// scopeKey value ("id" when empty).
func CanOnRow(permission, scopeKey string) Condition {
	if scopeKey == "" {
		scopeKey = "id"
	}
	return func(store authz.Store, row resource.Item) bool {
		v, _ := resource.Lookup(row, scopeKey)
		return store.Can(permission, resource.ToString(v))
	}
}

// Unless wraps c so that rows carrying field are rejected.
func Unless(field string, c Condition) Condition {
	return func(store authz.Store, row resource.Item) bool {
		if _, ok := row[field]; ok {
			return false
		}
		return c(store, row)
	}
}

// ViewHandler calls bc.OnView.
func ViewHandler(ctx context.Context, _ Navigator, row resource.Item, bc ActionContext) error {
	return bc.OnView(ctx, row)
}

// EditHandler calls bc.OnEdit.
func EditHandler(ctx context.Context, _ Navigator, row resource.Item, bc ActionContext) error {
	return bc.OnEdit(ctx, row)
}

// DeleteHandler calls bc.OnDelete.
func DeleteHandler(ctx context.Context, _ Navigator, row resource.Item, bc ActionContext) error {
	return bc.OnDelete(ctx, row)
}

// PushHandler navigates to a fixed route name resolved at click time.
func PushHandler(route func() string) Handler {
	return func(ctx context.Context, nav Navigator, _ resource.Item, _ ActionContext) error {
		return nav.Push(ctx, Location{Name: route()})
	}
}
