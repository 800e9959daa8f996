// Package resource defines the data-access contract consumed by the CRUD and
// grid builders. Builders never assume a transport; any value implementing
// Service can back a screen.
package resource

import (
	"context"
	"errors"
)

// ErrNotFound is returned by services when an item does not exist.
var ErrNotFound = errors.New("resource not found")

// Item is a single entity as returned by a service.
type Item map[string]any

// ID returns the item's "id" value as a string.
func (i Item) ID() string {
	return ToString(i["id"])
}

// Clone returns a shallow copy of the item.
func (i Item) Clone() Item {
	if i == nil {
		return nil
	}
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// Page is one page of a list request.
type Page struct {
	Items   []Item `json:"data" yaml:"data"`
	Total   int64  `json:"total" yaml:"total"`
	Page    int    `json:"page" yaml:"page"`
	PerPage int    `json:"per_page" yaml:"per_page"`
}

// TotalPages returns the number of pages implied by Total and PerPage.
func (p Page) TotalPages() int {
	if p.Total == 0 || p.PerPage < 1 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Service is the minimal contract a CRUD or grid screen needs.
type Service interface {
	// GetAll returns one page of items matching filters.
	GetAll(ctx context.Context, filters Filters) (Page, error)

	// GetItem returns a single item by id.
	GetItem(ctx context.Context, id string) (Item, error)

	// Save creates the item when it has no id, otherwise updates it.
	Save(ctx context.Context, data Item) (Item, error)

	// DeleteItem removes an item by id.
	DeleteItem(ctx context.Context, id string) error
}

// BulkDeleter is implemented by services that can remove many items at once.
type BulkDeleter interface {
	BulkDelete(ctx context.Context, ids []string) error
}

// RelationLoader is implemented by services that can eager-load relations
// onto an item returned by GetItem.
type RelationLoader interface {
	LoadRelations(ctx context.Context, item Item, with, withCount []string) error
}

// BulkEditor is implemented by services that can update many items at once.
type BulkEditor interface {
	BulkEdit(ctx context.Context, items []Item) error
}
