package settings

import (
	"context"
	"fmt"

	"github.com/artpar/adminkit/core/authz"
	"github.com/artpar/adminkit/core/resource"
	"github.com/artpar/adminkit/core/router"
)

// Account scopes a users service to the current user. Reads and writes
// ignore the requested id, and only Fields are written.
type Account struct {
	resource.Service
	Fields []string
}

// Name returns the service name.
func (a *Account) Name() string { return "account" }

func currentUser(ctx context.Context) (string, error) {
	id := authz.FromContext(ctx).User().ID
	if id == "" {
		return "", resource.ErrNotFound
	}
	return id, nil
}

// GetAll returns a page holding the current user only.
func (a *Account) GetAll(ctx context.Context, _ resource.Filters) (resource.Page, error) {
	item, err := a.GetItem(ctx, "")
	if err != nil {
		return resource.Page{}, err
	}
	return resource.Page{Items: []resource.Item{item}, Total: 1, Page: 1, PerPage: 1}, nil
}

// GetItem returns the current user.
func (a *Account) GetItem(ctx context.Context, _ string) (resource.Item, error) {
	id, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return a.Service.GetItem(ctx, id)
}

// Save writes the allowed fields of data onto the current user.
func (a *Account) Save(ctx context.Context, data resource.Item) (resource.Item, error) {
	id, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	out := resource.Item{"id": id}
	for _, f := range a.Fields {
		if v, ok := data[f]; ok {
			out[f] = v
		}
	}
	return a.Service.Save(ctx, out)
}

// DeleteItem is refused.
func (a *Account) DeleteItem(context.Context, string) error {
	return fmt.Errorf("%w: accounts cannot be deleted here", router.ErrForbidden)
}
