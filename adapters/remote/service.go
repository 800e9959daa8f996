package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/artpar/adminkit/core/resource"
)

// Service is a resource.Service backed by a remote collection endpoint.
type Service struct {
	client *Client
	name   string
	base   string
}

// NewService creates a service for the collection served at base,
// e.g. "/projects".
func NewService(client *Client, name, base string) *Service {
	return &Service{client: client, name: name, base: base}
}

// Name returns the service name.
func (s *Service) Name() string { return s.name }

// GetAll posts filters to {base}/list.
func (s *Service) GetAll(ctx context.Context, filters resource.Filters) (resource.Page, error) {
	var page resource.Page
	if err := s.client.Request(ctx, http.MethodPost, s.base+"/list", filters, &page); err != nil {
		return resource.Page{}, fmt.Errorf("list %s: %w", s.name, err)
	}
	if page.PerPage == 0 {
		page.Page, page.PerPage = filters.Pagination()
	}
	return page, nil
}

// GetItem fetches {base}/show?id=.
func (s *Service) GetItem(ctx context.Context, id string) (resource.Item, error) {
	var item resource.Item
	path := s.base + "/show?id=" + url.QueryEscape(id)
	if err := s.client.Request(ctx, http.MethodGet, path, nil, &item); err != nil {
		if IsNotFound(err) {
			return nil, resource.ErrNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", s.name, id, err)
	}
	return item, nil
}

// Save posts to {base}/edit when data carries an id, otherwise {base}/create.
func (s *Service) Save(ctx context.Context, data resource.Item) (resource.Item, error) {
	path := s.base + "/create"
	if data.ID() != "" {
		path = s.base + "/edit"
	}

	var item resource.Item
	if err := s.client.Request(ctx, http.MethodPost, path, data, &item); err != nil {
		if IsNotFound(err) {
			return nil, resource.ErrNotFound
		}
		return nil, fmt.Errorf("save %s: %w", s.name, err)
	}
	return item, nil
}

// DeleteItem posts the id to {base}/remove.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.client.Request(ctx, http.MethodPost, s.base+"/remove", map[string]string{"id": id}, nil); err != nil {
		if IsNotFound(err) {
			return resource.ErrNotFound
		}
		return fmt.Errorf("delete %s/%s: %w", s.name, id, err)
	}
	return nil
}

// BulkDelete posts ids to {base}/bulk-remove.
func (s *Service) BulkDelete(ctx context.Context, ids []string) error {
	if err := s.client.Request(ctx, http.MethodPost, s.base+"/bulk-remove", map[string][]string{"ids": ids}, nil); err != nil {
		return fmt.Errorf("bulk delete %s: %w", s.name, err)
	}
	return nil
}

// BulkEdit posts items to {base}/bulk-edit.
func (s *Service) BulkEdit(ctx context.Context, items []resource.Item) error {
	if err := s.client.Request(ctx, http.MethodPost, s.base+"/bulk-edit", map[string][]resource.Item{"items": items}, nil); err != nil {
		return fmt.Errorf("bulk edit %s: %w", s.name, err)
	}
	return nil
}
