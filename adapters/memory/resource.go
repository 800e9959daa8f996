// Package memory provides an in-memory resource service. It backs sample
// modules and tests, and is the default storage driver.
package memory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/artpar/adminkit/core/resource"
)

// Service is an in-memory implementation of resource.Service that also
// supports bulk edits and deletes.
type Service struct {
	name string

	mu    sync.RWMutex
	items map[string]resource.Item
	order []string

	relations resource.Relations
}

// New creates an empty service registered under name.
func New(name string) *Service {
	return &Service{
		name:      name,
		items:     make(map[string]resource.Item),
		relations: make(resource.Relations),
	}
}

// Name returns the service name.
func (s *Service) Name() string { return s.name }

// Relate declares an eager-loadable relation.
func (s *Service) Relate(name string, rel resource.Relation) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relations[name] = rel
	return s
}

// Seed stores items as-is, assigning ids to items without one.
func (s *Service) Seed(items ...resource.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.put(item.Clone())
	}
}

func (s *Service) put(item resource.Item) resource.Item {
	id := item.ID()
	if id == "" {
		id = uuid.NewString()
		item["id"] = id
	}
	if _, exists := s.items[id]; !exists {
		s.order = append(s.order, id)
	}
	s.items[id] = item
	return item
}

// GetAll returns the page of items matching filters, in insertion order.
// Eager-loaded relations are attached before matching, so conditions and
// search may address them with dotted paths such as "project.name".
func (s *Service) GetAll(ctx context.Context, filters resource.Filters) (resource.Page, error) {
	s.mu.RLock()
	all := make([]resource.Item, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.items[id].Clone())
	}
	s.mu.RUnlock()

	with, withCount := filters.Relations()
	var matched []resource.Item
	for _, item := range all {
		if err := s.LoadRelations(ctx, item, with, nil); err != nil {
			return resource.Page{}, err
		}
		if resource.Match(item, filters) {
			matched = append(matched, item)
		}
	}

	page, perPage := filters.Pagination()
	total := len(matched)
	start := min(filters.Offset(), total)
	items := matched[start : start+min(perPage, total-start)]

	for _, item := range items {
		if err := s.LoadRelations(ctx, item, nil, withCount); err != nil {
			return resource.Page{}, err
		}
	}

	return resource.Page{Items: items, Total: int64(total), Page: page, PerPage: perPage}, nil
}

// LoadRelations attaches the named relations to item.
func (s *Service) LoadRelations(ctx context.Context, item resource.Item, with, withCount []string) error {
	s.mu.RLock()
	rels := make(resource.Relations, len(s.relations))
	for k, v := range s.relations {
		rels[k] = v
	}
	s.mu.RUnlock()
	return rels.Load(ctx, item, with, withCount)
}

// GetItem returns an item by id.
func (s *Service) GetItem(ctx context.Context, id string) (resource.Item, error) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()

	if !ok {
		return nil, resource.ErrNotFound
	}
	return item.Clone(), nil
}

// Save creates the item when it has no id or an unknown one, otherwise
// merges data into the stored item.
func (s *Service) Save(ctx context.Context, data resource.Item) (resource.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.items[data.ID()]; ok {
		merged := existing.Clone()
		for k, v := range data {
			merged[k] = v
		}
		s.items[data.ID()] = merged
		return merged.Clone(), nil
	}
	return s.put(data.Clone()).Clone(), nil
}

// DeleteItem removes an item by id.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return resource.ErrNotFound
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// BulkDelete removes every listed item. Unknown ids are ignored.
func (s *Service) BulkDelete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := s.DeleteItem(ctx, id); err != nil && !errors.Is(err, resource.ErrNotFound) {
			return err
		}
	}
	return nil
}

// BulkEdit saves every item.
func (s *Service) BulkEdit(ctx context.Context, items []resource.Item) error {
	for _, item := range items {
		if _, err := s.Save(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored items.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// IDs returns stored ids sorted numerically when possible.
func (s *Service) IDs() []string {
	s.mu.RLock()
	ids := append([]string(nil), s.order...)
	s.mu.RUnlock()

	sort.SliceStable(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}
