package resource

import (
	"context"
	"errors"
)

// Relation loads a related entity for an item. Services use it to honor the
// with and withCount filter keys.
type Relation struct {
	// ForeignKey is the field holding the related id, e.g. "project_id".
	// For count relations it is the field on the target that points back.
	ForeignKey string
	Target     Service

	// Many marks ForeignKey as a list of ids, e.g. "user_ids". The loaded
	// entities are attached as a list.
	Many bool
}

// Relations maps eager-load names to their definitions.
type Relations map[string]Relation

// Load attaches each named relation in with as a nested map under its name
// and each relation in withCount as "<name>_count". Unknown names and
// dangling foreign keys are skipped.
func (r Relations) Load(ctx context.Context, item Item, with, withCount []string) error {
	for _, name := range with {
		rel, ok := r[name]
		if !ok {
			continue
		}
		if rel.Many {
			list, err := loadMany(ctx, rel, item)
			if err != nil {
				return err
			}
			item[name] = list
			continue
		}
		fk := ToString(item[rel.ForeignKey])
		if fk == "" {
			continue
		}
		related, err := rel.Target.GetItem(ctx, fk)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		item[name] = map[string]any(related)
	}
	for _, name := range withCount {
		rel, ok := r[name]
		if !ok {
			continue
		}
		page, err := rel.Target.GetAll(ctx, Filters{rel.ForeignKey: item.ID(), KeyPerPage: 1})
		if err != nil {
			return err
		}
		item[name+"_count"] = page.Total
	}
	return nil
}

func loadMany(ctx context.Context, rel Relation, item Item) ([]any, error) {
	list := []any{}
	for _, id := range toStrings(item[rel.ForeignKey]) {
		related, err := rel.Target.GetItem(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		list = append(list, map[string]any(related))
	}
	return list, nil
}
