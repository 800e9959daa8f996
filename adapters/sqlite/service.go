package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/artpar/adminkit/core/resource"
)

// Service is a resource.Service over one collection of the records table.
type Service struct {
	db         *DB
	collection string

	mu        sync.RWMutex
	relations resource.Relations
}

// NewService creates a service for collection.
func NewService(db *DB, collection string) *Service {
	return &Service{db: db, collection: collection, relations: make(resource.Relations)}
}

// Name returns the collection name.
func (s *Service) Name() string { return s.collection }

// Relate declares an eager-loadable relation.
func (s *Service) Relate(name string, rel resource.Relation) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relations[name] = rel
	return s
}

// where builds the WHERE clause for the conditions and search in filters.
// Field names only ever reach SQL as bound JSON paths.
func (s *Service) where(filters resource.Filters) (string, []any) {
	clauses := []string{"collection = ?"}
	args := []any{s.collection}

	for _, c := range filters.Conditions() {
		clauses = append(clauses, "CAST(json_extract(data, ?) AS TEXT) = ?")
		args = append(args, jsonPath(c.Key), resource.ToString(c.Value))
	}

	if search, ok := filters.Search(); ok && len(search.Fields) > 0 {
		var ors []string
		pattern := "%" + strings.ToLower(search.Query) + "%"
		for _, field := range search.Fields {
			ors = append(ors, "LOWER(CAST(json_extract(data, ?) AS TEXT)) LIKE ?")
			args = append(args, jsonPath(field), pattern)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	return strings.Join(clauses, " AND "), args
}

func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, ".", `"."`) + `"`
}

// GetAll returns the page of items matching filters, in insertion order.
func (s *Service) GetAll(ctx context.Context, filters resource.Filters) (resource.Page, error) {
	where, args := s.where(filters)
	page, perPage := filters.Pagination()

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE "+where, args...).Scan(&total); err != nil {
		return resource.Page{}, fmt.Errorf("count %s: %w", s.collection, err)
	}

	query := "SELECT data FROM records WHERE " + where + " ORDER BY seq LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, perPage, filters.Offset())...)
	if err != nil {
		return resource.Page{}, fmt.Errorf("list %s: %w", s.collection, err)
	}
	defer rows.Close()

	var items []resource.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return resource.Page{}, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return resource.Page{}, fmt.Errorf("list %s: %w", s.collection, err)
	}

	with, withCount := filters.Relations()
	if len(with) > 0 || len(withCount) > 0 {
		for _, item := range items {
			if err := s.LoadRelations(ctx, item, with, withCount); err != nil {
				return resource.Page{}, err
			}
		}
	}

	return resource.Page{Items: items, Total: total, Page: page, PerPage: perPage}, nil
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

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (resource.Item, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		return nil, err
	}
	item := resource.Item{}
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return item, nil
}

// GetItem returns an item by id.
func (s *Service) GetItem(ctx context.Context, id string) (resource.Item, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT data FROM records WHERE collection = ? AND id = ?", s.collection, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, resource.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", s.collection, id, err)
	}
	return item, nil
}

// Save inserts the item when its id is empty or unknown, otherwise merges
// data into the stored document.
func (s *Service) Save(ctx context.Context, data resource.Item) (resource.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := s.save(ctx, tx, data)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit %s: %w", s.collection, err)
	}
	return item, nil
}

func (s *Service) save(ctx context.Context, tx *sql.Tx, data resource.Item) (resource.Item, error) {
	item := data.Clone()
	id := item.ID()

	if id != "" {
		existing, err := scanItem(tx.QueryRowContext(ctx,
			"SELECT data FROM records WHERE collection = ? AND id = ?", s.collection, id))
		switch {
		case err == nil:
			for k, v := range item {
				existing[k] = v
			}
			encoded, err := json.Marshal(existing)
			if err != nil {
				return nil, fmt.Errorf("encode record: %w", err)
			}
			_, err = tx.ExecContext(ctx,
				"UPDATE records SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?",
				string(encoded), s.collection, id)
			if err != nil {
				return nil, fmt.Errorf("update %s/%s: %w", s.collection, id, err)
			}
			return existing, nil
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("get %s/%s: %w", s.collection, id, err)
		}
	} else {
		id = uuid.NewString()
		item["id"] = id
	}

	encoded, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO records (collection, id, data) VALUES (?, ?, ?)", s.collection, id, string(encoded))
	if err != nil {
		return nil, fmt.Errorf("insert %s/%s: %w", s.collection, id, err)
	}

	// Round-trip through JSON so callers see the same types GetItem returns.
	out := resource.Item{}
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}

// DeleteItem removes an item by id.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE collection = ? AND id = ?", s.collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", s.collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", s.collection, id, err)
	}
	if n == 0 {
		return resource.ErrNotFound
	}
	return nil
}

// BulkDelete removes every listed item in one statement.
func (s *Service) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := []any{s.collection}
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ? AND id IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("bulk delete %s: %w", s.collection, err)
	}
	return nil
}

// BulkEdit saves every item in a single transaction.
func (s *Service) BulkEdit(ctx context.Context, items []resource.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, item := range items {
		if _, err := s.save(ctx, tx, item); err != nil {
			return err
		}
	}
	return tx.Commit()
}
