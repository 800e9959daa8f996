// Package hasher hashes secret fields before they reach a resource service.
package hasher

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/adminkit/core/resource"
)

// Hasher hashes and verifies secrets.
type Hasher interface {
	Hash(plaintext string) ([]byte, error)
	Compare(hash []byte, plaintext string) bool
}

// Bcrypt uses bcrypt for hashing.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher with the given cost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash generates a bcrypt hash from plaintext.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

// Compare checks if plaintext matches hash.
func (h *Bcrypt) Compare(hash []byte, plaintext string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}

var _ Hasher = (*Bcrypt)(nil)

// Fake stores plaintext. Tests only.
type Fake struct{}

// Hash returns the plaintext as bytes.
func (Fake) Hash(plaintext string) ([]byte, error) {
	return []byte(plaintext), nil
}

// Compare does simple equality check.
func (Fake) Compare(hash []byte, plaintext string) bool {
	return string(hash) == plaintext
}

var _ Hasher = Fake{}

// Service wraps a resource service and replaces the plaintext of Fields
// with their hash on Save. An empty value on update keeps the stored hash.
// Hashes are never returned to readers.
type Service struct {
	resource.Service

	hasher Hasher
	fields []string
}

// Wrap decorates svc. fields defaults to "password".
func Wrap(svc resource.Service, h Hasher, fields ...string) *Service {
	if len(fields) == 0 {
		fields = []string{"password"}
	}
	return &Service{Service: svc, hasher: h, fields: fields}
}

// Name returns the wrapped service's name when it has one.
func (s *Service) Name() string {
	if n, ok := s.Service.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}

// GetAll implements resource.Service.
func (s *Service) GetAll(ctx context.Context, filters resource.Filters) (resource.Page, error) {
	page, err := s.Service.GetAll(ctx, filters)
	if err != nil {
		return page, err
	}
	for _, item := range page.Items {
		s.strip(item)
	}
	return page, nil
}

// GetItem implements resource.Service.
func (s *Service) GetItem(ctx context.Context, id string) (resource.Item, error) {
	item, err := s.Service.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	s.strip(item)
	return item, nil
}

// Save implements resource.Service.
func (s *Service) Save(ctx context.Context, data resource.Item) (resource.Item, error) {
	data = data.Clone()
	for _, f := range s.fields {
		plain := resource.ToString(data[f])
		if plain == "" {
			delete(data, f)
			continue
		}
		hash, err := s.hasher.Hash(plain)
		if err != nil {
			return nil, err
		}
		data[f] = string(hash)
	}
	if data.ID() != "" {
		s.keep(ctx, data)
	}
	saved, err := s.Service.Save(ctx, data)
	if err != nil {
		return nil, err
	}
	s.strip(saved)
	return saved, nil
}

// Verify reports whether plaintext matches the stored hash of field for id.
func (s *Service) Verify(ctx context.Context, id, field, plaintext string) (bool, error) {
	item, err := s.Service.GetItem(ctx, id)
	if err != nil {
		return false, err
	}
	hash := resource.ToString(item[field])
	if hash == "" {
		return false, nil
	}
	return s.hasher.Compare([]byte(hash), plaintext), nil
}

// LoadRelations forwards to the wrapped service.
func (s *Service) LoadRelations(ctx context.Context, item resource.Item, with, withCount []string) error {
	if l, ok := s.Service.(resource.RelationLoader); ok {
		return l.LoadRelations(ctx, item, with, withCount)
	}
	return nil
}

// BulkDelete forwards to the wrapped service.
func (s *Service) BulkDelete(ctx context.Context, ids []string) error {
	if b, ok := s.Service.(resource.BulkDeleter); ok {
		return b.BulkDelete(ctx, ids)
	}
	for _, id := range ids {
		if err := s.Service.DeleteItem(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// keep copies stored hashes into data for fields absent from an update,
// so services that replace whole records do not lose them. Unknown ids are
// creates and have nothing to keep.
func (s *Service) keep(ctx context.Context, data resource.Item) {
	var missing bool
	for _, f := range s.fields {
		if _, ok := data[f]; !ok {
			missing = true
		}
	}
	if !missing {
		return
	}
	stored, err := s.Service.GetItem(ctx, data.ID())
	if err != nil {
		return
	}
	for _, f := range s.fields {
		if _, ok := data[f]; !ok {
			if v, ok := stored[f]; ok {
				data[f] = v
			}
		}
	}
}

func (s *Service) strip(item resource.Item) {
	for _, f := range s.fields {
		delete(item, f)
	}
}

var (
	_ resource.Service        = (*Service)(nil)
	_ resource.BulkDeleter    = (*Service)(nil)
	_ resource.RelationLoader = (*Service)(nil)
)
