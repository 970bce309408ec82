package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps collections in process memory. Used for local
// development and tests; contents are lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]interface{}),
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return &Document{ID: id, Data: copyFields(data)}, nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []Document
	for id, data := range s.collections[q.Collection] {
		if !matchesAll(data, q) {
			continue
		}
		out = append(out, Document{ID: id, Data: copyFields(data)})
	}
	s.mu.RUnlock()

	// Map iteration is random; id order keeps unordered queries stable.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(q.Orders) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.Orders {
				c, _ := compareValues(out[i].Data[o.Field], out[j].Data[o.Field])
				if c == 0 {
					continue
				}
				if o.Direction == Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.NewString()
	if err := s.CreateWithID(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MemoryStore) CreateWithID(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]map[string]interface{})
		s.collections[collection] = col
	}
	if _, exists := col[id]; exists {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrAlreadyExists)
	}
	col[strings.Clone(id)] = copyFields(data)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	for k, v := range fields {
		data[k] = v
	}
	return nil
}

func (s *MemoryStore) UpdateIf(ctx context.Context, collection, id, field string, want interface{}, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if c, ok := compareValues(data[field], want); !ok || c != 0 {
		return fmt.Errorf("%s/%s %s: %w", collection, id, field, ErrConflict)
	}
	for k, v := range fields {
		data[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

// Documents whose order fields are missing are excluded, as the hosted
// database does.
func matchesAll(data map[string]interface{}, q Query) bool {
	for _, f := range q.Filters {
		if !matches(data, f) {
			return false
		}
	}
	for _, o := range q.Orders {
		if _, ok := data[o.Field]; !ok {
			return false
		}
	}
	return true
}

func copyFields(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
