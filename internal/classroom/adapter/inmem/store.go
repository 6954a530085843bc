package inmem

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"classroom/internal/classroom"
	"classroom/internal/domain"
)

// Store is an in-memory DocumentStore used in tests and when no Postgres DSN
// is configured. Field maps are copied on every read and write so callers can
// never alias store-internal state.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// NewStore creates an empty in-memory document store.
func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]map[string]any)}
}

func (s *Store) collection(name string) map[string]map[string]any {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]map[string]any)
		s.collections[name] = c
	}
	return c
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Add stores fields under a freshly generated identifier.
func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

// Set overwrites the document at id with fields.
func (s *Store) Set(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = cloneFields(fields)
	return nil
}

// Get returns the field map at id and whether it exists.
func (s *Store) Get(_ context.Context, collection, id string) (map[string]any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.collections[collection][id]
	if !ok {
		return nil, false, nil
	}
	return cloneFields(fields), true, nil
}

// GetAll returns every document in the collection, ordered by id for
// deterministic reads.
func (s *Store) GetAll(_ context.Context, collection string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collections[collection]
	docs := make([]domain.Document, 0, len(c))
	for id, fields := range c {
		docs = append(docs, domain.Document{ID: id, Fields: cloneFields(fields)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// FindByField returns documents whose field equals value, capped at limit
// when limit is positive.
func (s *Store) FindByField(_ context.Context, collection, field string, value any, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []domain.Document
	for id, fields := range s.collections[collection] {
		if v, ok := fields[field]; ok && reflect.DeepEqual(v, value) {
			docs = append(docs, domain.Document{ID: id, Fields: cloneFields(fields)})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Update merges fields into the existing document at id.
func (s *Store) Update(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("no document %s/%s", collection, id)
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

// Delete removes the document at id. Absent documents are ignored.
func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

// RunTransaction executes fn under the store lock with writes staged in
// memory. The staged writes are applied only if fn returns nil.
func (s *Store) RunTransaction(_ context.Context, fn func(classroom.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	tx.apply()
	return nil
}

type memOp struct {
	kind       string // "set", "update", "delete"
	collection string
	id         string
	fields     map[string]any
}

// memTx stages writes and serves reads through the staged view.
type memTx struct {
	store *Store
	ops   []memOp
}

// view replays the staged ops for one document on top of the committed state.
func (tx *memTx) view(collection, id string) (map[string]any, bool) {
	fields, ok := tx.store.collections[collection][id]
	if ok {
		fields = cloneFields(fields)
	}
	for _, op := range tx.ops {
		if op.collection != collection || op.id != id {
			continue
		}
		switch op.kind {
		case "set":
			fields, ok = cloneFields(op.fields), true
		case "update":
			if ok {
				for k, v := range op.fields {
					fields[k] = v
				}
			}
		case "delete":
			fields, ok = nil, false
		}
	}
	return fields, ok
}

func (tx *memTx) Get(collection, id string) (map[string]any, bool, error) {
	fields, ok := tx.view(collection, id)
	return fields, ok, nil
}

func (tx *memTx) Set(collection, id string, fields map[string]any) error {
	tx.ops = append(tx.ops, memOp{kind: "set", collection: collection, id: id, fields: cloneFields(fields)})
	return nil
}

func (tx *memTx) Update(collection, id string, fields map[string]any) error {
	if _, ok := tx.view(collection, id); !ok {
		return fmt.Errorf("no document %s/%s", collection, id)
	}
	tx.ops = append(tx.ops, memOp{kind: "update", collection: collection, id: id, fields: cloneFields(fields)})
	return nil
}

func (tx *memTx) Delete(collection, id string) error {
	tx.ops = append(tx.ops, memOp{kind: "delete", collection: collection, id: id})
	return nil
}

func (tx *memTx) apply() {
	for _, op := range tx.ops {
		c := tx.store.collection(op.collection)
		switch op.kind {
		case "set":
			c[op.id] = op.fields
		case "update":
			if doc, ok := c[op.id]; ok {
				for k, v := range op.fields {
					doc[k] = v
				}
			}
		case "delete":
			delete(c, op.id)
		}
	}
}
