// Package repository provides generic, collection-parameterized access to the
// external document store. Every operation funnels store-native failures
// through the RepositoryError taxonomy kind so upstream layers never branch
// on store-specific error types; absence is signalled with the private 551
// status rather than a generic failure.
package repository

import (
	"context"
	"fmt"
	"time"

	"classroom/internal/classroom"
	"classroom/internal/domain"
	"classroom/internal/platform/telemetry"
)

// Repository translates generic CRUD verbs onto a DocumentStore.
// The metrics handle is optional; pass nil to skip metric recording.
type Repository struct {
	store   classroom.DocumentStore
	metrics *telemetry.Metrics
}

// New creates a Repository over store.
func New(store classroom.DocumentStore, m *telemetry.Metrics) *Repository {
	return &Repository{store: store, metrics: m}
}

// CreateDocument stores data in collection. With a non-empty id the document
// at that id is fully overwritten; with an empty id the store assigns one.
// Returns the document's identifier.
func (r *Repository) CreateDocument(ctx context.Context, collection string, data map[string]any, id string) (string, error) {
	defer r.observe(ctx, "create")()

	if id != "" {
		if err := r.store.Set(ctx, collection, id, data); err != nil {
			return "", r.wrap(err, "failed to create document %s in %s: %v", id, collection, err)
		}
		return id, nil
	}

	newID, err := r.store.Add(ctx, collection, data)
	if err != nil {
		return "", r.wrap(err, "failed to create document in %s: %v", collection, err)
	}
	return newID, nil
}

// GetDocuments returns every document in collection. An empty collection is a
// valid zero-length result, not an error.
func (r *Repository) GetDocuments(ctx context.Context, collection string) ([]domain.Document, error) {
	defer r.observe(ctx, "get_all")()

	docs, err := r.store.GetAll(ctx, collection)
	if err != nil {
		return nil, r.wrap(err, "failed to fetch documents from %s: %v", collection, err)
	}
	return docs, nil
}

// GetDocumentByID returns the document at id. Absence is reported as a
// RepositoryError coded DOCUMENT_NOT_FOUND with the private 551 status.
func (r *Repository) GetDocumentByID(ctx context.Context, collection, id string) (domain.Document, error) {
	defer r.observe(ctx, "get_by_id")()

	fields, exists, err := r.store.Get(ctx, collection, id)
	if err != nil {
		return domain.Document{}, r.wrap(err, "failed to fetch document %s from %s", id, collection)
	}
	if !exists {
		return domain.Document{}, domain.NewCodeStatus(domain.KindRepository,
			fmt.Sprintf("document not found in collection %s with id %s", collection, id),
			domain.CodeDocumentNotFound, domain.StatusRepositoryNotFound)
	}
	return domain.Document{ID: id, Fields: fields}, nil
}

// GetDocumentsByFieldValue returns the documents in collection whose field
// equals value. A positive limit caps the result count; any other limit
// applies no cap. An empty result set is reported as a RepositoryError coded
// DOCUMENTS_NOT_FOUND with the private 551 status.
func (r *Repository) GetDocumentsByFieldValue(ctx context.Context, collection, field string, value any, limit int) ([]domain.Document, error) {
	defer r.observe(ctx, "find_by_field")()

	docs, err := r.store.FindByField(ctx, collection, field, value, limit)
	if err != nil {
		return nil, r.wrap(err, "failed to fetch documents from %s where %s == %v", collection, field, value)
	}
	if len(docs) == 0 {
		return nil, domain.NewCodeStatus(domain.KindRepository,
			fmt.Sprintf("no documents found in collection %s where %s == %v", collection, field, value),
			domain.CodeDocumentsNotFound, domain.StatusRepositoryNotFound)
	}
	return docs, nil
}

// UpdateDocument merges only the supplied fields into the document at id;
// fields absent from data are left untouched.
func (r *Repository) UpdateDocument(ctx context.Context, collection, id string, data map[string]any) error {
	defer r.observe(ctx, "update")()

	if err := r.store.Update(ctx, collection, id, data); err != nil {
		return r.wrap(err, "failed to update document %s in %s: %v", id, collection, err)
	}
	return nil
}

// DeleteDocument removes the document at id. With a non-nil transaction
// handle the deletion is staged on that transaction instead of executed
// immediately; it takes effect only when the transaction commits.
func (r *Repository) DeleteDocument(ctx context.Context, collection, id string, tx classroom.Tx) error {
	defer r.observe(ctx, "delete")()

	var err error
	if tx != nil {
		err = tx.Delete(collection, id)
	} else {
		err = r.store.Delete(ctx, collection, id)
	}
	if err != nil {
		return r.wrap(err, "failed to delete document %s from %s: %v", id, collection, err)
	}
	return nil
}

// RunTransaction executes fn with a transaction handle; the store guarantees
// that the reads and writes performed through the handle commit atomically.
// Callers capture results in the closure.
func (r *Repository) RunTransaction(ctx context.Context, fn func(classroom.Tx) error) error {
	defer r.observe(ctx, "transaction")()

	if err := r.store.RunTransaction(ctx, fn); err != nil {
		return r.wrap(err, "transaction failed: %v", err)
	}
	return nil
}

// wrap converts a store-native failure into a RepositoryError. A taxonomy
// RepositoryError raised internally propagates unchanged so the specific
// not-found signal is never lost to double-wrapping.
func (r *Repository) wrap(err error, format string, args ...any) error {
	if e, ok := domain.AsError(err); ok && e.Kind == domain.KindRepository {
		return e
	}
	return domain.New(domain.KindRepository, fmt.Sprintf(format, args...))
}

func (r *Repository) observe(ctx context.Context, op string) func() {
	if r.metrics == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		r.metrics.RecordRepositoryOp(ctx, op, time.Since(start).Seconds())
	}
}
