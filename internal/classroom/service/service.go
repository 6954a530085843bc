// Package service provides the thin per-resource orchestration layer between
// HTTP handlers and the document repository. One generic factory replaces the
// per-resource near-duplicates: a resource differs only by name and
// collection. Repository failures are re-raised as ServiceError with fixed,
// sanitized messages so storage internals never leak to clients; the
// repository's private 551 not-found signal is consumed here and remapped to
// a resource-specific 404.
package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"classroom/internal/classroom/repository"
	"classroom/internal/domain"
)

// Resource orchestrates CRUD for one resource type over the repository.
type Resource struct {
	repo       *repository.Repository
	name       string // lowercase singular, e.g. "student"
	collection string // store collection, e.g. "students"
}

// NewResource creates the service for one resource type.
func NewResource(repo *repository.Repository, name, collection string) *Resource {
	return &Resource{repo: repo, name: name, collection: collection}
}

// Name returns the resource's lowercase singular name.
func (r *Resource) Name() string { return r.name }

// Create stores fields as a new document and returns it with its assigned id.
func (r *Resource) Create(ctx context.Context, fields map[string]any) (domain.Document, error) {
	id, err := r.repo.CreateDocument(ctx, r.collection, fields, "")
	if err != nil {
		return domain.Document{}, r.mapErr(err, "create")
	}
	return domain.Document{ID: id, Fields: fields}, nil
}

// GetAll returns every document of the resource.
func (r *Resource) GetAll(ctx context.Context) ([]domain.Document, error) {
	docs, err := r.repo.GetDocuments(ctx, r.collection)
	if err != nil {
		return nil, r.mapErr(err, "retrieve")
	}
	return docs, nil
}

// GetByID returns the document at id.
func (r *Resource) GetByID(ctx context.Context, id string) (domain.Document, error) {
	doc, err := r.repo.GetDocumentByID(ctx, r.collection, id)
	if err != nil {
		return domain.Document{}, r.mapErr(err, "retrieve")
	}
	return doc, nil
}

// GetByField returns the documents whose field equals value.
func (r *Resource) GetByField(ctx context.Context, field string, value any) ([]domain.Document, error) {
	docs, err := r.repo.GetDocumentsByFieldValue(ctx, r.collection, field, value, 0)
	if err != nil {
		return nil, r.mapErr(err, "retrieve")
	}
	return docs, nil
}

// Update merges fields into the document at id and returns the submitted
// fields recombined with the id.
func (r *Resource) Update(ctx context.Context, id string, fields map[string]any) (domain.Document, error) {
	if err := r.repo.UpdateDocument(ctx, r.collection, id, fields); err != nil {
		return domain.Document{}, r.mapErr(err, "update")
	}
	return domain.Document{ID: id, Fields: fields}, nil
}

// Delete removes the document at id. The existence check runs first so an
// absent id reports not-found rather than silently succeeding.
func (r *Resource) Delete(ctx context.Context, id string) error {
	if _, err := r.repo.GetDocumentByID(ctx, r.collection, id); err != nil {
		return r.mapErr(err, "delete")
	}
	if err := r.repo.DeleteDocument(ctx, r.collection, id, nil); err != nil {
		return r.mapErr(err, "delete")
	}
	return nil
}

// mapErr converts repository failures into sanitized service failures. The
// 551 not-found signal becomes a resource-specific 404; everything else
// becomes a fixed-message 500. The underlying error detail is intentionally
// discarded.
func (r *Resource) mapErr(err error, action string) error {
	if domain.IsNotFound(err) {
		return domain.NewCodeStatus(domain.KindService,
			fmt.Sprintf("%s not found", r.name),
			strings.ToUpper(r.name)+"_NOT_FOUND", http.StatusNotFound)
	}
	return domain.New(domain.KindService, fmt.Sprintf("could not %s %s", action, r.name))
}
