package classroom

import (
	"context"
	"net/http"

	"classroom/internal/domain"
)

// DocumentStore is the external document-store collaborator: named
// collections of string-keyed field maps. Implementations surface their own
// native errors; the repository layer is responsible for translating them
// into the error taxonomy.
type DocumentStore interface {
	// Add stores fields under a store-generated identifier and returns it.
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Set stores fields at id, fully overwriting any existing document.
	Set(ctx context.Context, collection, id string, fields map[string]any) error
	// Get returns the field map at id and whether the document exists.
	Get(ctx context.Context, collection, id string) (map[string]any, bool, error)
	// GetAll returns every document in the collection.
	GetAll(ctx context.Context, collection string) ([]domain.Document, error)
	// FindByField returns the documents whose field equals value. A positive
	// limit caps the result count; any other limit applies no cap.
	FindByField(ctx context.Context, collection, field string, value any, limit int) ([]domain.Document, error)
	// Update merges fields into the existing document at id. It fails if no
	// document exists there.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes the document at id. Deleting an absent document is not
	// an error.
	Delete(ctx context.Context, collection, id string) error
	// RunTransaction executes fn with a transaction handle. All reads and
	// writes performed through the handle commit together or not at all.
	RunTransaction(ctx context.Context, fn func(Tx) error) error
}

// Tx is the read/write surface of one store transaction. Writes are staged
// and take effect only when the transaction commits.
type Tx interface {
	Get(collection, id string) (map[string]any, bool, error)
	Set(collection, id string, fields map[string]any) error
	Update(collection, id string, fields map[string]any) error
	Delete(collection, id string) error
}

// TokenVerifier is the identity-provider collaborator used by the
// authentication gate. Verify checks the opaque bearer token (signature,
// expiry, issuer are the provider's responsibility) and returns the subject
// and optional role claim it carries.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.Principal, error)
}

// ClaimsAdmin is the identity-provider administration surface: assigning a
// role custom claim to a subject.
type ClaimsAdmin interface {
	SetRoleClaim(ctx context.Context, subjectID, role string) error
}

// RateLimiter decides whether a request identified by key should be allowed
// within the current window.
type RateLimiter interface {
	Allow(key string) RateLimitResult
}

// RateLimitResult is the outcome of a rate-limit check, including the header
// values exposed to the client.
type RateLimitResult struct {
	Allowed    bool
	Limit      int // requests permitted per window
	Remaining  int // requests left in the active window
	ResetAfter int // seconds until the active window expires
}

// StatusWriter wraps http.ResponseWriter to capture the status code.
type StatusWriter struct {
	http.ResponseWriter
	Code int
}

func (sw *StatusWriter) WriteHeader(code int) {
	sw.Code = code
	sw.ResponseWriter.WriteHeader(code)
}

// PrincipalFromContext extracts the authenticated principal from a request context.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// ContextWithPrincipal stores the authenticated principal in the context.
func ContextWithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

type principalKey struct{}

// RequestIDFromContext extracts the request ID from the context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// ContextWithRequestID stores the request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

type requestIDKey struct{}
