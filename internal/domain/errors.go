package domain

import "errors"

// Kind identifies one of the closed set of failure categories. Every error
// that crosses a component boundary in this service is an *Error tagged with
// one of these kinds; nothing upstream ever branches on a store- or
// provider-specific error type.
type Kind int

const (
	KindValidation Kind = iota
	KindAuthentication
	KindAuthorization
	KindRepository
	KindService
	KindRateLimit
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindRepository:
		return "RepositoryError"
	case KindService:
		return "ServiceError"
	case KindRateLimit:
		return "RateLimitError"
	default:
		return "UnknownError"
	}
}

// Machine-readable error codes carried in the response envelope.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeAuthorization  = "AUTHORIZATION_ERROR"
	CodeRepository     = "REPOSITORY_ERROR"
	CodeService        = "SERVICE_ERROR"
	CodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	CodeUnknown        = "UNKNOWN_ERROR"

	CodeTokenNotFound    = "TOKEN_NOT_FOUND"
	CodeTokenInvalid     = "TOKEN_INVALID"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeRoleNotFound     = "ROLE_NOT_FOUND"
	CodeInsufficientRole = "INSUFFICIENT_ROLE"

	CodeDocumentNotFound  = "DOCUMENT_NOT_FOUND"
	CodeDocumentsNotFound = "DOCUMENTS_NOT_FOUND"
)

// StatusRepositoryNotFound is a private "not found at the repository layer"
// signal. It is deliberately not a standard HTTP status: the service layer
// consumes and remaps it, and it must never be written to a client.
const StatusRepositoryNotFound = 551

func defaultCode(k Kind) string {
	switch k {
	case KindValidation:
		return CodeValidation
	case KindAuthentication:
		return CodeAuthentication
	case KindAuthorization:
		return CodeAuthorization
	case KindRepository:
		return CodeRepository
	case KindService:
		return CodeService
	case KindRateLimit:
		return CodeRateLimit
	default:
		return CodeUnknown
	}
}

func defaultStatus(k Kind) int {
	switch k {
	case KindValidation:
		return 400
	case KindAuthentication:
		return 401
	case KindAuthorization:
		return 403
	case KindRateLimit:
		return 429
	default: // repository, service
		return 500
	}
}

// Error is a taxonomy error: an immutable failure value carrying a category,
// a machine-readable code, and the HTTP status it maps to. Construct one with
// New, NewCode or NewCodeStatus and never mutate it afterwards.
type Error struct {
	Kind       Kind
	Message    string
	Code       string
	StatusCode int
}

func (e *Error) Error() string { return e.Message }

// New returns a taxonomy error with the kind's default code and status.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:       kind,
		Message:    message,
		Code:       defaultCode(kind),
		StatusCode: defaultStatus(kind),
	}
}

// NewCode returns a taxonomy error with an overridden code, keeping the
// kind's default status.
func NewCode(kind Kind, message, code string) *Error {
	e := New(kind, message)
	e.Code = code
	return e
}

// NewCodeStatus returns a taxonomy error with both code and status overridden.
func NewCodeStatus(kind Kind, message, code string, statusCode int) *Error {
	e := New(kind, message)
	e.Code = code
	e.StatusCode = statusCode
	return e
}

// AsError unwraps err into a taxonomy *Error, reporting whether it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// IsNotFound reports whether err is the repository layer's private
// not-found signal.
func IsNotFound(err error) bool {
	e, ok := AsError(err)
	return ok && e.StatusCode == StatusRepositoryNotFound
}
