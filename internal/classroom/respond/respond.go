// Package respond is the terminal formatting stage: every handler and
// middleware renders its outcome through it so clients always see the uniform
// envelope, and non-taxonomy errors are sanitized rather than echoed.
package respond

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"classroom/internal/domain"
)

// JSON writes v as a JSON body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// Success writes a success envelope with the given status.
func Success(w http.ResponseWriter, status int, data any, message string) {
	JSON(w, status, domain.SuccessResponse(data, message))
}

// Error maps err onto the error envelope. Taxonomy errors render their own
// message, code and status; anything else — including nil — is sanitized to a
// generic 500 so internal error text never reaches a client. The repository
// layer's private 551 status is downgraded to 500 here as a last line of
// defense; services are expected to have remapped it already.
func Error(w http.ResponseWriter, err error) {
	if err == nil {
		slog.Error("nil error reached the error writer")
		JSON(w, http.StatusInternalServerError,
			domain.ErrorResponse("An unexpected error occurred", domain.CodeUnknown))
		return
	}

	e, ok := domain.AsError(err)
	if !ok {
		slog.Error("unhandled error", "error", err)
		JSON(w, http.StatusInternalServerError,
			domain.ErrorResponse("An unexpected error occurred. Please try again.", domain.CodeUnknown))
		return
	}

	slog.Debug("request failed", "kind", e.Kind.String(), "code", e.Code, "error", e.Message)

	status := e.StatusCode
	if status == domain.StatusRepositoryNotFound {
		status = http.StatusInternalServerError
	}
	JSON(w, status, domain.ErrorResponse(e.Message, e.Code))
}
