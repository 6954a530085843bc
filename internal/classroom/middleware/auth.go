package middleware

import (
	"net/http"
	"strings"

	"classroom/internal/classroom"
	"classroom/internal/classroom/respond"
	"classroom/internal/domain"
	"classroom/internal/platform/telemetry"
)

// Authenticate returns the authentication gate: it extracts the bearer token
// from the Authorization header, submits it to the identity provider via the
// verifier, and attaches the resulting principal to the request context. On
// any failure the pipeline short-circuits with an AuthenticationError.
// The metrics parameter is optional; pass nil to skip metric recording.
func Authenticate(verifier classroom.TokenVerifier, m *telemetry.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				if m != nil {
					m.RecordAuthValidation(r.Context(), "failure")
				}
				respond.Error(w, domain.NewCode(domain.KindAuthentication,
					"Unauthorized: No token provided", domain.CodeTokenNotFound))
				return
			}

			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if m != nil {
					m.RecordAuthValidation(r.Context(), "failure")
				}
				// Forward the provider's message and machine code; an
				// unstructured failure defaults to TOKEN_INVALID.
				code := domain.CodeTokenInvalid
				if e, structured := domain.AsError(err); structured && e.Code != "" {
					code = e.Code
				}
				respond.Error(w, domain.NewCode(domain.KindAuthentication,
					"Unauthorized: "+err.Error(), code))
				return
			}

			if m != nil {
				m.RecordAuthValidation(r.Context(), "success")
			}
			ctx := classroom.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token segment of an "Authorization: Bearer <token>"
// header.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
