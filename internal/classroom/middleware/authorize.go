package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"classroom/internal/classroom"
	"classroom/internal/classroom/respond"
	"classroom/internal/domain"
	"classroom/internal/platform/telemetry"
)

// AuthzConfig describes one route's authorization requirement.
type AuthzConfig struct {
	// HasRole lists the roles allowed through the gate.
	HasRole []string
	// AllowSameUser lets a caller through unconditionally — regardless of
	// role, even with none — when the route's subject path parameter equals
	// the principal's subject id.
	AllowSameUser bool
}

// Authorize returns the authorization gate for one route. It must run after
// Authenticate. The same-user bypass is checked before role presence and
// membership, so a caller acting on their own record needs no particular
// role. The metrics parameter is optional.
func Authorize(cfg AuthzConfig, m *telemetry.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deny := func(err *domain.Error) {
				if m != nil {
					m.RecordAuthzDecision(r.Context(), "denied")
				}
				respond.Error(w, err)
			}

			principal, ok := classroom.PrincipalFromContext(r.Context())
			if !ok {
				// Authenticate did not run; treat as a missing role.
				deny(domain.NewCode(domain.KindAuthorization,
					"Forbidden: No role found", domain.CodeRoleNotFound))
				return
			}

			sameUser := cfg.AllowSameUser && subjectParam(r) != "" && subjectParam(r) == principal.SubjectID
			if !sameUser {
				if principal.Role == "" {
					deny(domain.NewCode(domain.KindAuthorization,
						"Forbidden: No role found", domain.CodeRoleNotFound))
					return
				}
				if !principal.HasAnyRole(cfg.HasRole) {
					deny(domain.NewCode(domain.KindAuthorization,
						"Forbidden: Insufficient role", domain.CodeInsufficientRole))
					return
				}
			}

			if m != nil {
				m.RecordAuthzDecision(r.Context(), "allowed")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// subjectParam returns the route's subject identifier: the "uid" path
// variable when present, otherwise "id".
func subjectParam(r *http.Request) string {
	vars := mux.Vars(r)
	if uid := vars["uid"]; uid != "" {
		return uid
	}
	return vars["id"]
}
