package httpapi

import (
	"net/http"

	"classroom/internal/classroom"
	"classroom/internal/classroom/respond"
	"classroom/internal/domain"
)

// setCustomClaimsHandler assigns a role custom claim to a subject through the
// identity provider. The caller must re-issue their token for the new role to
// take effect.
func setCustomClaimsHandler(claims classroom.ClaimsAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := decodeFields(r)
		if err != nil {
			respond.Error(w, err)
			return
		}

		uid, _ := body["uid"].(string)
		role, _ := body["role"].(string)

		if err := claims.SetRoleClaim(r.Context(), uid, role); err != nil {
			respond.Error(w, domain.New(domain.KindService, "could not set custom claims"))
			return
		}
		respond.Success(w, http.StatusOK, nil, "Custom claims set")
	}
}
