package domain

import "slices"

// Principal is the authenticated caller for the current request. It is
// materialized once per request by the authentication gate from a verified
// credential and discarded when the request ends; it is never persisted.
type Principal struct {
	// SubjectID is the stable identifier issued by the identity provider.
	SubjectID string
	// Role is the caller's single role claim ("admin", "teacher",
	// "student", ...). Empty when the token carries no role.
	Role string
}

// HasAnyRole reports whether the principal's role is one of roles.
// A principal without a role matches nothing.
func (p Principal) HasAnyRole(roles []string) bool {
	return p.Role != "" && slices.Contains(roles, p.Role)
}
