// Package httpapi assembles the versioned REST surface: per-resource CRUD
// routes guarded by the rate-limit, authentication, authorization and
// validation gates, plus the admin and health endpoints.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/xeipuuv/gojsonschema"

	"classroom/internal/classroom"
	"classroom/internal/classroom/middleware"
	"classroom/internal/classroom/repository"
	"classroom/internal/classroom/service"
	"classroom/internal/classroom/validation"
	"classroom/internal/platform/telemetry"
)

// Deps carries the collaborators the router wires into its routes.
type Deps struct {
	Repo            *repository.Repository
	Verifier        classroom.TokenVerifier
	Claims          classroom.ClaimsAdmin
	Limiter         classroom.RateLimiter
	RateLimitWindow time.Duration
	Metrics         *telemetry.Metrics // optional
	Version         string
}

// Role names as they appear in the token's role custom claim.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var (
	staff        = []string{RoleAdmin, RoleTeacher}
	allRoles     = []string{RoleAdmin, RoleTeacher, RoleStudent}
	classMembers = []string{RoleTeacher, RoleStudent}
	adminOnly    = []string{RoleAdmin}
)

// NewRouter builds the /api/v1 router. Every route except health passes
// through the rate limiter and the authentication gate; each route then
// carries its own authorization requirement, and create routes validate the
// body before the handler runs.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.Handle("/health", healthHandler(time.Now(), d.Version)).Methods(http.MethodGet)

	rl := middleware.RateLimit(d.Limiter, d.RateLimitWindow, d.Metrics)
	authn := middleware.Authenticate(d.Verifier, d.Metrics)
	guard := func(h http.Handler, cfg middleware.AuthzConfig, extra ...middleware.Middleware) http.Handler {
		mw := append([]middleware.Middleware{rl, authn, middleware.Authorize(cfg, d.Metrics)}, extra...)
		return middleware.Chain(h, mw...)
	}
	roles := func(names []string) middleware.AuthzConfig {
		return middleware.AuthzConfig{HasRole: names}
	}

	registerResource := func(name string, h *resourceHandlers, schema *gojsonschema.Schema, write, read middleware.AuthzConfig) {
		api.Handle("/"+name, guard(http.HandlerFunc(h.create), write,
			middleware.ValidateBody(schema))).Methods(http.MethodPost)
		api.Handle("/"+name, guard(http.HandlerFunc(h.list), read)).Methods(http.MethodGet)
		api.Handle("/"+name+"/{id}", guard(http.HandlerFunc(h.get), read)).Methods(http.MethodGet)
		api.Handle("/"+name+"/{id}", guard(http.HandlerFunc(h.update), write)).Methods(http.MethodPut)
		api.Handle("/"+name+"/{id}", guard(http.HandlerFunc(h.delete), write)).Methods(http.MethodDelete)
	}

	students := newResourceHandlers(service.NewResource(d.Repo, "student", "students"))
	courses := newResourceHandlers(service.NewResource(d.Repo, "course", "courses"))
	assignments := newResourceHandlers(service.NewResource(d.Repo, "assignment", "assignments"))
	users := newResourceHandlers(service.NewResource(d.Repo, "user", "users"))

	registerResource("student", students, validation.Student, roles(staff), roles(staff))
	registerResource("course", courses, validation.Course, roles(staff), roles(allRoles))

	// The filter routes must be registered before the generic /{id} route so
	// "subject" and "status" are not captured as document ids.
	api.Handle("/assignment/subject/{subject}",
		guard(assignments.filterBy("subject", "subject"), roles(classMembers))).Methods(http.MethodGet)
	api.Handle("/assignment/status/{status}",
		guard(assignments.filterBy("status", "status"), roles(classMembers))).Methods(http.MethodGet)
	registerResource("assignment", assignments, validation.Assignment, roles(staff), roles(staff))

	// User routes are admin territory, except that reading one user record
	// allows the record's owner through regardless of role. The single-record
	// GET is registered by hand so its path variable is "uid", which is what
	// the same-user check in the authorization gate compares against.
	api.Handle("/user", guard(http.HandlerFunc(users.create), roles(adminOnly),
		middleware.ValidateBody(validation.User))).Methods(http.MethodPost)
	api.Handle("/user", guard(http.HandlerFunc(users.list), roles(adminOnly))).Methods(http.MethodGet)
	api.Handle("/user/{uid}",
		guard(users.getByVar("uid"), middleware.AuthzConfig{HasRole: adminOnly, AllowSameUser: true})).
		Methods(http.MethodGet)
	api.Handle("/user/{id}", guard(http.HandlerFunc(users.update), roles(adminOnly))).Methods(http.MethodPut)
	api.Handle("/user/{id}", guard(http.HandlerFunc(users.delete), roles(adminOnly))).Methods(http.MethodDelete)

	api.Handle("/admin/setCustomClaims", guard(setCustomClaimsHandler(d.Claims), roles(adminOnly),
		middleware.ValidateBody(validation.AdminClaims))).Methods(http.MethodPost)

	return r
}
