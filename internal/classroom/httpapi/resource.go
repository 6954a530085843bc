package httpapi

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"classroom/internal/classroom/respond"
	"classroom/internal/classroom/service"
	"classroom/internal/domain"
)

// resourceHandlers bundles the CRUD handlers for one resource type. All
// resources share the same envelope and message shapes, differing only in
// display name.
type resourceHandlers struct {
	svc     *service.Resource
	display string // capitalized singular, e.g. "Student"
}

func newResourceHandlers(svc *service.Resource) *resourceHandlers {
	name := svc.Name()
	return &resourceHandlers{
		svc:     svc,
		display: strings.ToUpper(name[:1]) + name[1:],
	}
}

func (h *resourceHandlers) create(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	doc, err := h.svc.Create(r.Context(), fields)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Success(w, http.StatusCreated, doc, h.display+" created")
}

func (h *resourceHandlers) list(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.GetAll(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Success(w, http.StatusOK, docs, h.display+"s retrieved")
}

func (h *resourceHandlers) get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Success(w, http.StatusOK, doc, h.display+" retrieved")
}

// getByVar is get with a different subject path variable, for routes whose
// identifier is named after the principal ("uid") rather than "id".
func (h *resourceHandlers) getByVar(pathVar string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := h.svc.GetByID(r.Context(), mux.Vars(r)[pathVar])
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, doc, h.display+" retrieved")
	}
}

func (h *resourceHandlers) update(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	doc, err := h.svc.Update(r.Context(), mux.Vars(r)["id"], fields)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Success(w, http.StatusOK, doc, h.display+" updated")
}

func (h *resourceHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respond.Error(w, err)
		return
	}
	respond.Success(w, http.StatusOK, nil, h.display+" deleted")
}

// filterBy returns a list handler filtering on a fixed document field whose
// value comes from the named path variable.
func (h *resourceHandlers) filterBy(field, pathVar string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := h.svc.GetByField(r.Context(), field, mux.Vars(r)[pathVar])
		if err != nil {
			respond.Error(w, err)
			return
		}
		respond.Success(w, http.StatusOK, docs, h.display+"s retrieved")
	}
}

func decodeFields(r *http.Request) (map[string]any, error) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, domain.New(domain.KindValidation,
			"Validation error: request body must be a JSON object")
	}
	return fields, nil
}
