package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"

	"classroom/internal/classroom/respond"
	"classroom/internal/classroom/validation"
	"classroom/internal/domain"
)

// ValidateBody returns middleware that checks the request body against a
// resource schema before the handler runs. The body is re-buffered so the
// handler can read it again.
func ValidateBody(schema *gojsonschema.Schema) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				respond.Error(w, domain.New(domain.KindValidation,
					"Validation error: unable to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var doc map[string]any
			if len(body) > 0 {
				if err := json.Unmarshal(body, &doc); err != nil {
					respond.Error(w, domain.New(domain.KindValidation,
						"Validation error: request body must be a JSON object"))
					return
				}
			}

			if err := validation.Validate(schema, doc); err != nil {
				respond.Error(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
