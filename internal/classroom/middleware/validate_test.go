package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"classroom/internal/classroom/middleware"
	"classroom/internal/classroom/validation"
	"classroom/internal/domain"
)

func TestValidateBodyAcceptsValidDocument(t *testing.T) {
	h := middleware.ValidateBody(validation.Student)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"name":"Pam","email":"p@x.com","GPA":3.2}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestValidateBodyRejectsInvalidDocument(t *testing.T) {
	h := middleware.ValidateBody(validation.Student)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"name":"Pam","email":"not-an-email","GPA":9}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if body.Code != domain.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %q", body.Code)
	}
	if !strings.HasPrefix(body.Message, "Validation error:") {
		t.Errorf("expected validation message, got %q", body.Message)
	}
}

func TestValidateBodyRejectsNonJSON(t *testing.T) {
	h := middleware.ValidateBody(validation.Student)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != domain.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %q", body.Code)
	}
}

func TestValidateBodyRebuffersForHandler(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
	})
	h := middleware.ValidateBody(validation.Course)(inner)

	payload := `{"name":"Algebra","room":"2B","studentCount":12}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != payload {
		t.Errorf("handler should see the original body, got %q", seen)
	}
}
