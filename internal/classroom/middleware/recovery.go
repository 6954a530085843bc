package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"classroom/internal/classroom"
	"classroom/internal/classroom/respond"
)

// Recovery catches panics from downstream handlers and returns the sanitized
// generic 500 envelope. The panic value is logged, never echoed.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				slog.Error("panic recovered",
					"error", v,
					"request_id", classroom.RequestIDFromContext(r.Context()),
					"stack", string(debug.Stack()),
				)
				respond.Error(w, fmt.Errorf("panic: %v", v))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
