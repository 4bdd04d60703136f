package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID tags every request and response with an X-Request-ID header so
// failures can be correlated across logs. An ID supplied by the caller is
// kept as-is.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set("X-Request-ID", requestID)
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}
