package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"scrutiny/pkg/requestcontext"
)

// RequestIDHeader is the inbound correlation header. A missing or blank value
// gets a fresh id.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a correlation id to the request context and echoes it on
// the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
