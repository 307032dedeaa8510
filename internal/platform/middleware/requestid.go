package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKeyRequestID struct{}

// RequestID assigns a correlation id to every request, honoring an inbound
// X-Request-ID when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the correlation id from the context.
func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(contextKeyRequestID{}).(string)
	if !ok {
		return ""
	}
	return requestID
}
