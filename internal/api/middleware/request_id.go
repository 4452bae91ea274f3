package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/labelstack/hub/internal/observability"
)

// RequestIDHeader carries the correlation id between client and server.
const RequestIDHeader = "X-Request-ID"

// RequestID runs first in the chain. A client-supplied id is kept so
// ingestion tools can correlate their batches across retries; otherwise
// a UUIDv7 is generated. The id lands in the context for the log handler
// and is echoed in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.Must(uuid.NewV7()).String()
		}

		ctx := context.WithValue(r.Context(), observability.RequestIDKey, id)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
