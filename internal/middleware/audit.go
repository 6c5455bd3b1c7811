package middleware

import (
	"context"
	"log"
	"net/http"
)

// AuditStore records who performed which request.
type AuditStore interface {
	CreateAuditEntry(ctx context.Context, actor, method, endpoint string, statusCode int) error
}

// AuditTrail writes an audit row for every request that passes through it.
// It must be mounted after SessionAuth so the actor is known.
type AuditTrail struct {
	store AuditStore
}

// NewAuditTrail creates the audit middleware.
func NewAuditTrail(store AuditStore) *AuditTrail {
	return &AuditTrail{store: store}
}

// Middleware returns an HTTP middleware that records the actor, method,
// path and status of each request.
func (a *AuditTrail) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			actor := "anonymous"
			if user, ok := UserFromContext(r.Context()); ok {
				actor = user.Username
			}

			next.ServeHTTP(rw, r)

			// Record asynchronously so a slow insert never blocks the
			// response path.
			go func(method, endpoint string, status int) {
				if err := a.store.CreateAuditEntry(context.Background(), actor, method, endpoint, status); err != nil {
					log.Printf("[audit] failed to record %s %s: %v", method, endpoint, err)
				}
			}(r.Method, r.URL.Path, rw.statusCode)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}
