package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// DefaultRequestIDHeader is the header used to propagate request ids.
const DefaultRequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext returns the request id stored by RequestID, or an
// empty string.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestIDFromRequest is RequestIDFromContext for a request.
func RequestIDFromRequest(r *http.Request) string {
	return RequestIDFromContext(r.Context())
}

// RequestIDConfig configures RequestID.
type RequestIDConfig struct {
	// HeaderName defaults to DefaultRequestIDHeader.
	HeaderName string

	// Generate returns a new id. Defaults to GenerateUUIDv7.
	Generate func(r *http.Request) string

	// TrustIncoming reuses an incoming id when it parses as a UUID.
	TrustIncoming bool
}

// RequestID assigns every request an id, stores it in the request context
// and echoes it on the request and response headers.
func RequestID(cfg RequestIDConfig) Func {
	header := cfg.HeaderName
	if header == "" {
		header = DefaultRequestIDHeader
	}

	generate := cfg.Generate
	if generate == nil {
		generate = GenerateUUIDv7
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cfg.TrustIncoming {
				if incoming := r.Header.Get(header); incoming != "" {
					if _, err := uuid.Parse(incoming); err == nil {
						id = incoming
					}
				}
			}

			if id == "" {
				id = generate(r)
			}

			r.Header.Set(header, id)
			w.Header().Set(header, id)

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// GenerateUUIDv4 returns a random UUID.
func GenerateUUIDv4(_ *http.Request) string {
	return uuid.New().String()
}

// GenerateUUIDv7 returns a time-ordered UUID, so ids sort by arrival.
func GenerateUUIDv7(_ *http.Request) string {
	return uuid.Must(uuid.NewV7()).String()
}
