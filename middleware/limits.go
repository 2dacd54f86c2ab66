package middleware

import (
	"errors"
	"mime"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vitalvas/rewriter/internal/httpjson"
)

var (
	// ErrInvalidMaxSize is returned for a non-positive body limit.
	ErrInvalidMaxSize = errors.New("body limit: max size must be greater than zero")

	// ErrInvalidTimeout is returned for a non-positive handler timeout.
	ErrInvalidTimeout = errors.New("timeout: duration must be greater than zero")

	// ErrNoAllowedTypes is returned when ContentType gets no media types.
	ErrNoAllowedTypes = errors.New("content type check: at least one allowed content type is required")
)

// BodyLimit caps request bodies at maxBytes. Reads past the limit fail and
// the server answers 413.
func BodyLimit(maxBytes int64) (Func, error) {
	if maxBytes <= 0 {
		return nil, ErrInvalidMaxSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httpjson.Error(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}, nil
}

// Timeout bounds handler execution with http.TimeoutHandler. Slow requests
// get 503 with a JSON error body and content type.
func Timeout(d time.Duration) (Func, error) {
	if d <= 0 {
		return nil, ErrInvalidTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &timeoutWriter{ResponseWriter: w}

			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer tw.returned.Store(true)
				next.ServeHTTP(w, r)
			})

			http.TimeoutHandler(inner, d, `{"error":"Request timed out"}`).ServeHTTP(tw, r)
		})
	}, nil
}

// timeoutWriter labels the timeout reply as JSON. A 503 written while the
// handler is still running can only come from http.TimeoutHandler; replies
// the handler finished keep its own headers.
type timeoutWriter struct {
	http.ResponseWriter
	returned atomic.Bool
}

func (w *timeoutWriter) WriteHeader(code int) {
	if code == http.StatusServiceUnavailable && !w.returned.Load() && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", httpjson.ContentType)
	}
	w.ResponseWriter.WriteHeader(code)
}

// ContentType rejects POST, PUT and PATCH requests whose media type is not
// one of allowed with 415. Parameters such as charset are ignored.
func ContentType(allowed ...string) (Func, error) {
	if len(allowed) == 0 {
		return nil, ErrNoAllowedTypes
	}

	set := make(map[string]struct{}, len(allowed))
	for _, t := range allowed {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if _, ok := set[strings.ToLower(mediaType)]; err != nil || !ok {
					httpjson.Error(w, http.StatusUnsupportedMediaType, "Unsupported content type")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
