package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/vitalvas/rewriter/internal/httpjson"
)

// ErrNoCredentials is returned when BasicAuthConfig has no users.
var ErrNoCredentials = errors.New("basic auth: at least one user is required")

type userKey struct{}

// UserFromContext returns the user authenticated by BasicAuth.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(userKey{}).(string)
	return user, ok && user != ""
}

// WithUser returns ctx carrying an authenticated user.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// BasicAuthConfig configures BasicAuth.
type BasicAuthConfig struct {
	// Realm defaults to "Restricted".
	Realm string

	// Credentials maps user names to passwords.
	Credentials map[string]string

	// OnFailure is called for every rejected request.
	OnFailure func(r *http.Request)
}

// BasicAuth authenticates requests with HTTP Basic credentials (RFC 7617)
// and stores the user name in the request context. Failures get a 401 with
// a generic JSON body.
func BasicAuth(cfg BasicAuthConfig) (Func, error) {
	if len(cfg.Credentials) == 0 {
		return nil, ErrNoCredentials
	}

	realm := cfg.Realm
	if realm == "" {
		realm = "Restricted"
	}
	challenge := fmt.Sprintf("Basic realm=%q", realm)

	hashed := make(map[string][sha256.Size]byte, len(cfg.Credentials))
	for user, password := range cfg.Credentials {
		hashed[user] = sha256.Sum256([]byte(password))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, password, ok := r.BasicAuth()
			if ok {
				expected, exists := hashed[user]
				got := sha256.Sum256([]byte(password))
				// compare even for unknown users so timing does not leak them
				match := subtle.ConstantTimeCompare(got[:], expected[:]) == 1
				ok = exists && match
			}

			if !ok {
				if cfg.OnFailure != nil {
					cfg.OnFailure(r)
				}
				w.Header().Set("WWW-Authenticate", challenge)
				httpjson.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}, nil
}
