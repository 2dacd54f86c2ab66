package routestore

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrDuplicateSlug is returned by Add when the slug is already in use.
	ErrDuplicateSlug = errors.New("routestore: duplicate slug")

	// ErrNotFound is returned when a route does not exist.
	ErrNotFound = errors.New("routestore: route not found")

	// ErrInvalidSlug is returned when a slug is empty, too long or contains
	// characters other than lowercase letters, digits and single hyphens.
	ErrInvalidSlug = errors.New("routestore: invalid slug")
)

// MaxSlugLength is the longest slug accepted.
const MaxSlugLength = 64

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Route is one stored rewrite route.
type Route struct {
	Slug      string    `json:"slug" yaml:"slug"`
	Pattern   string    `json:"pattern" yaml:"pattern"`
	Target    string    `json:"target" yaml:"target"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ValidSlug reports whether slug is acceptable as a route identifier.
func ValidSlug(slug string) bool {
	return len(slug) <= MaxSlugLength && slugRe.MatchString(slug)
}

// SanitizeSlug normalizes free-form input into slug form: lowercased, runs
// of whitespace, underscores and other separators collapsed into a single
// hyphen, and characters outside [a-z0-9-] removed. The result may still be
// empty.
func SanitizeSlug(s string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == '-' || r == '_' || r == ' ' || r == '\t' || r == '.' || r == '/':
			pendingHyphen = true
		}
	}

	return b.String()
}

func indexOf(routes []Route, slug string) int {
	for i, r := range routes {
		if r.Slug == slug {
			return i
		}
	}
	return -1
}
