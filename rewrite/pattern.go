package rewrite

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern is returned when a pattern is empty or does not compile.
var ErrInvalidPattern = errors.New("rewrite: invalid pattern")

// Pattern is a compiled rewrite pattern. It is safe for concurrent use.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// Compile parses a rewrite pattern. The result is anchored at the start of
// the path and cached, so repeated compilation of the same source is cheap.
func Compile(pattern string) (*Pattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}

	p, err := compileCached(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}

	return p, nil
}

// MustCompile is like Compile but panics if the pattern is invalid.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the pattern source as registered.
func (p *Pattern) String() string {
	return p.source
}

// NumGroups returns the number of capture groups in the pattern.
func (p *Pattern) NumGroups() int {
	return p.re.NumSubexp()
}

// Match reports whether path matches the pattern and returns the captured
// groups in order. Groups that did not participate in the match are
// returned as empty strings. A leading slash on path is ignored.
func (p *Pattern) Match(path string) ([]string, bool) {
	m := p.re.FindStringSubmatch(trimPath(path))
	if m == nil {
		return nil, false
	}
	return m[1:], true
}

// anchor wraps the source so that every alternative is anchored at the
// start of the input. A leading ^ in the source is redundant and dropped.
func anchor(source string) string {
	return "^(?:" + strings.TrimPrefix(source, "^") + ")"
}

// trimPath strips the leading slash from a request path.
func trimPath(path string) string {
	return strings.TrimPrefix(path, "/")
}
