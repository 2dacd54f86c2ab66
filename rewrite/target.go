package rewrite

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidTarget is returned when a target template is malformed or
// references a capture group its pattern does not define.
var ErrInvalidTarget = errors.New("rewrite: invalid target")

// placeholderRe matches $matches[N] and $N group references.
var placeholderRe = regexp.MustCompile(`\$matches\[(\d+)\]|\$(\d+)`)

// segment is one piece of a parameter value: either literal text or a
// reference to a capture group.
type segment struct {
	literal string
	group   int
}

type targetParam struct {
	key      string
	segments []segment
}

// Target is a parsed query-string template. It is immutable and safe for
// concurrent use.
type Target struct {
	template string
	params   []targetParam
	maxGroup int
}

// ParseTarget parses a target template such as
// "route=shop&category=$1&product=$matches[2]".
func ParseTarget(tpl string) (*Target, error) {
	raw := strings.TrimSpace(tpl)
	raw = strings.TrimPrefix(raw, "index.php")
	raw = strings.TrimPrefix(raw, "?")

	if raw == "" {
		return nil, fmt.Errorf("%w: empty target", ErrInvalidTarget)
	}

	t := &Target{template: tpl}

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(key)
		if err != nil || key == "" {
			return nil, fmt.Errorf("%w: bad key in %q", ErrInvalidTarget, pair)
		}
		if strings.Contains(key, "$") {
			return nil, fmt.Errorf("%w: placeholder in key %q", ErrInvalidTarget, key)
		}

		segs, err := parseSegments(value)
		if err != nil {
			return nil, err
		}

		for _, s := range segs {
			if s.group > t.maxGroup {
				t.maxGroup = s.group
			}
		}

		t.params = append(t.params, targetParam{key: key, segments: segs})
	}

	if len(t.params) == 0 {
		return nil, fmt.Errorf("%w: no parameters in %q", ErrInvalidTarget, tpl)
	}

	return t, nil
}

func parseSegments(value string) ([]segment, error) {
	var (
		segs []segment
		end  int
	)

	for _, idx := range placeholderRe.FindAllStringSubmatchIndex(value, -1) {
		if idx[0] > end {
			lit, err := url.QueryUnescape(value[end:idx[0]])
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
			}
			segs = append(segs, segment{literal: lit})
		}

		var digits string
		if idx[2] >= 0 {
			digits = value[idx[2]:idx[3]]
		} else {
			digits = value[idx[4]:idx[5]]
		}

		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: group reference %q", ErrInvalidTarget, value[idx[0]:idx[1]])
		}

		segs = append(segs, segment{group: n})
		end = idx[1]
	}

	if end < len(value) {
		lit, err := url.QueryUnescape(value[end:])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
		}
		segs = append(segs, segment{literal: lit})
	}

	return segs, nil
}

// String returns the template as registered.
func (t *Target) String() string {
	return t.template
}

// MaxGroup returns the highest capture group index the template references,
// or zero when it references none.
func (t *Target) MaxGroup() int {
	return t.maxGroup
}

// Keys returns the parameter keys in template order.
func (t *Target) Keys() []string {
	keys := make([]string, len(t.params))
	for i, p := range t.params {
		keys[i] = p.key
	}
	return keys
}

// Expand substitutes captures into the template. captures[0] is group 1.
// References to groups beyond len(captures) expand to the empty string.
func (t *Target) Expand(captures []string) url.Values {
	values := make(url.Values, len(t.params))
	for _, p := range t.params {
		values.Add(p.key, p.value(captures))
	}
	return values
}

// Resolve returns the expanded query string with keys in template order.
func (t *Target) Resolve(captures []string) string {
	var b strings.Builder
	for i, p := range t.params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.value(captures)))
	}
	return b.String()
}

func (p targetParam) value(captures []string) string {
	if len(p.segments) == 1 && p.segments[0].group == 0 {
		return p.segments[0].literal
	}

	var b strings.Builder
	for _, s := range p.segments {
		if s.group == 0 {
			b.WriteString(s.literal)
			continue
		}
		if s.group <= len(captures) {
			b.WriteString(captures[s.group-1])
		}
	}
	return b.String()
}
