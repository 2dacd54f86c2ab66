package rewrite

import (
	"regexp"
	"regexp/syntax"
	"sync"
)

// patternCache caches compiled patterns by source string. The number of
// distinct sources is bounded by the routes ever registered, so the cache
// stays small.
var patternCache sync.Map // map[string]*Pattern

// compileCached returns a cached *Pattern for the given source, compiling
// and caching it on first use.
func compileCached(source string) (*Pattern, error) {
	if v, ok := patternCache.Load(source); ok {
		return v.(*Pattern), nil
	}

	// the raw source must parse on its own; a stray ")" would otherwise
	// close the anchoring group and leave later alternatives unanchored
	if _, err := syntax.Parse(source, syntax.Perl); err != nil {
		return nil, err
	}

	re, err := regexp.Compile(anchor(source))
	if err != nil {
		return nil, err
	}

	p := &Pattern{source: source, re: re}
	actual, _ := patternCache.LoadOrStore(source, p)

	return actual.(*Pattern), nil
}
