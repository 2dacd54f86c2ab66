// Package rewrite compiles URL-rewrite patterns and resolves their targets.
//
// A rewrite rule pairs a regular expression with a target template. The
// expression is matched against the request path without its leading
// slash, the same convention used by host rewrite engines:
//
//	p, err := rewrite.Compile(`shop/([^/]+)/([^/]+)/?$`)
//	captures, ok := p.Match("shop/electronics/laptop")
//	// captures == []string{"electronics", "laptop"}
//
// # Patterns
//
// Patterns use the RE2 dialect of the regexp package. Matching is always
// anchored at the start of the path; a leading ^ in the source is accepted
// and ignored. The end of the path is not anchored implicitly, so trailing
// slash handling (for example /?$) is the responsibility of the pattern
// author. Compiled patterns are cached by source string, so compiling the
// same pattern twice returns the same *Pattern.
//
// # Targets
//
// A target is a query-string template. Capture groups are referenced
// positionally with $N or $matches[N], N starting at 1:
//
//	t, err := rewrite.ParseTarget("index.php?route=shop&category=$matches[1]&product=$2")
//	t.Resolve([]string{"electronics", "laptop"})
//	// "route=shop&category=electronics&product=laptop"
//
// A leading "index.php?" or "?" is stripped. Fixed key/value pairs are kept
// literally. A target that references a group the pattern does not define
// is rejected by NewRule with ErrInvalidTarget.
//
// # Tables
//
// A Table is an immutable, ordered list of rules. Table.Match tries the
// rules in order and returns the first match, so earlier rules always win
// over later ones. Tables are never modified after construction; callers
// publish a new table to change the live rule set.
package rewrite
