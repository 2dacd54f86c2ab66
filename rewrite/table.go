package rewrite

import (
	"fmt"
	"net/url"
	"time"
)

// Rule is a compiled rewrite rule. Rules must not be modified once they
// have been added to a Table.
type Rule struct {
	// Slug identifies the rule.
	Slug string
	// Description is a human readable summary shown in diagnostics.
	Description string
	// BuiltIn marks rules that ship with the service rather than being
	// registered by an operator.
	BuiltIn bool

	Pattern *Pattern
	Target  *Target
}

// NewRule compiles pattern and parses target. It returns ErrInvalidPattern
// or ErrInvalidTarget, the latter also when target references a capture
// group that pattern does not define.
func NewRule(slug, pattern, target string) (*Rule, error) {
	p, err := Compile(pattern)
	if err != nil {
		return nil, err
	}

	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}

	if t.MaxGroup() > p.NumGroups() {
		return nil, fmt.Errorf("%w: %q references group %d but pattern %q has %d",
			ErrInvalidTarget, target, t.MaxGroup(), pattern, p.NumGroups())
	}

	return &Rule{Slug: slug, Pattern: p, Target: t}, nil
}

// Validate reports whether pattern and target would form a valid rule.
func Validate(pattern, target string) error {
	_, err := NewRule("", pattern, target)
	return err
}

// Match is the result of a successful table lookup.
type Match struct {
	Rule     *Rule
	Captures []string
	Params   url.Values
}

// Query returns the resolved target query string.
func (m *Match) Query() string {
	return m.Rule.Target.Resolve(m.Captures)
}

// Table is an immutable, ordered set of rules.
type Table struct {
	version     uint64
	publishedAt time.Time
	rules       []*Rule
}

// NewTable returns a table holding a copy of rules in the given order.
func NewTable(version uint64, rules []*Rule) *Table {
	cp := make([]*Rule, len(rules))
	copy(cp, rules)

	return &Table{
		version:     version,
		publishedAt: time.Now().UTC(),
		rules:       cp,
	}
}

// EmptyTable returns the table in effect before anything is published.
func EmptyTable() *Table {
	return &Table{}
}

// Version returns the table version. Version 0 is the empty table.
func (t *Table) Version() uint64 {
	return t.version
}

// PublishedAt returns the time the table was built. It is zero for the
// empty table.
func (t *Table) PublishedAt() time.Time {
	return t.publishedAt
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Rules returns the rules in match order.
func (t *Table) Rules() []*Rule {
	cp := make([]*Rule, len(t.rules))
	copy(cp, t.rules)
	return cp
}

// Lookup returns the rule registered under slug. Built-in and stored rules
// live in separate slug namespaces, so builtIn selects which one to search.
func (t *Table) Lookup(slug string, builtIn bool) (*Rule, bool) {
	for _, r := range t.rules {
		if r.Slug == slug && r.BuiltIn == builtIn {
			return r, true
		}
	}
	return nil, false
}

// Match tries every rule in order and returns the first one matching path.
func (t *Table) Match(path string) (*Match, bool) {
	for _, r := range t.rules {
		if captures, ok := r.Pattern.Match(path); ok {
			return &Match{
				Rule:     r,
				Captures: captures,
				Params:   r.Target.Expand(captures),
			}, true
		}
	}
	return nil, false
}
