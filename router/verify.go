package router

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalvas/rewriter/rewrite"
)

// Status summarizes a verification run.
type Status string

const (
	// StatusSuccess means every expected rule is live.
	StatusSuccess Status = "success"
	// StatusWarning means some expected rules are missing.
	StatusWarning Status = "warning"
	// StatusError means no expected rule is live.
	StatusError Status = "error"
)

// RuleStatus reports whether one expected rule is present in the live table.
type RuleStatus struct {
	Slug        string `json:"slug"`
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
	BuiltIn     bool   `json:"builtin"`
	Registered  bool   `json:"registered"`
	// Query is the live target template, empty when not registered.
	Query string `json:"query"`
}

// Diagnostics describes the live table alongside the stored table.
type Diagnostics struct {
	TableVersion  uint64     `json:"table_version"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	LiveRules     int        `json:"live_rules"`
	StoredRoutes  int        `json:"stored_routes"`
	BuiltinRoutes int        `json:"builtin_routes"`
}

// Verification is the result of comparing expected rules with the live table.
type Verification struct {
	Status      Status       `json:"status"`
	Message     string       `json:"message"`
	FoundCount  int          `json:"found_count"`
	TotalCount  int          `json:"total_count"`
	Rules       []RuleStatus `json:"rules"`
	Diagnostics Diagnostics  `json:"diagnostics"`
}

// Verify compares the built-in and stored routes against the live table.
// It is purely informational and never changes dispatch behaviour.
func (r *Registry) Verify(ctx context.Context) (Verification, error) {
	routes, err := r.store.List(ctx)
	if err != nil {
		return Verification{}, fmt.Errorf("verify: %w", err)
	}

	table := r.live.Load()

	v := Verification{
		Rules: make([]RuleStatus, 0, len(r.builtinDefs)+len(routes)),
		Diagnostics: Diagnostics{
			TableVersion:  table.Version(),
			LiveRules:     table.Len(),
			StoredRoutes:  len(routes),
			BuiltinRoutes: len(r.builtinDefs),
		},
	}

	if ts := table.PublishedAt(); !ts.IsZero() {
		v.Diagnostics.PublishedAt = &ts
	}

	for _, def := range r.builtinDefs {
		v.Rules = append(v.Rules, checkRule(table, def.Slug, def.Pattern, def.Target, def.Description, true))
	}

	for _, route := range routes {
		v.Rules = append(v.Rules, checkRule(table, route.Slug, route.Pattern, route.Target, "Custom route: "+route.Slug, false))
	}

	v.TotalCount = len(v.Rules)
	for _, rs := range v.Rules {
		if rs.Registered {
			v.FoundCount++
		}
	}

	switch {
	case v.TotalCount > 0 && v.FoundCount == v.TotalCount:
		v.Status = StatusSuccess
		v.Message = fmt.Sprintf("All %d rewrite rules are registered", v.TotalCount)
	case v.FoundCount > 0:
		v.Status = StatusWarning
		v.Message = fmt.Sprintf("%d of %d rewrite rules are registered", v.FoundCount, v.TotalCount)
	default:
		v.Status = StatusError
		v.Message = "No rewrite rules are registered"
	}

	return v, nil
}

func checkRule(table *rewrite.Table, slug, pattern, target, description string, builtin bool) RuleStatus {
	rs := RuleStatus{
		Slug:        slug,
		Pattern:     pattern,
		Description: description,
		BuiltIn:     builtin,
	}

	live, ok := table.Lookup(slug, builtin)
	if ok && live.Pattern.String() == pattern && live.Target.String() == target {
		rs.Registered = true
		rs.Query = live.Target.String()
	}

	return rs
}
