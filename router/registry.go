package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vitalvas/rewriter/rewrite"
	"github.com/vitalvas/rewriter/routestore"
)

// RouteLister is the read side of the route store.
type RouteLister interface {
	List(ctx context.Context) ([]routestore.Route, error)
}

// PublishObserver is notified after every publish attempt.
type PublishObserver interface {
	ObservePublish(table *rewrite.Table, err error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for publish diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithBuiltins replaces the built-in route definitions.
func WithBuiltins(defs []Definition) Option {
	return func(r *Registry) {
		r.builtinDefs = defs
	}
}

// WithObserver registers a publish observer.
func WithObserver(o PublishObserver) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// Registry owns the live dispatch table. Built-in rules always precede
// stored routes. The table is replaced wholesale on Publish; readers
// always see a complete table.
type Registry struct {
	store       RouteLister
	builtinDefs []Definition
	builtins    []*rewrite.Rule
	logger      *slog.Logger
	observer    PublishObserver

	live atomic.Pointer[rewrite.Table]

	// publishMu serializes publishes so versions increase monotonically and
	// the last publish always reflects the latest stored table.
	publishMu sync.Mutex
}

// New returns a registry over store. Nothing is live until the first
// Publish. It fails if a built-in definition does not compile.
func New(store RouteLister, opts ...Option) (*Registry, error) {
	r := &Registry{
		store:       store,
		builtinDefs: BuiltinRoutes(""),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	for _, def := range r.builtinDefs {
		rule, err := rewrite.NewRule(def.Slug, def.Pattern, def.Target)
		if err != nil {
			return nil, fmt.Errorf("built-in route %q: %w", def.Slug, err)
		}
		rule.Description = def.Description
		rule.BuiltIn = true
		r.builtins = append(r.builtins, rule)
	}

	r.live.Store(rewrite.EmptyTable())

	return r, nil
}

// Table returns the live table.
func (r *Registry) Table() *rewrite.Table {
	return r.live.Load()
}

// Match looks up path in the live table.
func (r *Registry) Match(path string) (*rewrite.Match, bool) {
	return r.live.Load().Match(path)
}

// Publish rebuilds the table from the built-ins and the current store
// contents and makes it live. Stored routes that no longer compile are
// skipped and logged.
func (r *Registry) Publish(ctx context.Context) (*rewrite.Table, error) {
	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	table, err := r.build(ctx)
	if r.observer != nil {
		r.observer.ObservePublish(table, err)
	}
	if err != nil {
		return nil, err
	}

	r.live.Store(table)

	r.logger.Info("route table published",
		"version", table.Version(),
		"rules", table.Len(),
	)

	return table, nil
}

// Publisher adapts Publish to routestore.Publisher.
func (r *Registry) Publisher() routestore.Publisher {
	return routestore.PublisherFunc(func(ctx context.Context) error {
		_, err := r.Publish(ctx)
		return err
	})
}

func (r *Registry) build(ctx context.Context) (*rewrite.Table, error) {
	routes, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	rules := make([]*rewrite.Rule, 0, len(r.builtins)+len(routes))
	rules = append(rules, r.builtins...)

	for _, route := range routes {
		rule, err := rewrite.NewRule(route.Slug, route.Pattern, route.Target)
		if err != nil {
			r.logger.Warn("skipping stored route",
				"slug", route.Slug,
				"pattern", route.Pattern,
				"error", err,
			)
			continue
		}
		rules = append(rules, rule)
	}

	return rewrite.NewTable(r.live.Load().Version()+1, rules), nil
}
