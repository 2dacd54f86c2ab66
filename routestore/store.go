package routestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vitalvas/rewriter/rewrite"
)

// ErrPublish wraps a publish failure that happened after a mutation was
// persisted. The mutation itself is durable when this error is returned.
var ErrPublish = errors.New("routestore: publish failed")

// Publisher rebuilds the live dispatch table from the store.
type Publisher interface {
	Publish(ctx context.Context) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context) error

// Publish calls f(ctx).
func (f PublisherFunc) Publish(ctx context.Context) error {
	return f(ctx)
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher sets the publisher notified after every mutation.
func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store implements route CRUD on top of a whole-table Backend.
type Store struct {
	backend   Backend
	publisher Publisher
	now       func() time.Time

	// mu serializes read-modify-write cycles and the publish that follows.
	mu sync.Mutex
}

// New returns a Store over backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetPublisher replaces the publisher. It is meant for wiring at startup,
// when the publisher itself depends on the store.
func (s *Store) SetPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.publisher = p
}

// List returns all routes in insertion order.
func (s *Store) List(ctx context.Context) ([]Route, error) {
	routes, err := s.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	return routes, nil
}

// Get returns the route with the given slug.
func (s *Store) Get(ctx context.Context, slug string) (Route, error) {
	routes, err := s.List(ctx)
	if err != nil {
		return Route{}, err
	}

	i := indexOf(routes, slug)
	if i < 0 {
		return Route{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}

	return routes[i], nil
}

// Add appends a new route. It fails with ErrInvalidSlug, ErrDuplicateSlug,
// rewrite.ErrInvalidPattern or rewrite.ErrInvalidTarget without touching
// the stored table.
func (s *Store) Add(ctx context.Context, slug, pattern, target string) error {
	if !ValidSlug(slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}

	if err := rewrite.Validate(pattern, target); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	routes, err := s.List(ctx)
	if err != nil {
		return err
	}

	if indexOf(routes, slug) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateSlug, slug)
	}

	now := s.now().UTC()
	routes = append(routes, Route{
		Slug:      slug,
		Pattern:   pattern,
		Target:    target,
		CreatedAt: now,
		UpdatedAt: now,
	})

	return s.commit(ctx, routes)
}

// Update replaces the pattern and target of an existing route, keeping its
// position and creation time.
func (s *Store) Update(ctx context.Context, slug, pattern, target string) error {
	if err := rewrite.Validate(pattern, target); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	routes, err := s.List(ctx)
	if err != nil {
		return err
	}

	i := indexOf(routes, slug)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, slug)
	}

	routes[i].Pattern = pattern
	routes[i].Target = target
	routes[i].UpdatedAt = s.now().UTC()

	return s.commit(ctx, routes)
}

// Delete removes a route. It reports false when the slug was not present.
func (s *Store) Delete(ctx context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	routes, err := s.List(ctx)
	if err != nil {
		return false, err
	}

	i := indexOf(routes, slug)
	if i < 0 {
		return false, nil
	}

	routes = append(routes[:i], routes[i+1:]...)

	return true, s.commit(ctx, routes)
}

// DeleteAll removes every route. It reports false when the table was
// already empty, in which case nothing is written or published.
func (s *Store) DeleteAll(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	routes, err := s.List(ctx)
	if err != nil {
		return false, err
	}

	if len(routes) == 0 {
		return false, nil
	}

	return true, s.commit(ctx, []Route{})
}

// commit saves routes and publishes. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, routes []Route) error {
	if err := s.backend.Save(ctx, routes); err != nil {
		return fmt.Errorf("save routes: %w", err)
	}

	if s.publisher == nil {
		return nil
	}

	if err := s.publisher.Publish(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	return nil
}
