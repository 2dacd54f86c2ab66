package admin

import (
	"context"

	"github.com/vitalvas/rewriter/rewrite"
	"github.com/vitalvas/rewriter/router"
	"github.com/vitalvas/rewriter/routestore"
)

// Store is the route storage the API manages. *routestore.Store satisfies
// it.
type Store interface {
	List(ctx context.Context) ([]routestore.Route, error)
	Get(ctx context.Context, slug string) (routestore.Route, error)
	Add(ctx context.Context, slug, pattern, target string) error
	Update(ctx context.Context, slug, pattern, target string) error
	Delete(ctx context.Context, slug string) (bool, error)
	DeleteAll(ctx context.Context) (bool, error)
}

// Registry is the live table the API publishes and inspects.
// *router.Registry satisfies it.
type Registry interface {
	Publish(ctx context.Context) (*rewrite.Table, error)
	Verify(ctx context.Context) (router.Verification, error)
	Match(path string) (*rewrite.Match, bool)
}
