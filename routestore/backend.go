package routestore

import "context"

// Backend loads and saves the whole route table. Implementations must
// preserve order and must not merge partial updates.
type Backend interface {
	Load(ctx context.Context) ([]Route, error)
	Save(ctx context.Context, routes []Route) error
}
