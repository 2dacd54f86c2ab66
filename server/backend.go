package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitalvas/rewriter/config"
	"github.com/vitalvas/rewriter/routestore"
)

// ErrUnknownDriver is returned for a store driver NewBackend does not know.
var ErrUnknownDriver = errors.New("unknown store driver")

// NewBackend opens the route store backend selected by cfg. The returned
// close function releases any connection and is never nil.
func NewBackend(ctx context.Context, cfg config.StoreConfig) (routestore.Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverMemory:
		return routestore.NewMemoryBackend(), noop, nil

	case config.DriverFile:
		return routestore.NewFileBackend(cfg.Path), noop, nil

	case config.DriverRedis:
		b := routestore.DialRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Key)
		if err := b.Ping(ctx); err != nil {
			_ = b.Close()
			return nil, noop, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return b, b.Close, nil

	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
