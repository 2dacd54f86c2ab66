// Package server assembles the rewriter HTTP service from its
// configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitalvas/rewriter/admin"
	"github.com/vitalvas/rewriter/config"
	"github.com/vitalvas/rewriter/content"
	"github.com/vitalvas/rewriter/dispatch"
	"github.com/vitalvas/rewriter/handlers"
	"github.com/vitalvas/rewriter/internal/httpjson"
	"github.com/vitalvas/rewriter/internal/logging"
	"github.com/vitalvas/rewriter/metrics"
	"github.com/vitalvas/rewriter/middleware"
	"github.com/vitalvas/rewriter/router"
	"github.com/vitalvas/rewriter/routestore"
)

const adminRealm = "rewriter admin"

// Option customizes New.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	backend  routestore.Backend
	registry *prometheus.Registry
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBackend uses b instead of opening the configured store driver.
func WithBackend(b routestore.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithMetricsRegistry registers collectors on reg instead of a fresh
// registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// Server is the assembled service.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *routestore.Store
	registry *router.Registry
	handler  http.Handler
	close    func() error
}

// New opens the store, loads the content catalog, publishes the initial
// route table and builds the HTTP handler.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Server, error) {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = metrics.NewRegistry()
	}

	backend, closeBackend := o.backend, func() error { return nil }
	if backend == nil {
		var err error
		if backend, closeBackend, err = NewBackend(ctx, cfg.Store); err != nil {
			return nil, err
		}
	}

	s, err := build(ctx, cfg, o, backend)
	if err != nil {
		_ = closeBackend()
		return nil, err
	}
	s.close = closeBackend

	return s, nil
}

func build(ctx context.Context, cfg *config.Config, o options, backend routestore.Backend) (*Server, error) {
	m := metrics.New(metrics.WithRegisterer(o.registry))

	store := routestore.New(backend)

	registry, err := router.New(store,
		router.WithLogger(o.logger),
		router.WithBuiltins(router.BuiltinRoutes(cfg.LoadPrefix)),
		router.WithObserver(m),
	)
	if err != nil {
		return nil, err
	}
	store.SetPublisher(registry.Publisher())

	if _, err := registry.Publish(ctx); err != nil {
		return nil, fmt.Errorf("initial publish: %w", err)
	}

	catalog, err := content.LoadCatalog(cfg.Content.Path)
	if err != nil {
		return nil, err
	}

	links, err := content.NewLinker(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	dispatcher := dispatch.New(registry,
		dispatch.WithLogger(o.logger),
		dispatch.WithObserver(m),
		dispatch.WithRequestID(middleware.RequestIDFromRequest),
	)
	handlers.Register(dispatcher, handlers.Config{
		Source:       catalog,
		Links:        links,
		StripScripts: cfg.Content.StripScripts,
	})

	s := &Server{
		cfg:      cfg,
		logger:   o.logger,
		store:    store,
		registry: registry,
	}

	r := chi.NewRouter()
	if err := s.use(r); err != nil {
		return nil, err
	}

	r.Get("/healthz", s.health)
	r.Handle("/metrics", metrics.Handler(o.registry))

	if cfg.Admin.Enabled() {
		tokens, err := admin.NewTokens(cfg.Admin.TokenSecret, cfg.Admin.TokenLifetime)
		if err != nil {
			return nil, err
		}

		api, err := admin.New(store, registry, admin.Config{
			Users:    cfg.Admin.Users,
			Realm:    adminRealm,
			Tokens:   tokens,
			Logger:   o.logger,
			Observer: m,
		})
		if err != nil {
			return nil, err
		}

		r.Mount("/admin", api)
	}

	r.Handle("/*", dispatcher)
	s.handler = r

	return s, nil
}

// use installs the global middleware chain. Recovery is outermost so it
// also covers the other middleware.
func (s *Server) use(r chi.Router) error {
	headers, err := middleware.SecurityHeaders(middleware.SecurityHeadersConfig{})
	if err != nil {
		return err
	}

	bodyLimit, err := middleware.BodyLimit(s.cfg.Server.MaxBodyBytes)
	if err != nil {
		return err
	}

	timeout, err := middleware.Timeout(s.cfg.Server.HandlerTimeout)
	if err != nil {
		return err
	}

	proxies, err := middleware.ProxyHeaders(s.cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	r.Use(
		middleware.Recovery(s.logger),
		proxies,
		middleware.RequestID(middleware.RequestIDConfig{TrustIncoming: true}),
		middleware.AccessLog(s.logger),
		headers,
	)

	if s.cfg.Server.Hostname != "" {
		hostname, err := middleware.Hostname(s.cfg.Server.Hostname)
		if err != nil {
			return err
		}
		r.Use(hostname)
	}

	if level := s.cfg.Server.CompressLevel; level > 0 {
		r.Use(chimw.Compress(level))
	}

	r.Use(bodyLimit, timeout)

	return nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	table := s.registry.Table()

	httpjson.Write(w, http.StatusOK, httpjson.JSON{
		"status":        "ok",
		"table_version": table.Version(),
		"rules":         table.Len(),
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Store returns the route store.
func (s *Server) Store() *routestore.Store {
	return s.store
}

// Registry returns the live route registry.
func (s *Server) Registry() *router.Registry {
	return s.registry
}

// Close releases the store backend.
func (s *Server) Close() error {
	return s.close()
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down server")

		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown: %w", err)
		}

		s.logger.Info("server stopped")
		return nil
	}
}
