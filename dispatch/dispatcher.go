package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vitalvas/rewriter/internal/httpjson"
	"github.com/vitalvas/rewriter/rewrite"
)

const (
	reasonRouteNotFound = "Route not found"
	reasonInternal      = "Internal server error"
)

// Handler serves one route family.
type Handler interface {
	Kind() Kind
	Handle(ctx context.Context, dc *Context) (*Response, error)
}

// Matcher resolves a request path against the live rewrite table.
type Matcher interface {
	Match(path string) (*rewrite.Match, bool)
}

// Observer is notified once per request with its final state.
type Observer interface {
	ObserveDispatch(family Family, state State, status int, elapsed time.Duration)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHandler registers h for family f.
func WithHandler(f Family, h Handler) Option {
	return func(d *Dispatcher) {
		d.handlers[f] = h
	}
}

// WithLogger sets the logger for internal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithObserver sets the observer notified after every request.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// WithRequestID sets the function used to read the request id.
func WithRequestID(fn func(*http.Request) string) Option {
	return func(d *Dispatcher) {
		d.requestID = fn
	}
}

// Dispatcher is an http.Handler that routes every request through the
// rewrite table to a family handler.
type Dispatcher struct {
	matcher   Matcher
	logger    *slog.Logger
	observer  Observer
	requestID func(*http.Request) string

	mu       sync.RWMutex
	handlers map[Family]Handler
}

// New returns a dispatcher reading from m.
func New(m Matcher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		matcher:  m,
		logger:   slog.Default(),
		handlers: make(map[Family]Handler),
		requestID: func(r *http.Request) string {
			return r.Header.Get("X-Request-ID")
		},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Handle registers h for family f, replacing any previous handler.
func (d *Dispatcher) Handle(f Family, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[f] = h
}

func (d *Dispatcher) handler(f Family) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	h, ok := d.handlers[f]
	return h, ok
}

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	state := StateIdle
	family := FamilyUnknown
	status := 0

	defer func() {
		if d.observer != nil {
			d.observer.ObserveDispatch(family, state, status, time.Since(start))
		}
	}()

	state = StateMatching
	m, ok := d.matcher.Match(r.URL.Path)
	if !ok {
		state, status = StateNotFound, http.StatusNotFound
		httpjson.Error(w, status, reasonRouteNotFound)
		return
	}

	dc := newDispatchContext(r, m, d.requestID(r))
	family = dc.Family

	h, ok := d.handler(family)
	if !ok {
		state, status = StateNotFound, http.StatusNotFound
		httpjson.Error(w, status, reasonRouteNotFound)
		return
	}

	state = StateHandling
	resp := d.invoke(r.WithContext(NewContext(r.Context(), dc)), h, dc)

	state, status = StateResponded, resp.Status
	resp.write(w)
}

// invoke runs the handler and converts every outcome into a response.
func (d *Dispatcher) invoke(r *http.Request, h Handler, dc *Context) (resp *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logFailure(dc, fmt.Errorf("panic: %v", rec))
			resp = internalError(h.Kind())
		}
	}()

	resp, err := h.Handle(r.Context(), dc)
	if err != nil {
		var derr *Error
		if errors.As(err, &derr) {
			return derr.render(h.Kind())
		}

		d.logFailure(dc, err)
		return internalError(h.Kind())
	}

	if resp == nil {
		d.logFailure(dc, errors.New("handler returned no response"))
		return internalError(h.Kind())
	}

	return resp
}

func (d *Dispatcher) logFailure(dc *Context, err error) {
	d.logger.Error("dispatch failed",
		"request_id", dc.RequestID,
		"slug", dc.Slug,
		"family", dc.Family.String(),
		"action", dc.Action,
		"error", err,
	)
}

func internalError(kind Kind) *Response {
	return (&Error{Status: http.StatusInternalServerError, Reason: reasonInternal}).render(kind)
}

func newDispatchContext(r *http.Request, m *rewrite.Match, requestID string) *Context {
	params := r.URL.Query()
	for key, values := range m.Params {
		params[key] = values
	}

	return &Context{
		Slug:      m.Rule.Slug,
		Family:    ParseFamily(params.Get("route")),
		Action:    params.Get("action"),
		Params:    params,
		Captures:  m.Captures,
		RequestID: requestID,
	}
}
