package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vitalvas/rewriter/internal/httpjson"
	"github.com/vitalvas/rewriter/internal/logging"
	"github.com/vitalvas/rewriter/middleware"
	"github.com/vitalvas/rewriter/routestore"
)

// TokenHeader carries the action token.
const TokenHeader = "X-Router-Nonce"

// Results reported to the Observer.
const (
	ResultSuccess      = "success"
	ResultInvalid      = "invalid"
	ResultConflict     = "conflict"
	ResultNotFound     = "not_found"
	ResultForbidden    = "forbidden"
	ResultUnauthorized = "unauthorized"
	ResultError        = "error"
)

// ErrConfig is returned by New for unusable settings.
var ErrConfig = errors.New("admin: invalid config")

// Observer records admin actions.
type Observer interface {
	ObserveAdmin(action, result string)
}

// Config configures the API.
type Config struct {
	// Users maps user names to passwords for HTTP Basic auth.
	Users map[string]string
	Realm string

	Tokens   *Tokens
	Logger   *slog.Logger
	Observer Observer
}

// API serves the admin endpoints.
type API struct {
	store    Store
	registry Registry
	tokens   *Tokens
	logger   *slog.Logger
	observer Observer
	validate *validator.Validate
	handler  http.Handler
}

// New builds the admin API. Users and Tokens are required.
func New(store Store, registry Registry, cfg Config) (*API, error) {
	if store == nil || registry == nil {
		return nil, errors.Join(ErrConfig, errors.New("store and registry are required"))
	}
	if cfg.Tokens == nil {
		return nil, errors.Join(ErrConfig, errors.New("tokens are required"))
	}

	a := &API{
		store:    store,
		registry: registry,
		tokens:   cfg.Tokens,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		validate: newValidator(),
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}

	auth, err := middleware.BasicAuth(middleware.BasicAuthConfig{
		Realm:       cfg.Realm,
		Credentials: cfg.Users,
		OnFailure: func(*http.Request) {
			a.observe("login", ResultUnauthorized)
		},
	})
	if err != nil {
		return nil, errors.Join(ErrConfig, err)
	}

	bodyTypes, err := middleware.ContentType("application/json", "application/x-www-form-urlencoded")
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(auth)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpjson.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpjson.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/routes", func(r chi.Router) {
		r.Get("/", a.listRoutes)
		r.With(bodyTypes).Post("/", a.addRoute)
		r.Delete("/", a.deleteAllRoutes)

		r.Get("/{slug}", a.getRoute)
		r.With(bodyTypes).Put("/{slug}", a.updateRoute)
		r.Delete("/{slug}", a.deleteRoute)
	})

	r.Get("/verify", a.verify)
	r.Post("/publish", a.publish)
	r.Get("/match", a.match)
	r.Get("/token", a.issueToken)

	a.handler = r

	return a, nil
}

// ServeHTTP implements http.Handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *API) observe(action, result string) {
	if a.observer != nil {
		a.observer.ObserveAdmin(action, result)
	}
}

// authorize checks the action token and writes a 403 on failure. The token
// comes from TokenHeader, then bodyToken, then the nonce form or query
// value.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, action, bodyToken string) bool {
	user := userOf(r)

	token := r.Header.Get(TokenHeader)
	if token == "" {
		token = bodyToken
	}
	if token == "" {
		token = r.FormValue("nonce")
	}

	if err := a.tokens.Verify(user, action, token); err != nil {
		a.logger.Warn("admin token rejected", "user", user, "action", action)
		a.observe(action, ResultForbidden)
		httpjson.Error(w, http.StatusForbidden, "Unauthorized request")
		return false
	}

	return true
}

func userOf(r *http.Request) string {
	user, _ := middleware.UserFromContext(r.Context())
	return user
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return routestore.ValidSlug(fl.Field().String())
	})

	return v
}
