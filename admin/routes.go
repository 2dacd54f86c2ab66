package admin

import (
	"errors"
	"mime"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/vitalvas/rewriter/internal/httpjson"
	"github.com/vitalvas/rewriter/rewrite"
	"github.com/vitalvas/rewriter/routestore"
)

type routeInput struct {
	Slug    string `json:"slug" validate:"required,slug"`
	Pattern string `json:"pattern" validate:"required,max=1024"`
	Target  string `json:"target" validate:"required,max=1024"`
	Nonce   string `json:"nonce"`
}

type routeView struct {
	routestore.Route
	ExamplePath string `json:"example_path"`
}

var groupRe = regexp.MustCompile(`\([^)]+\)`)

// examplePath renders a readable sample path for a pattern, with every
// capture group shown as "segment".
func examplePath(pattern string) string {
	p := groupRe.ReplaceAllString(pattern, "segment")
	p = strings.TrimPrefix(p, "^")
	p = strings.TrimSuffix(p, "$")
	p = strings.TrimSuffix(p, "/?")
	return "/" + strings.TrimPrefix(p, "/")
}

func newRouteView(r routestore.Route) routeView {
	return routeView{Route: r, ExamplePath: examplePath(r.Pattern)}
}

func (a *API) listRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := a.store.List(r.Context())
	if err != nil {
		a.internalError(w, "list routes", err)
		return
	}

	views := make([]routeView, 0, len(routes))
	for _, route := range routes {
		views = append(views, newRouteView(route))
	}

	httpjson.Write(w, http.StatusOK, httpjson.JSON{"routes": views})
}

func (a *API) getRoute(w http.ResponseWriter, r *http.Request) {
	route, err := a.store.Get(r.Context(), chi.URLParam(r, "slug"))
	switch {
	case errors.Is(err, routestore.ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "Route not found")
	case err != nil:
		a.internalError(w, "get route", err)
	default:
		httpjson.Write(w, http.StatusOK, newRouteView(route))
	}
}

func (a *API) addRoute(w http.ResponseWriter, r *http.Request) {
	var in routeInput
	if !a.bindAuthorized(w, r, ActionAddRoute, &in) {
		return
	}

	in.Slug = routestore.SanitizeSlug(in.Slug)
	in.Pattern = strings.TrimSpace(in.Pattern)
	in.Target = strings.TrimSpace(in.Target)

	if !a.valid(w, ActionAddRoute, &in) {
		return
	}

	err := a.store.Add(r.Context(), in.Slug, in.Pattern, in.Target)
	if !a.mutationResult(w, r, ActionAddRoute, in.Slug, err) {
		return
	}

	route, err := a.store.Get(r.Context(), in.Slug)
	if err != nil {
		a.internalError(w, "get route", err)
		return
	}

	httpjson.Write(w, http.StatusCreated, httpjson.JSON{
		"message": "Route added successfully!",
		"route":   newRouteView(route),
	})
}

func (a *API) updateRoute(w http.ResponseWriter, r *http.Request) {
	var in routeInput
	if !a.bindAuthorized(w, r, ActionUpdateRoute, &in) {
		return
	}

	in.Slug = chi.URLParam(r, "slug")
	in.Pattern = strings.TrimSpace(in.Pattern)
	in.Target = strings.TrimSpace(in.Target)

	if !a.valid(w, ActionUpdateRoute, &in) {
		return
	}

	err := a.store.Update(r.Context(), in.Slug, in.Pattern, in.Target)
	if !a.mutationResult(w, r, ActionUpdateRoute, in.Slug, err) {
		return
	}

	route, err := a.store.Get(r.Context(), in.Slug)
	if err != nil {
		a.internalError(w, "get route", err)
		return
	}

	httpjson.Write(w, http.StatusOK, httpjson.JSON{
		"message": "Route updated successfully!",
		"route":   newRouteView(route),
	})
}

func (a *API) deleteRoute(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, ActionDeleteRoute, "") {
		return
	}

	slug := chi.URLParam(r, "slug")

	deleted, err := a.store.Delete(r.Context(), slug)
	if err == nil && !deleted {
		err = routestore.ErrNotFound
	}
	if !a.mutationResult(w, r, ActionDeleteRoute, slug, err) {
		return
	}

	httpjson.Write(w, http.StatusOK, httpjson.JSON{"message": "Route deleted successfully!"})
}

func (a *API) deleteAllRoutes(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, ActionDeleteAllRoutes, "") {
		return
	}

	deleted, err := a.store.DeleteAll(r.Context())
	if !a.mutationResult(w, r, ActionDeleteAllRoutes, "", err) {
		return
	}

	message := "All routes deleted successfully!"
	if !deleted {
		message = "There were no routes to delete."
	}

	httpjson.Write(w, http.StatusOK, httpjson.JSON{"message": message, "deleted": deleted})
}

// valid runs struct validation and writes a 400 on failure.
func (a *API) valid(w http.ResponseWriter, action string, in *routeInput) bool {
	err := a.validate.Struct(in)
	if err == nil {
		return true
	}

	a.observe(action, ResultInvalid)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	reason := validationReason(verrs)
	httpjson.Error(w, http.StatusBadRequest, reason)
	return false
}

func validationReason(verrs validator.ValidationErrors) string {
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return "All fields are required."
		}
	}

	switch fe := verrs[0]; fe.Tag() {
	case "slug":
		return "Invalid route slug."
	case "max":
		return "The " + fe.Field() + " field is too long."
	default:
		return "Invalid " + fe.Field() + "."
	}
}

// mutationResult maps a store error to a response. It reports whether the
// caller should write the success response.
func (a *API) mutationResult(w http.ResponseWriter, r *http.Request, action, slug string, err error) bool {
	user := userOf(r)

	switch {
	case err == nil:
		a.logger.Info("route table changed", "action", action, "slug", slug, "user", user)
		a.observe(action, ResultSuccess)
		return true

	case errors.Is(err, routestore.ErrInvalidSlug):
		a.observe(action, ResultInvalid)
		httpjson.Error(w, http.StatusBadRequest, "Invalid route slug.")

	case errors.Is(err, rewrite.ErrInvalidPattern):
		a.observe(action, ResultInvalid)
		httpjson.Error(w, http.StatusBadRequest, "Invalid route pattern.")

	case errors.Is(err, rewrite.ErrInvalidTarget):
		a.observe(action, ResultInvalid)
		httpjson.Error(w, http.StatusBadRequest, "Invalid route target.")

	case errors.Is(err, routestore.ErrDuplicateSlug):
		a.observe(action, ResultConflict)
		httpjson.Error(w, http.StatusConflict, "A route with this slug already exists.")

	case errors.Is(err, routestore.ErrNotFound):
		a.observe(action, ResultNotFound)
		httpjson.Error(w, http.StatusNotFound, "Route not found")

	case errors.Is(err, routestore.ErrPublish):
		// the change is stored; only the live table is stale
		a.logger.Error("route saved but publish failed", "action", action, "slug", slug, "user", user, "error", err)
		a.observe(action, ResultError)
		httpjson.Error(w, http.StatusInternalServerError, "Route saved but publishing the route table failed")

	default:
		a.observe(action, ResultError)
		a.internalError(w, action, err)
	}

	return false
}

func (a *API) internalError(w http.ResponseWriter, op string, err error) {
	a.logger.Error("admin request failed", "op", op, "error", err)
	httpjson.Error(w, http.StatusInternalServerError, "Internal server error")
}

// bindAuthorized checks the request token and decodes the body into in,
// writing a 403 or 400 on failure. A header token is verified before the
// body is read; otherwise the token comes from the decoded body, and a body
// that cannot be decoded without a valid token is refused as unauthorized.
func (a *API) bindAuthorized(w http.ResponseWriter, r *http.Request, action string, in *routeInput) bool {
	if r.Header.Get(TokenHeader) != "" {
		if !a.authorize(w, r, action, "") {
			return false
		}
		if err := bind(r, in); err != nil {
			a.observe(action, ResultInvalid)
			httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
			return false
		}
		return true
	}

	if err := bind(r, in); err != nil {
		if !a.authorize(w, r, action, "") {
			return false
		}
		a.observe(action, ResultInvalid)
		httpjson.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	return a.authorize(w, r, action, in.Nonce)
}

// bind decodes a JSON or form encoded body into in. JSON bodies are
// strict; form bodies ignore fields in doesn't declare.
func bind(r *http.Request, in *routeInput) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		return httpjson.Decode(r, in)
	}

	if err := r.ParseForm(); err != nil {
		return err
	}

	fields := make(map[string]any, len(r.PostForm))
	for key := range r.PostForm {
		fields[key] = r.PostForm.Get(key)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  in,
	})
	if err != nil {
		return err
	}

	return dec.Decode(fields)
}
