package admin

import (
	"net/http"

	"github.com/vitalvas/rewriter/internal/httpjson"
)

type matchView struct {
	Path    string              `json:"path"`
	Matched bool                `json:"matched"`
	Slug    string              `json:"slug,omitempty"`
	BuiltIn bool                `json:"builtin,omitempty"`
	Pattern string              `json:"pattern,omitempty"`
	Query   string              `json:"query,omitempty"`
	Params  map[string][]string `json:"params,omitempty"`
}

func (a *API) verify(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, ActionRouterAdmin, "") {
		return
	}

	v, err := a.registry.Verify(r.Context())
	if err != nil {
		a.observe("verify", ResultError)
		a.internalError(w, "verify", err)
		return
	}

	a.observe("verify", ResultSuccess)
	httpjson.Write(w, http.StatusOK, v)
}

func (a *API) publish(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, ActionRouterAdmin, "") {
		return
	}

	table, err := a.registry.Publish(r.Context())
	if err != nil {
		a.observe("publish", ResultError)
		a.internalError(w, "publish", err)
		return
	}

	a.logger.Info("route table republished", "user", userOf(r), "version", table.Version(), "rules", table.Len())

	v, err := a.registry.Verify(r.Context())
	if err != nil {
		a.observe("publish", ResultError)
		a.internalError(w, "verify", err)
		return
	}

	a.observe("publish", ResultSuccess)
	httpjson.Write(w, http.StatusOK, httpjson.JSON{
		"message":      "Rewrite rules have been flushed and regenerated.",
		"verification": v,
	})
}

func (a *API) match(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, ActionRouterAdmin, "") {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		httpjson.Error(w, http.StatusBadRequest, "Path required")
		return
	}

	view := matchView{Path: path}
	if m, ok := a.registry.Match(path); ok {
		view.Matched = true
		view.Slug = m.Rule.Slug
		view.BuiltIn = m.Rule.BuiltIn
		view.Pattern = m.Rule.Pattern.String()
		view.Query = m.Query()
		view.Params = m.Params
	}

	httpjson.Write(w, http.StatusOK, view)
}

func (a *API) issueToken(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	if !KnownAction(action) {
		httpjson.Error(w, http.StatusBadRequest, "Unknown action")
		return
	}

	httpjson.Write(w, http.StatusOK, httpjson.JSON{
		"action":     action,
		"token":      a.tokens.Issue(userOf(r), action),
		"expires_in": int(a.tokens.Lifetime().Seconds()),
	})
}
