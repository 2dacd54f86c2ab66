// Package middleware provides the HTTP middleware stack of the rewriter
// server. Every constructor returns a Func, which is compatible with
// chi.Router.Use.
//
// Constructors that take a config validate it up front and return an
// error instead of failing per request:
//
//	limit, err := middleware.BodyLimit(1 << 20)
//	if err != nil {
//	    return err
//	}
//	r.Use(middleware.RequestID(middleware.RequestIDConfig{}), limit)
package middleware

import "net/http"

// Func wraps an http.Handler.
type Func = func(http.Handler) http.Handler
