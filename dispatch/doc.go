// Package dispatch turns a request path into a handler invocation.
//
// Each request walks a small state machine: Idle, then Matching against the
// live rewrite table, then either NotFound or Handling, and finally
// Responded. The matched target's "route" parameter selects a Family and
// the registered Handler for that family produces the response.
//
//	d := dispatch.New(registry,
//		dispatch.WithHandler(dispatch.FamilySPA, spaHandler),
//		dispatch.WithLogger(logger),
//	)
//	http.ListenAndServe(":8080", d)
package dispatch
