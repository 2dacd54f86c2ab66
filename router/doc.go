// Package router owns the live dispatch table.
//
// A Registry combines the fixed built-in routes with the routes held in a
// routestore and compiles them into a rewrite.Table. Publish rebuilds the
// table and swaps it in atomically, so concurrent lookups observe either
// the previous or the new table and never a partial one:
//
//	store := routestore.New(routestore.NewMemoryBackend())
//	reg, err := router.New(store)
//	store.SetPublisher(reg.Publisher())
//	reg.Publish(ctx)
//
//	m, ok := reg.Match("/spa-page/about")
//
// Built-in routes are always matched before stored routes, so an operator
// defined route can never shadow them.
//
// Verify compares what should be live with what is live. It reports
// success when all rules are present, warning when only some are, and
// error when none are.
package router
