// Package routestore persists operator-defined rewrite routes.
//
// Routes are stored as a single ordered table. Backends only know how to
// load and save the whole table; Store layers the add, update and delete
// operations on top with read-modify-write semantics and notifies a
// Publisher after every successful mutation so the live dispatch table can
// be rebuilt.
//
// Three backends are provided:
//
//	routestore.NewMemoryBackend()
//	routestore.NewFileBackend("/var/lib/rewriter/routes.json")
//	routestore.NewRedisBackend(client, "rewriter:routes")
//
// Within one process mutations are serialized. Across processes sharing a
// backend the last writer wins.
package routestore
