// Package admin implements the authenticated route management API.
//
// Every endpoint requires HTTP Basic credentials. Endpoints that change
// state or expose the live table additionally require an action token
// bound to the user and the action, issued by GET /token. A token stays
// valid for between half and the whole of the configured lifetime.
//
//	GET    /routes              list stored routes
//	GET    /routes/{slug}       one stored route
//	POST   /routes              add_route
//	PUT    /routes/{slug}       update_route
//	DELETE /routes/{slug}       delete_route
//	DELETE /routes              delete_all_routes
//	GET    /verify              router_admin
//	POST   /publish             router_admin
//	GET    /match?path=         router_admin
//	GET    /token?action=       issue a token
package admin
