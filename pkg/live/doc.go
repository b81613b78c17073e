// Package live serves a bound document over HTTP and keeps it in sync with
// a browser over a websocket.
//
// Every connection gets its own binding engine and its own copy of the
// model. Clients send JSON updates:
//
//	{"op": "set",  "key": "title", "value": "Hello"}
//	{"op": "push", "key": "items", "value": {"name": "four"}}
//	{"op": "pop",  "key": "items"}
//
// Each accepted update is applied to the session model and the re-rendered
// markup is pushed back:
//
//	{"type": "render", "html": "<main>...</main>"}
//
// Routes:
//
//	GET /         the rendered page
//	GET /ws       websocket session
//	GET /healthz  liveness check
//	GET /metrics  Prometheus metrics (path configurable)
package live
