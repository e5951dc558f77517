// Package server hosts the Fiber HTTP service that fronts the forge pool.
// It attaches the recover and request-id middlewares, mounts the CDN and
// browse handlers under their configured prefixes, and hands every request
// to the next pool instance. Diagnostics live in the routes subpackage so
// the /-/ surface can grow without touching the serving path.
package server
