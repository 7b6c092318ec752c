// Package httpserver wraps the standard http.Server with listen-address
// validation and graceful shutdown for the gateway's API surface.
package httpserver
