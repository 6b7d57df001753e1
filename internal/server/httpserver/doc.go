// Package httpserver serves the wizard's JSON API.
//
// NewRouter assembles the handler, Prometheus metrics and the middleware
// chain. Server wraps http.Server with the timeouts the API expects.
package httpserver
