// Package shutdown runs cleanup hooks when the process is asked to stop.
//
// The serve command registers the HTTP server, the wizard and the draft
// store, then blocks in Wait until SIGINT, SIGTERM or context
// cancellation.
package shutdown
