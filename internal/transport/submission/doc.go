// Package submission delivers completed applications.
//
// HTTPClient posts the application to a remote endpoint. Loopback issues
// a local receipt and is used when no endpoint is configured.
package submission
