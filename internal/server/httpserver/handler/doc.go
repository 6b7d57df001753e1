// Package handler implements the JSON API over the application wizard.
//
// Every response uses the Response envelope. Domain errors map to HTTP
// status codes by the numeric suffix of their code.
package handler
