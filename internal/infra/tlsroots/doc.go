// Package tlsroots loads the certificates used on both sides of a TLS
// connection.
//
// Pool trusts an extra CA bundle on top of the system roots for outbound
// calls to the submission endpoint and the writing assistant. Keypair
// serves the API certificate and reloads it when the files on disk are
// replaced.
package tlsroots
