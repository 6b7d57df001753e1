// Package repl runs a line-oriented interactive session.
//
// Callers register Commands; the REPL adds help, history and exit. A
// command may be typed by any unique prefix of its name.
package repl
