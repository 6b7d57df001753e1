// Package confloader loads layered configuration with koanf.
//
// Sources are applied lowest to highest priority: struct defaults, a
// YAML file, SUPPORTFORM_ environment variables, then explicit values
// such as command-line flags. Watcher reports edits to the file so a
// running server can re-read it.
package confloader
