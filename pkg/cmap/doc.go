// Package cmap provides a string-keyed map split into independently
// locked shards, for state looked up on every request.
package cmap
