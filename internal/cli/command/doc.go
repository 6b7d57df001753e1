// Package command defines the supportform CLI.
//
// Every command except version opens a Runtime: configuration from file,
// environment and flags, a logger, the draft store and a Wizard hydrated
// from it. Pending writes are flushed before the command returns.
package command
