// Package config defines the supportform configuration structure, its
// defaults and validation.
package config
