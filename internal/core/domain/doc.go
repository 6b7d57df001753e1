// Package domain defines the core domain models for the application wizard.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - FormData: the flat set of answers collected across the three steps
//   - Patch: a partial update merged shallowly into FormData
//   - Envelope: the unit persisted to durable storage
//   - Validation: per-step field rules used before navigation and submission
//   - Errors: coded domain errors
package domain
