// Package clock abstracts wall time and one-shot timers.
//
// Every delay in the wizard engine (debounce, verification, quiescence)
// is armed through a Clock so that tests can drive time explicitly with
// a Fake instead of sleeping.
package clock
