// Package memory provides an in-process storage.Backend.
//
// It backs ephemeral sessions and tests. Besides the Backend contract it
// offers fault injection:
//
//   - FailNext makes the next call of an operation return an error
//   - PanicNext makes the next call of an operation panic
//   - Pin keeps a key alive across Delete (but not DropAll), modelling a
//     store whose targeted removal silently does nothing
//
// Thread Safety:
//
// All operations are guarded by a single mutex.
package memory
