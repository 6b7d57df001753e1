// Package service implements the draft engine behind the application
// wizard.
//
// The Wizard owns the in-memory form state and step. Every change is
// handed to a PersistenceScheduler, which debounces writes of the draft
// envelope to a DraftStore. A ResetCoordinator clears the stored draft
// and, through the shared ResetGate, keeps late writes from restoring it.
//
// SubmissionService and AssistService build on a Wizard: the first
// validates and delivers a completed application, the second drafts
// text for the narrative fields through a TextGenerator.
package service
