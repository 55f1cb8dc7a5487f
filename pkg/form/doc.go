// Package form validates submission input against a declarative,
// per-field rule schema before it is handed to an action.
//
// Validation is synchronous, pure, and never throws: the caller gets an
// Outcome with a per-field error map and decides whether to submit.
package form
