// Package action implements the form-action state machine:
// idle → pending → resolved|rejected.
//
// An Action bundles the lifecycle state, the last resolved result, and
// the last rejection into one observable unit. Work functions execute
// off the event loop; transitions apply on it. The caller either polls
// Snapshot or subscribes with OnTransition — there is no suspension
// mechanism and no hidden singleton.
//
// # Concurrency contract
//
// Submissions are independent. Under the default policy a newer Submit
// supersedes a pending one: the older submission is cancelled and its
// completion, should it still arrive, is discarded by sequence number.
// The state a caller observes therefore always belongs to the last
// dispatch. Rejections never clear data from an earlier resolution, so
// a form can keep showing the last good result next to the error.
package action
