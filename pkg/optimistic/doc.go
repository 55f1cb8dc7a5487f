// Package optimistic applies tentative list updates before the backing
// action resolves, trading strict consistency for perceived latency.
//
// A tentative item appears in the list the moment it is applied, tagged
// with a temporary token. The caller confirms it with the real result
// once the action resolves; if no confirmation arrives inside the
// revert window, the whole list falls back to its pre-optimistic base.
package optimistic
