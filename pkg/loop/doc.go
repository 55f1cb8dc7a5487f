// Package loop implements the cooperative event queue that serializes
// all state transitions in formlab.
//
// The runtime model is single-threaded in the UI sense: action state
// changes, optimistic list edits, and revert timers all execute as
// deferred callbacks on one queue. Work that blocks (simulated network
// latency) happens off-loop and re-enters through Dispatch.
package loop
