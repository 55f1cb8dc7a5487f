// Package server is the demo harness: it exposes registered forms as
// JSON endpoints backed by the simulated backend and streams action
// state transitions over a websocket.
package server
