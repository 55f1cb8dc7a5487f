// Package reactive provides the minimal reactive primitive used across
// formlab: a thread-safe Signal with explicit subscription.
package reactive
