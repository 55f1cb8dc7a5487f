// Package simulate provides the in-memory fake server the demo submits
// to. There is no network: latency is a timer and failures are a dice
// roll. Endpoint names like "updateProfile" are labels for messages,
// not addresses.
package simulate
