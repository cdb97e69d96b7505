// Package hub implements the notification fan-out using the actor pattern.
//
// A single goroutine owns the per-stream subscriber registry (no mutexes);
// commands arrive over a channel. Per-connection write goroutines absorb
// slow clients: a subscriber whose send buffer is full is evicted without
// delaying delivery to the rest.
package hub
