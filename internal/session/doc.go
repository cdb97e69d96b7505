// Package session owns the per-stream feed sessions and their supervisor.
//
// Each session runs as one goroutine: it resolves the chatroom, opens the
// feed connection, subscribes, and processes messages strictly in arrival
// order while a nested ticker goroutine keeps the connection alive.
// The supervisor serializes start/stop per stream id and applies the
// reconnect policy when a session dies with a transport error.
package session
