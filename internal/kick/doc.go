// Package kick implements the Kick edge: chatroom resolution and user
// lookups over the public HTTP API, and the pusher-relay WebSocket feed a
// session subscribes to. Only the event subset needed for routing is
// modeled: chat messages, channel subscriptions, and follows.
package kick
