// Package chat implements the presence and message-routing engine: who is
// connected under which nickname, and where each message goes.
package chat

import "github.com/google/uuid"

// Event names on the wire, kept compatible with the existing browser client.
const (
	// Client to server.
	EventClaim = "new user"
	EventSend  = "send message"

	// Server to client.
	EventNewMessage = "new message"
	EventRoster     = "usernames"
	EventWhisper    = "whisper"
	EventReplay     = "load old msgs"
)

// Conn is the transport-facing side of one chat connection. Implementations
// deliver fire-and-forget events to a single client.
type Conn interface {
	// ID identifies the connection for the lifetime of the transport
	// session. Identity comparison, not nickname comparison, guards
	// registry cleanup against stale disconnects.
	ID() uuid.UUID

	// Send queues an event for the client without blocking. It reports
	// false when the client cannot accept it (buffer full or connection
	// gone); the event is then dropped.
	Send(event string, data any) bool
}
