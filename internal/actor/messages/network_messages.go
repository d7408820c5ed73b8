// Package messages holds the plain-struct message types exchanged between
// the TCP network layer, session actors, and the simulation actor,
// grounded on the teacher's own actor/messages package layout.
package messages

import "net"

// ClientConnected is sent once by the TCP layer to a freshly spawned
// SessionActor, carrying the accepted connection.
type ClientConnected struct {
	Conn net.Conn
}

// ClientFrame is one decoded (type, payload) frame forwarded from the
// network layer to its owning SessionActor.
type ClientFrame struct {
	Type    uint16
	Payload []byte
}

// ClientDisconnected notifies a SessionActor that its connection closed or
// errored, carrying a human-readable reason for logging.
type ClientDisconnected struct {
	Reason string
}
