// Package p2p models the narrow transport surface the bootstrap service
// consumes: a roster of channels to peers, each able to send a message and
// report liveness/congestion, plus delivery of inbound messages back to
// whoever is listening. It deliberately does not implement a real network
// stack (dialing, handshakes, wire framing) - those are out of scope for
// this subsystem, which only ever sees the already-established Channel
// abstraction, the same way internal/blocksync.Reactor only ever sees an
// internal/p2p.Channel and never a raw connection.
package p2p

import (
	"github.com/google/uuid"
)

// ChannelID names a single peer connection.
type ChannelID uuid.UUID

func (id ChannelID) String() string { return uuid.UUID(id).String() }

// NewChannelID returns a fresh random channel id.
func NewChannelID() ChannelID { return ChannelID(uuid.New()) }

// Message is anything sent or received over a Channel. The bootstrap
// package's asc_pull_req/asc_pull_ack types are the only Messages this
// module defines; the interface exists so p2p has no compile-time
// dependency on internal/bootstrap.
type Message interface{}

// Envelope pairs an inbound Message with the channel it arrived on, so a
// response handler can reply on the same channel and attribute peer
// scoring correctly.
type Envelope struct {
	From    ChannelID
	Channel Channel
	Message Message
}

// Channel is one live connection to a peer. Send is non-blocking from the
// caller's point of view and reports whether the message was handed to the
// transport; it does not guarantee delivery. Congested lets the service
// loop's channel selection skip peers under transport-level backpressure in
// addition to its own token buckets.
type Channel interface {
	ID() ChannelID
	Send(msg Message) bool
	IsAlive() bool
	Congested() bool
}

// Network exposes the live channel roster bootstrap's peer scoring (C1)
// syncs against. Channels returns a fresh, shuffled slice on every call, so
// repeated calls don't favor the same ordering - callers needing a stable
// view should keep the returned slice.
type Network interface {
	Channels() []Channel

	// Receive returns the fan-in channel every inbound Envelope from every
	// live peer is delivered onto, drained by the service loop's
	// response-handler worker pool.
	Receive() <-chan Envelope
}
