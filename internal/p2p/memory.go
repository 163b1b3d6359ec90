package p2p

import (
	"math/rand"
	"sync"
	"sync/atomic"
)

// MemoryChannel is an in-process Channel, used by tests and by the
// in-process two-node harness: messages Send to it are delivered to the
// peer MemoryChannel's owning MemoryNetwork as an Envelope, with no actual
// serialization.
type MemoryChannel struct {
	id   ChannelID
	peer *MemoryChannel
	net  *MemoryNetwork

	alive     int32
	congested int32
}

// NewMemoryChannel returns a channel with no peer wired yet; use Connect to
// link two channels belonging to different networks.
func NewMemoryChannel(net *MemoryNetwork) *MemoryChannel {
	return &MemoryChannel{id: NewChannelID(), net: net, alive: 1}
}

// Connect wires a and b as each other's peer, so Send on one delivers to
// the other's owning network.
func Connect(a, b *MemoryChannel) {
	a.peer = b
	b.peer = a
}

func (c *MemoryChannel) ID() ChannelID { return c.id }

func (c *MemoryChannel) IsAlive() bool { return atomic.LoadInt32(&c.alive) == 1 }

// SetAlive lets tests simulate a peer disconnecting.
func (c *MemoryChannel) SetAlive(v bool) {
	var i int32
	if v {
		i = 1
	}
	atomic.StoreInt32(&c.alive, i)
}

func (c *MemoryChannel) Congested() bool { return atomic.LoadInt32(&c.congested) == 1 }

// SetCongested lets tests simulate transport-level backpressure.
func (c *MemoryChannel) SetCongested(v bool) {
	var i int32
	if v {
		i = 1
	}
	atomic.StoreInt32(&c.congested, i)
}

// Send delivers msg to the peer channel's network inbox, returning false if
// either end is not alive.
func (c *MemoryChannel) Send(msg Message) bool {
	if !c.IsAlive() || c.peer == nil || !c.peer.IsAlive() {
		return false
	}
	c.peer.net.deliver(Envelope{From: c.peer.id, Channel: c.peer, Message: msg})
	return true
}

// MemoryNetwork is an in-process Network: a fixed channel roster plus one
// fan-in inbox all of them deliver into, mirroring how a real transport's
// router dispatches every inbound message onto one queue for the
// response-handler worker pool to drain.
type MemoryNetwork struct {
	mu       sync.Mutex
	channels []Channel
	inbox    chan Envelope
}

// NewMemoryNetwork returns an empty network with the given inbox buffer
// size.
func NewMemoryNetwork(inboxBuffer int) *MemoryNetwork {
	return &MemoryNetwork{inbox: make(chan Envelope, inboxBuffer)}
}

// Add registers ch in the roster returned by Channels.
func (n *MemoryNetwork) Add(ch Channel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.channels = append(n.channels, ch)
}

// Remove drops ch from the roster, simulating a peer disconnect being
// observed by the network layer.
func (n *MemoryNetwork) Remove(id ChannelID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.channels[:0]
	for _, ch := range n.channels {
		if ch.ID() != id {
			out = append(out, ch)
		}
	}
	n.channels = out
}

// Channels returns a shuffled copy of the roster, using math/rand's
// process-wide source, matching peer-scoring's "given a shuffled channel
// list" contract.
func (n *MemoryNetwork) Channels() []Channel {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Channel, len(n.channels))
	copy(out, n.channels)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func (n *MemoryNetwork) deliver(e Envelope) {
	select {
	case n.inbox <- e:
	default:
	}
}

// Receive returns the network's fan-in inbound message channel.
func (n *MemoryNetwork) Receive() <-chan Envelope { return n.inbox }
