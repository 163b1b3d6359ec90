package bootstrap

import (
	"sync"

	"github.com/gonano/nanogo/internal/p2p"
)

// peerScore is the per-channel bookkeeping record.
type peerScore struct {
	channel       p2p.Channel
	outstanding   uint32
	requestCount  uint64
	responseCount uint64
}

// Peers is C1: it tracks outstanding bootstrap requests per channel and
// picks a channel with spare capacity. It is guarded by its own mutex,
// independent of the service loop's shared mutex, per the design
// internal state is guarded by its own mutex").
type Peers struct {
	mu           sync.Mutex
	channelLimit uint32

	scores map[p2p.ChannelID]*peerScore
	// order mirrors the roster ordering from the most recent Sync, which
	// the caller is expected to have shuffled (Network.Channels does this);
	// PickChannel's tie-break ("insertion order after a shuffle") relies on
	// iterating this slice in order.
	order []p2p.ChannelID
}

// NewPeers returns an empty peer roster with the given per-channel
// outstanding-request cap.
func NewPeers(channelLimit uint32) *Peers {
	return &Peers{
		channelLimit: channelLimit,
		scores:       make(map[p2p.ChannelID]*peerScore),
	}
}

// Sync atomically replaces the channel roster. Channels missing from the
// new list are dropped (their score discarded, not decayed); channels
// already tracked keep their existing score so in-flight accounting
// survives a resync.
func (p *Peers) Sync(channels []p2p.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := make(map[p2p.ChannelID]*peerScore, len(channels))
	order := make([]p2p.ChannelID, 0, len(channels))
	for _, ch := range channels {
		id := ch.ID()
		s, ok := p.scores[id]
		if !ok {
			s = &peerScore{channel: ch}
		} else {
			s.channel = ch
		}
		next[id] = s
		order = append(order, id)
	}
	p.scores = next
	p.order = order
}

// PickChannel returns a live, uncongested channel with outstanding <
// channelLimit, preferring the lowest outstanding count; ties go to
// whichever channel comes first in the most recent shuffled roster.
func (p *Peers) PickChannel() (p2p.Channel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var best *peerScore
	for _, id := range p.order {
		s, ok := p.scores[id]
		if !ok || !s.channel.IsAlive() || s.channel.Congested() {
			continue
		}
		if s.outstanding >= p.channelLimit {
			continue
		}
		if best == nil || s.outstanding < best.outstanding {
			best = s
		}
	}
	if best == nil {
		return nil, false
	}
	return best.channel, true
}

// TrySend records an attempt to send on ch: outstanding and request_count
// both increment. Call this only after deciding to send, immediately
// before handing the message to the channel.
func (p *Peers) TrySend(id p2p.ChannelID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.scores[id]; ok {
		s.outstanding++
		s.requestCount++
	}
}

// Received records a response arriving on id: response_count increments,
// outstanding decrements (saturating at zero so a stray double-delivery or
// a resync race can't drive it negative).
func (p *Peers) Received(id p2p.ChannelID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.scores[id]; ok {
		s.responseCount++
		if s.outstanding > 0 {
			s.outstanding--
		}
	}
}

// Timeout drops channels that are no longer alive and decays every
// remaining score's outstanding count by one, so a run of lost responses
// can't permanently exhaust a peer's capacity.
func (p *Peers) Timeout() {
	p.mu.Lock()
	defer p.mu.Unlock()

	order := p.order[:0]
	for _, id := range p.order {
		s, ok := p.scores[id]
		if !ok {
			continue
		}
		if !s.channel.IsAlive() {
			delete(p.scores, id)
			continue
		}
		if s.outstanding > 0 {
			s.outstanding--
		}
		order = append(order, id)
	}
	p.order = order
}

// Len reports how many channels are currently tracked, for container_info
// style introspection.
func (p *Peers) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.scores)
}

// Snapshot returns outstanding counts keyed by channel id, for test
// assertions and metrics export.
func (p *Peers) Snapshot() map[p2p.ChannelID]uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[p2p.ChannelID]uint32, len(p.scores))
	for id, s := range p.scores {
		out[id] = s.outstanding
	}
	return out
}
