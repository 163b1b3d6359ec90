package bootstrap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gonano/nanogo/internal/bootstrap"
	"github.com/gonano/nanogo/internal/p2p"
)

func TestPeersPickChannelPrefersLowestOutstanding(t *testing.T) {
	net := p2p.NewMemoryNetwork(8)
	a := p2p.NewMemoryChannel(net)
	b := p2p.NewMemoryChannel(net)
	net.Add(a)
	net.Add(b)

	peers := bootstrap.NewPeers(4)
	peers.Sync(net.Channels())

	peers.TrySend(a.ID())
	peers.TrySend(a.ID())

	picked, ok := peers.PickChannel()
	require.True(t, ok)
	require.Equal(t, b.ID(), picked.ID())
}

func TestPeersPickChannelRespectsChannelLimit(t *testing.T) {
	net := p2p.NewMemoryNetwork(8)
	a := p2p.NewMemoryChannel(net)
	net.Add(a)

	peers := bootstrap.NewPeers(2)
	peers.Sync(net.Channels())

	peers.TrySend(a.ID())
	peers.TrySend(a.ID())

	_, ok := peers.PickChannel()
	require.False(t, ok, "channel at its limit must not be picked")
}

func TestPeersTimeoutDecaysOutstandingAndDropsDead(t *testing.T) {
	net := p2p.NewMemoryNetwork(8)
	a := p2p.NewMemoryChannel(net)
	b := p2p.NewMemoryChannel(net)
	net.Add(a)
	net.Add(b)

	peers := bootstrap.NewPeers(4)
	peers.Sync(net.Channels())
	peers.TrySend(a.ID())
	peers.TrySend(a.ID())

	b.SetAlive(false)
	peers.Timeout()

	require.Equal(t, 1, peers.Len(), "dead channel must be dropped")
	snap := peers.Snapshot()
	require.Equal(t, uint32(1), snap[a.ID()], "outstanding must decay by one")
}

func TestPeersReceivedDecrementsOutstandingSaturatingAtZero(t *testing.T) {
	net := p2p.NewMemoryNetwork(8)
	a := p2p.NewMemoryChannel(net)
	net.Add(a)

	peers := bootstrap.NewPeers(4)
	peers.Sync(net.Channels())

	peers.Received(a.ID())
	snap := peers.Snapshot()
	require.Equal(t, uint32(0), snap[a.ID()])
}
