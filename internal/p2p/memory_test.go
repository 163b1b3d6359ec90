package p2p_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gonano/nanogo/internal/p2p"
)

func TestMemoryChannelDelivery(t *testing.T) {
	localNet := p2p.NewMemoryNetwork(8)
	remoteNet := p2p.NewMemoryNetwork(8)

	local := p2p.NewMemoryChannel(localNet)
	remote := p2p.NewMemoryChannel(remoteNet)
	p2p.Connect(local, remote)
	localNet.Add(local)
	remoteNet.Add(remote)

	require.True(t, local.Send("ping"))

	select {
	case env := <-remoteNet.Receive():
		require.Equal(t, "ping", env.Message)
		require.Equal(t, remote.ID(), env.From)
	case <-time.After(time.Second):
		t.Fatal("expected delivery within 1s")
	}
}

func TestMemoryChannelDeadPeerRefusesSend(t *testing.T) {
	localNet := p2p.NewMemoryNetwork(8)
	remoteNet := p2p.NewMemoryNetwork(8)

	local := p2p.NewMemoryChannel(localNet)
	remote := p2p.NewMemoryChannel(remoteNet)
	p2p.Connect(local, remote)

	remote.SetAlive(false)
	require.False(t, local.Send("ping"))
}

func TestMemoryNetworkChannelsSnapshot(t *testing.T) {
	net := p2p.NewMemoryNetwork(1)
	a := p2p.NewMemoryChannel(net)
	b := p2p.NewMemoryChannel(net)
	net.Add(a)
	net.Add(b)

	chans := net.Channels()
	require.Len(t, chans, 2)

	net.Remove(a.ID())
	require.Len(t, net.Channels(), 1)
}
