package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPv4Predicates(t *testing.T) {
	require.True(t, IPv4Unspecified.IsUnspecified())
	require.True(t, IPv4LimitedBroadcast.IsLimitedBroadcast())

	mcast, err := ParseIPv4("224.0.0.1")
	require.NoError(t, err)
	assert.True(t, mcast.IsMulticast())
	assert.False(t, mcast.IsUnspecified())

	lla, err := ParseIPv4("169.254.1.1")
	require.NoError(t, err)
	assert.True(t, lla.IsLinkLocal())
}

func TestPrefix4Broadcast(t *testing.T) {
	base, err := ParseIPv4("192.168.0.0")
	require.NoError(t, err)
	p := Prefix4{Base: base, Bits: 24}

	bcast, err := ParseIPv4("192.168.0.255")
	require.NoError(t, err)
	assert.True(t, p.IsNetworkBroadcast(bcast))

	host, err := ParseIPv4("192.168.0.42")
	require.NoError(t, err)
	assert.True(t, p.Contains(host))
	assert.False(t, p.IsNetworkBroadcast(host))
}

func TestIPv6Predicates(t *testing.T) {
	require.True(t, IPv6Unspecified.IsUnspecified())

	mcast, err := ParseIPv6("ff02::1")
	require.NoError(t, err)
	assert.True(t, mcast.IsMulticast())

	lla, err := ParseIPv6("fe80::1")
	require.NoError(t, err)
	assert.True(t, lla.IsLinkLocal())
}

func TestSolicitedNodeMulticast(t *testing.T) {
	target, err := ParseIPv6("2001:db8::1:ff00:abcd")
	require.NoError(t, err)
	want, err := ParseIPv6("ff02::1:ff00:abcd")
	require.NoError(t, err)
	assert.True(t, target.SolicitedNodeMulticast().Equal(want))
}

func TestMACMulticastDerivation(t *testing.T) {
	ip4, err := ParseIPv4("224.0.0.251")
	require.NoError(t, err)
	mac4 := FromMulticastIPv4(ip4)
	assert.Equal(t, MAC{0x01, 0x00, 0x5e, 0x00, 0x00, 0xfb}, mac4)

	ip6, err := ParseIPv6("ff02::1:ff00:abcd")
	require.NoError(t, err)
	mac6 := FromMulticastIPv6(ip6)
	assert.Equal(t, MAC{0x33, 0x33, 0xff, 0x00, 0xab, 0xcd}, mac6)
}

func TestMACPredicates(t *testing.T) {
	assert.True(t, MAC{}.IsUnspecified())
	assert.True(t, Broadcast.IsBroadcast())
	assert.True(t, MAC{0x01, 0, 0, 0, 0, 0}.IsMulticast())
	assert.False(t, MAC{0x02, 0, 0, 0, 0, 0}.IsMulticast())
}
