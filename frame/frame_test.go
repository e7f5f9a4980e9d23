package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	macA = []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	macB = []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	ip4A = []byte{192, 168, 1, 1}
	ip4B = []byte{192, 168, 1, 2}
	ip6A = []byte{0xfe, 0x80, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x01}
	ip6B = []byte{0xfe, 0x80, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x02}
)

func TestEtherRoundTrip(t *testing.T) {
	buf := make([]byte, HeaderLenEthernet)
	e := EtherMarshalBinary(buf, EtherTypeIPv4, macA, macB)
	require.True(t, e.IsValid())
	assert.Equal(t, macA, []byte(e.Src()))
	assert.Equal(t, macB, []byte(e.Dst()))
	assert.Equal(t, uint16(EtherTypeIPv4), e.EtherType())
}

func TestARPRoundTrip(t *testing.T) {
	buf := make([]byte, HeaderLenARP)
	a := ARPMarshalBinary(buf, ArpOperationRequest, macA, ip4A, macB, ip4B)
	require.True(t, a.IsValid())
	assert.Equal(t, uint16(ArpOperationRequest), a.Operation())
	assert.Equal(t, macA, []byte(a.SHA()))
	assert.Equal(t, ip4A, []byte(a.SPA()))
	assert.Equal(t, macB, []byte(a.THA()))
	assert.Equal(t, ip4B, []byte(a.TPA()))
}

func TestARPInvalidOperationRejected(t *testing.T) {
	buf := make([]byte, HeaderLenARP)
	a := ARPMarshalBinary(buf, ArpOperationRequest, macA, ip4A, macB, ip4B)
	a[7] = 9 // operation = 9
	assert.False(t, a.IsValid())
}

func TestIP4RoundTrip(t *testing.T) {
	payload := []byte("hello world")
	buf := make([]byte, HeaderLenIPv4+len(payload))
	p := IP4MarshalBinary(buf, 42, ip4A, ip4B)
	p = p.SetPayload(payload, ProtoUDP)
	require.True(t, p.IsValid())
	assert.Equal(t, ip4A, []byte(p.Src()))
	assert.Equal(t, ip4B, []byte(p.Dst()))
	assert.Equal(t, uint8(ProtoUDP), p.Protocol())
	assert.Equal(t, payload, p.Payload())
	assert.Equal(t, uint16(42), p.ID())
}

func TestIP4FragmentFields(t *testing.T) {
	buf := make([]byte, HeaderLenIPv4+8)
	p := IP4MarshalBinary(buf, 7, ip4A, ip4B)
	p = p.SetPayload(make([]byte, 8), ProtoUDP)
	p.SetFragmentFields(7, true, 185)
	require.True(t, p.IsValid())
	assert.True(t, p.MoreFragments())
	assert.Equal(t, 185, p.FragmentOffset())
}

func TestIP6RoundTrip(t *testing.T) {
	payload := []byte("ipv6 payload data")
	buf := make([]byte, HeaderLenIPv6+len(payload))
	p := IP6MarshalBinary(buf, 64, ip6A, ip6B)
	p = p.SetPayload(payload, NextHeaderUDP)
	require.True(t, p.IsValid())
	assert.Equal(t, ip6A, []byte(p.Src()))
	assert.Equal(t, ip6B, []byte(p.Dst()))
	assert.Equal(t, payload, p.Payload())

	res := p.WalkExtensions()
	assert.Equal(t, uint8(NextHeaderUDP), res.NextHeader)
	assert.False(t, res.HasFragment)
	assert.Equal(t, payload, res.Payload)
}

func TestIP6ExtensionFragmentChain(t *testing.T) {
	inner := []byte("fragment payload")
	fragBuf := make([]byte, HeaderLenIPv6Frag)
	frag := ExtFragMarshalBinary(fragBuf, NextHeaderUDP, 5, true, 0xdeadbeef)

	payload := append([]byte{}, frag...)
	payload = append(payload, inner...)

	buf := make([]byte, HeaderLenIPv6+len(payload))
	p := IP6MarshalBinary(buf, 64, ip6A, ip6B)
	p = p.SetPayload(payload, NextHeaderFragment)
	require.True(t, p.IsValid())

	res := p.WalkExtensions()
	assert.True(t, res.HasFragment)
	assert.Equal(t, uint8(NextHeaderUDP), res.NextHeader)
	assert.Equal(t, uint32(0xdeadbeef), res.FragID)
	assert.Equal(t, 5, res.FragOffset)
	assert.True(t, res.FragMore)
	assert.Equal(t, inner, res.Payload)
}

func TestICMP4EchoRoundTrip(t *testing.T) {
	data := []byte("ping")
	buf := make([]byte, HeaderLenICMPv4Echo+len(data))
	m := ICMP4EchoMarshalBinary(buf, Icmp4TypeEchoRequest, 1, 2, data)
	require.True(t, m.IsValid())
	assert.Equal(t, uint8(Icmp4TypeEchoRequest), m.Type())
	assert.Equal(t, uint16(1), m.EchoID())
	assert.Equal(t, uint16(2), m.EchoSeq())
	assert.Equal(t, data, m.EchoData())
}

func TestICMP4UnreachableRoundTrip(t *testing.T) {
	embedded := []byte{0x45, 0, 0, 28, 0, 0, 0, 0}
	buf := make([]byte, 8+len(embedded))
	m := ICMP4UnreachableMarshalBinary(buf, 3, embedded)
	require.True(t, m.IsValid())
	assert.Equal(t, uint8(Icmp4TypeUnreachable), m.Type())
	assert.Equal(t, uint8(3), m.Code())
	assert.Equal(t, embedded, m.UnreachableData())
}

func TestICMP6EchoRoundTrip(t *testing.T) {
	data := []byte("ping6")
	buf := make([]byte, HeaderLenICMPv6Echo+len(data))
	m := ICMP6EchoMarshalBinary(buf, Icmp6TypeEchoRequest, 9, 10, data, ip6A, ip6B)
	require.True(t, m.IsValid(ip6A, ip6B))
	assert.Equal(t, uint16(9), m.EchoID())
	assert.Equal(t, uint16(10), m.EchoSeq())
	assert.Equal(t, data, m.EchoData())
}

func TestICMP6NeighborSolicitationAndOptions(t *testing.T) {
	var opts []byte
	opts = AppendNDOptionLinkLayerAddress(opts, NdOptSourceLinkLayerAddress, macA)

	buf := make([]byte, HeaderLenICMPv6NS+len(opts))
	m := ICMP6NeighborSolicitationMarshalBinary(buf, ip6B, ip6A, ip6B, opts)
	require.True(t, m.IsValid(ip6A, ip6B))
	assert.Equal(t, ip6B, []byte(m.NSTarget()))

	parsed := ParseNDOptions(m.NDOptions())
	require.Len(t, parsed, 1)
	assert.Equal(t, uint8(NdOptSourceLinkLayerAddress), parsed[0].Type)
	assert.Equal(t, macA, parsed[0].LinkLayerAddress())
}

func TestICMP6NeighborAdvertisementFlags(t *testing.T) {
	buf := make([]byte, HeaderLenICMPv6NA)
	m := ICMP6NeighborAdvertisementMarshalBinary(buf, ip6A, ip6A, ip6B, true, true, nil)
	require.True(t, m.IsValid(ip6A, ip6B))
	assert.Equal(t, uint8(0x60), m.NAFlags())
	assert.Equal(t, ip6A, []byte(m.NATarget()))
}

func TestUDPRoundTripIPv4(t *testing.T) {
	payload := []byte("udp over v4")
	buf := make([]byte, HeaderLenUDP)
	u := UDPMarshalBinary(buf, 1234, 5678)
	u, err := u.AppendPayload(payload)
	require.NoError(t, err)
	var s, d [4]byte
	copy(s[:], ip4A)
	copy(d[:], ip4B)
	u.SetChecksumIPv4(s, d)
	require.True(t, u.IsValidIPv4(s, d))
	assert.Equal(t, uint16(1234), u.SrcPort())
	assert.Equal(t, uint16(5678), u.DstPort())
	assert.Equal(t, payload, u.Payload())
}

func TestUDPRoundTripIPv6(t *testing.T) {
	payload := []byte("udp over v6")
	buf := make([]byte, HeaderLenUDP)
	u := UDPMarshalBinary(buf, 1111, 2222)
	u, err := u.AppendPayload(payload)
	require.NoError(t, err)
	var s, d [16]byte
	copy(s[:], ip6A)
	copy(d[:], ip6B)
	u.SetChecksumIPv6(s, d)
	require.True(t, u.IsValidIPv6(s, d))
}

func TestTCPRoundTripIPv4(t *testing.T) {
	payload := []byte("tcp over v4")
	buf := make([]byte, HeaderLenTCP)
	tcp := TCPMarshalBinary(buf, 80, 443, 100, 200, TcpFlagSYN|TcpFlagACK, 65535)
	tcp = tcp.AppendPayload(payload)
	var s, d [4]byte
	copy(s[:], ip4A)
	copy(d[:], ip4B)
	tcp.SetChecksumIPv4(s, d)
	require.True(t, tcp.IsValidIPv4(s, d))
	assert.Equal(t, uint16(80), tcp.SrcPort())
	assert.Equal(t, uint16(443), tcp.DstPort())
	assert.Equal(t, uint32(100), tcp.Seq())
	assert.Equal(t, uint32(200), tcp.Ack())
	assert.Equal(t, payload, tcp.Payload())
}

func TestTCPRoundTripIPv6(t *testing.T) {
	buf := make([]byte, HeaderLenTCP)
	tcp := TCPMarshalBinary(buf, 1, 2, 0, 0, TcpFlagSYN, 1024)
	var s, d [16]byte
	copy(s[:], ip6A)
	copy(d[:], ip6B)
	tcp.SetChecksumIPv6(s, d)
	require.True(t, tcp.IsValidIPv6(s, d))
}
