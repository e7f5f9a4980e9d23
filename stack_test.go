package dualstack

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/device"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/socket"
	"github.com/nilgiri-labs/dualstack/stats"
	"github.com/nilgiri-labs/dualstack/tracker"
)

func testMAC(last byte) addr.MAC {
	mac, err := addr.MACFromBytes([]byte{0x02, 0x00, 0x00, 0x00, 0x00, last})
	if err != nil {
		panic(err)
	}
	return mac
}

func mustIP4(t *testing.T, s string) addr.IPv4 {
	t.Helper()
	ip, err := addr.ParseIPv4(s)
	require.NoError(t, err)
	return ip
}

func mustIP6(t *testing.T, s string) addr.IPv6 {
	t.Helper()
	ip, err := addr.ParseIPv6(s)
	require.NoError(t, err)
	return ip
}

func newTestStack(t *testing.T, cfg Config) (*Stack, *device.Memory) {
	t.Helper()
	dev := device.NewMemory(1500)
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	s, err := NewStack(cfg, dev, log)
	require.NoError(t, err)
	return s, dev
}

// TestTxIP4OwnedSourceSendsSingleFrame is spec.md §8 Scenario 1: a plain
// tx_ip4 send from an owned source to a peer resolved through an ARP
// cache hit on the local network. The whole stats.Tx bundle is asserted
// by equality, not spot-checked fields, per §3's normative contract.
func TestTxIP4OwnedSourceSendsSingleFrame(t *testing.T) {
	host := HostAddr4{
		Address: mustIP4(t, "192.0.2.10"),
		Prefix:  addr.Prefix4{Base: mustIP4(t, "192.0.2.0"), Bits: 24},
	}
	cfg := Config{
		IP4Support: true,
		MAC:        testMAC(0x01),
		IP4Hosts:   []HostAddr4{host},
	}
	s, dev := newTestStack(t, cfg)

	dst := mustIP4(t, "192.0.2.20")
	dstMAC := testMAC(0x02)
	s.arp.Insert(dst, dstMAC, false)

	status := s.txIP4(host.Address, dst, frame.ProtoUDP, []byte("hello"), false, nil)
	require.True(t, status.Passed())

	sent := dev.Sent()
	require.NotNil(t, sent)
	e := frame.Ether(sent)
	require.True(t, e.IsValid())
	require.Equal(t, frame.EtherTypeIPv4, int(e.EtherType()))
	srcMAC, err := addr.MACFromBytes(e.Src())
	require.NoError(t, err)
	require.Equal(t, cfg.MAC, srcMAC)

	want := stats.Tx{
		Ip4PreAssemble:                               1,
		Ip4MtuOkSend:                                 1,
		EtherPreAssemble:                             1,
		EtherSrcUnspecFill:                            1,
		EtherDstUnspecIp4Lookup:                      1,
		EtherDstUnspecIp4LookupLocnetArpCacheHitSend: 1,
	}
	require.Equal(t, want, s.Stats().SnapshotTx())
}

// TestTxIP4UnownedSourceDropped is spec.md §8 Scenario 2.
func TestTxIP4UnownedSourceDropped(t *testing.T) {
	host := HostAddr4{
		Address: mustIP4(t, "192.0.2.10"),
		Prefix:  addr.Prefix4{Base: mustIP4(t, "192.0.2.0"), Bits: 24},
	}
	cfg := Config{
		IP4Support: true,
		MAC:        testMAC(0x01),
		IP4Hosts:   []HostAddr4{host},
	}
	s, dev := newTestStack(t, cfg)

	notOwned := mustIP4(t, "203.0.113.5")
	dst := mustIP4(t, "192.0.2.20")
	status := s.txIP4(notOwned, dst, frame.ProtoUDP, []byte("hello"), false, nil)
	require.False(t, status.Passed())
	require.Equal(t, CauseIp4SrcNotOwned, status.Cause)
	require.Nil(t, dev.Sent())

	want := stats.Tx{
		Ip4PreAssemble:     1,
		Ip4SrcNotOwnedDrop: 1,
	}
	require.Equal(t, want, s.Stats().SnapshotTx())
}

// TestTxIP6UnspecifiedSourceReplacesWithGateway is spec.md §8 Scenario 3.
func TestTxIP6UnspecifiedSourceReplacesWithGateway(t *testing.T) {
	host := HostAddr6{
		Address: mustIP6(t, "2001:db8::10"),
		Prefix:  addr.Prefix6{Base: mustIP6(t, "2001:db8::"), Bits: 64},
		Gateway: mustIP6(t, "2001:db8::1"),
	}
	cfg := Config{
		IP6Support: true,
		MAC:        testMAC(0x01),
		IP6Hosts:   []HostAddr6{host},
	}
	s, _ := newTestStack(t, cfg)
	s.nd.Insert(host.Gateway, testMAC(0x02), false)

	dstExternal := mustIP6(t, "2001:db8:ffff::99")
	status := s.txIP6(addr.IPv6{}, dstExternal, frame.NextHeaderUDP, []byte("x"), false, nil)
	require.True(t, status.Passed())

	want := stats.Tx{
		Ip6PreAssemble:                          1,
		Ip6MtuOkSend:                            1,
		Ip6SrcNetworkUnspecifiedReplaceExternal: 1,
		EtherPreAssemble:                        1,
		EtherSrcUnspecFill:                      1,
		EtherDstUnspecIp6Lookup:                 1,
		EtherDstUnspecIp6LookupExtnetGwNdCacheHitSend: 1,
	}
	require.Equal(t, want, s.Stats().SnapshotTx())
}

// TestTxIP6UnspecifiedSourceNoGatewayDropped is spec.md §8 Scenario 4.
func TestTxIP6UnspecifiedSourceNoGatewayDropped(t *testing.T) {
	host := HostAddr6{
		Address: mustIP6(t, "2001:db8::10"),
		Prefix:  addr.Prefix6{Base: mustIP6(t, "2001:db8::"), Bits: 64},
	}
	cfg := Config{
		IP6Support: true,
		MAC:        testMAC(0x01),
		IP6Hosts:   []HostAddr6{host},
	}
	s, dev := newTestStack(t, cfg)

	dstExternal := mustIP6(t, "2001:db8:ffff::99")
	status := s.txIP6(addr.IPv6{}, dstExternal, frame.NextHeaderUDP, []byte("x"), false, nil)
	require.False(t, status.Passed())
	require.Equal(t, CauseIp6SrcUnspecified, status.Cause)
	require.Nil(t, dev.Sent())

	want := stats.Tx{
		Ip6PreAssemble:        1,
		Ip6SrcUnspecifiedDrop: 1,
	}
	require.Equal(t, want, s.Stats().SnapshotTx())
}

// TestTxIP6FragmentsLargePayload is spec.md §8 Scenario 5.
func TestTxIP6FragmentsLargePayload(t *testing.T) {
	host := HostAddr6{
		Address: mustIP6(t, "2001:db8::10"),
		Prefix:  addr.Prefix6{Base: mustIP6(t, "2001:db8::"), Bits: 64},
	}
	cfg := Config{
		IP6Support: true,
		MAC:        testMAC(0x01),
		IP6Hosts:   []HostAddr6{host},
		MTU:        1500,
	}
	s, dev := newTestStack(t, cfg)

	dst := mustIP6(t, "2001:db8::20")
	dstMAC := testMAC(0x02)
	payload := make([]byte, 6800)
	status := s.txIP6(host.Address, dst, frame.NextHeaderUDP, payload, false, &dstMAC)
	require.True(t, status.Passed())

	var frames int
	for dev.Sent() != nil {
		frames++
	}
	require.Equal(t, 5, frames)

	want := stats.Tx{
		Ip6PreAssemble:        6,
		Ip6MtuExceedFrag:      1,
		Ip6MtuOkSend:          5,
		Ip6ExtFragPreAssemble: 1,
		Ip6ExtFragSend:        5,
		EtherPreAssemble:      5,
		EtherSrcUnspecFill:    5,
		EtherDstSpecSend:      5,
	}
	require.Equal(t, want, s.Stats().SnapshotTx())
}

// TestTxIP4DfSetOversizedPayloadDropped covers the DF-set fragmentation
// gate added in spec.md §4.3.2: a caller that sets df on a payload
// exceeding the MTU gets MtuExceededNoFragmentAllowed instead of silent
// fragmentation.
func TestTxIP4DfSetOversizedPayloadDropped(t *testing.T) {
	host := HostAddr4{
		Address: mustIP4(t, "192.0.2.10"),
		Prefix:  addr.Prefix4{Base: mustIP4(t, "192.0.2.0"), Bits: 24},
	}
	cfg := Config{
		IP4Support: true,
		MAC:        testMAC(0x01),
		IP4Hosts:   []HostAddr4{host},
		MTU:        100,
	}
	s, dev := newTestStack(t, cfg)

	dst := mustIP4(t, "192.0.2.20")
	payload := make([]byte, 500)
	status := s.txIP4(host.Address, dst, frame.ProtoUDP, payload, true, nil)
	require.False(t, status.Passed())
	require.Equal(t, CauseMtuExceededNoFragmentAllowed, status.Cause)
	require.Nil(t, dev.Sent())

	want := stats.Tx{
		Ip4PreAssemble:                   1,
		MtuExceededNoFragmentAllowedDrop: 1,
	}
	require.Equal(t, want, s.Stats().SnapshotTx())
}

func TestRxArpRequestForOwnedAddressGetsReply(t *testing.T) {
	host := HostAddr4{
		Address: mustIP4(t, "192.0.2.10"),
		Prefix:  addr.Prefix4{Base: mustIP4(t, "192.0.2.0"), Bits: 24},
	}
	cfg := Config{
		IP4Support: true,
		MAC:        testMAC(0x01),
		IP4Hosts:   []HostAddr4{host},
	}
	s, dev := newTestStack(t, cfg)

	peerMAC := testMAC(0x02)
	peerIP := mustIP4(t, "192.0.2.20")

	buf := make([]byte, frame.HeaderLenEthernet+frame.HeaderLenARP)
	e := frame.EtherMarshalBinary(buf, frame.EtherTypeARP, peerMAC.Bytes(), addr.Broadcast.Bytes())
	frame.ARPMarshalBinary(e.Payload(), frame.ArpOperationRequest, peerMAC.Bytes(), peerIP.Bytes(), make([]byte, 6), host.Address.Bytes())

	s.dispatchFrame(tracker.New(), e)

	reply := dev.Sent()
	require.NotNil(t, reply)
	re := frame.Ether(reply)
	require.Equal(t, frame.EtherTypeARP, int(re.EtherType()))
	ra := frame.ARP(re.Payload())
	require.Equal(t, uint16(frame.ArpOperationReply), ra.Operation())

	wantRx := stats.Rx{
		EthPreParse:           1,
		ArpPreParse:           1,
		ArpRequestUpdateCache: 1,
		ArpRequestReply:       1,
	}
	require.Equal(t, wantRx, s.Stats().SnapshotRx())
}

func TestRxIcmp4EchoRequestGetsEchoReply(t *testing.T) {
	host := HostAddr4{
		Address: mustIP4(t, "192.0.2.10"),
		Prefix:  addr.Prefix4{Base: mustIP4(t, "192.0.2.0"), Bits: 24},
	}
	cfg := Config{
		IP4Support: true,
		MAC:        testMAC(0x01),
		IP4Hosts:   []HostAddr4{host},
	}
	s, dev := newTestStack(t, cfg)

	peerIP := mustIP4(t, "192.0.2.20")
	peerMAC := testMAC(0x02)
	s.arp.Insert(peerIP, peerMAC, false)

	icmpBuf := make([]byte, frame.HeaderLenICMPv4Echo+4)
	icmp := frame.ICMP4EchoMarshalBinary(icmpBuf, frame.Icmp4TypeEchoRequest, 7, 1, []byte("ping"))

	ipBuf := make([]byte, frame.HeaderLenIPv4+len(icmp))
	ip4 := frame.IP4MarshalBinary(ipBuf, 99, peerIP.Bytes(), host.Address.Bytes())
	ip4 = ip4.SetPayload(icmp, frame.ProtoICMPv4)

	etherBuf := make([]byte, frame.HeaderLenEthernet+len(ip4))
	e := frame.EtherMarshalBinary(etherBuf, frame.EtherTypeIPv4, peerMAC.Bytes(), cfg.MAC.Bytes())
	copy(e.Payload(), ip4)

	s.dispatchFrame(tracker.New(), e)

	reply := dev.Sent()
	require.NotNil(t, reply)
	re := frame.Ether(reply)
	rip4 := frame.IP4(re.Payload())
	ricmp := frame.ICMP4(rip4.Payload())
	require.Equal(t, uint8(frame.Icmp4TypeEchoReply), ricmp.Type())
	require.Equal(t, uint16(7), ricmp.EchoID())
	require.Equal(t, uint16(1), ricmp.EchoSeq())
	require.Equal(t, []byte("ping"), ricmp.EchoData())

	wantRx := stats.Rx{
		EthPreParse:                      1,
		Ip4PreParse:                      1,
		Icmp4PreParse:                    1,
		Icmp4EchoRequestRespondEchoReply: 1,
	}
	require.Equal(t, wantRx, s.Stats().SnapshotRx())

	wantTx := stats.Tx{
		Icmp4PreAssemble:   1,
		Icmp4EchoReplySend: 1,
		Ip4PreAssemble:     1,
		Ip4MtuOkSend:       1,
		EtherPreAssemble:   1,
		EtherSrcUnspecFill: 1,
		EtherDstUnspecIp4Lookup:                      1,
		EtherDstUnspecIp4LookupLocnetArpCacheHitSend: 1,
	}
	require.Equal(t, wantTx, s.Stats().SnapshotTx())
}

func TestRxIcmp4UnreachableNotifiesMatchingSocket(t *testing.T) {
	host := HostAddr4{
		Address: mustIP4(t, "192.0.2.10"),
		Prefix:  addr.Prefix4{Base: mustIP4(t, "192.0.2.0"), Bits: 24},
	}
	cfg := Config{
		IP4Support: true,
		MAC:        testMAC(0x01),
		IP4Hosts:   []HostAddr4{host},
	}
	s, dev := newTestStack(t, cfg)

	remoteIP := mustIP4(t, "192.0.2.20")
	remoteMAC := testMAC(0x02)

	s.Sockets().UDP.Bind(socket.Key{
		LocalAddr: socket.AddrFromBytes(host.Address.Bytes()),
		LocalPort: 5353,
	}, struct{}{})

	origUDPBuf := make([]byte, frame.HeaderLenUDP+4)
	origUDP := frame.UDPMarshalBinary(origUDPBuf, 5353, 53)
	origUDP, _ = origUDP.AppendPayload([]byte("dns?"))
	origIPBuf := make([]byte, frame.HeaderLenIPv4+len(origUDP))
	origIP4 := frame.IP4MarshalBinary(origIPBuf, 11, host.Address.Bytes(), remoteIP.Bytes())
	origIP4 = origIP4.SetPayload(origUDP, frame.ProtoUDP)

	embedded := origIP4[:frame.HeaderLenIPv4+8]
	icmpBuf := make([]byte, 8+len(embedded))
	icmp := frame.ICMP4UnreachableMarshalBinary(icmpBuf, 3, embedded)

	ipBuf := make([]byte, frame.HeaderLenIPv4+len(icmp))
	ip4 := frame.IP4MarshalBinary(ipBuf, 44, remoteIP.Bytes(), host.Address.Bytes())
	ip4 = ip4.SetPayload(icmp, frame.ProtoICMPv4)

	etherBuf := make([]byte, frame.HeaderLenEthernet+len(ip4))
	e := frame.EtherMarshalBinary(etherBuf, frame.EtherTypeIPv4, remoteMAC.Bytes(), cfg.MAC.Bytes())
	copy(e.Payload(), ip4)

	s.dispatchFrame(tracker.New(), e)
	require.Nil(t, dev.Sent())

	wantRx := stats.Rx{
		EthPreParse:                  1,
		Ip4PreParse:                  1,
		Icmp4PreParse:                1,
		Icmp4UnreachableNotifySocket: 1,
	}
	require.Equal(t, wantRx, s.Stats().SnapshotRx())
}

func TestRxUdp4DeliversToMatchingListener(t *testing.T) {
	host := HostAddr4{
		Address: mustIP4(t, "192.0.2.10"),
		Prefix:  addr.Prefix4{Base: mustIP4(t, "192.0.2.0"), Bits: 24},
	}
	cfg := Config{
		IP4Support: true,
		MAC:        testMAC(0x01),
		IP4Hosts:   []HostAddr4{host},
	}
	s, _ := newTestStack(t, cfg)

	s.Sockets().UDP.Bind(socket.Key{
		LocalAddr: socket.AddrFromBytes(host.Address.Bytes()),
		LocalPort: 9999,
	}, struct{}{})

	remoteIP := mustIP4(t, "192.0.2.30")
	remoteMAC := testMAC(0x03)

	udpBuf := make([]byte, frame.HeaderLenUDP+4)
	u := frame.UDPMarshalBinary(udpBuf, 4000, 9999)
	u, _ = u.AppendPayload([]byte("data"))
	var src4, dst4 [4]byte
	copy(src4[:], remoteIP.Bytes())
	copy(dst4[:], host.Address.Bytes())
	u.SetChecksumIPv4(src4, dst4)

	ipBuf := make([]byte, frame.HeaderLenIPv4+len(u))
	ip4 := frame.IP4MarshalBinary(ipBuf, 22, remoteIP.Bytes(), host.Address.Bytes())
	ip4 = ip4.SetPayload(u, frame.ProtoUDP)

	etherBuf := make([]byte, frame.HeaderLenEthernet+len(ip4))
	e := frame.EtherMarshalBinary(etherBuf, frame.EtherTypeIPv4, remoteMAC.Bytes(), cfg.MAC.Bytes())
	copy(e.Payload(), ip4)

	s.dispatchFrame(tracker.New(), e)

	wantRx := stats.Rx{
		EthPreParse: 1,
		Ip4PreParse: 1,
		UdpPreParse: 1,
		UdpDeliver:  1,
	}
	require.Equal(t, wantRx, s.Stats().SnapshotRx())
}

// TestRxIP4DroppedWhenIP4SupportDisabled covers spec.md §4.2's dispatch
// table: an IPv6-only stack must not process inbound IPv4 or ARP.
func TestRxIP4DroppedWhenIP4SupportDisabled(t *testing.T) {
	host := HostAddr6{
		Address: mustIP6(t, "2001:db8::10"),
		Prefix:  addr.Prefix6{Base: mustIP6(t, "2001:db8::"), Bits: 64},
	}
	cfg := Config{
		IP6Support: true,
		MAC:        testMAC(0x01),
		IP6Hosts:   []HostAddr6{host},
	}
	s, dev := newTestStack(t, cfg)

	peerMAC := testMAC(0x02)
	peerIP := mustIP4(t, "192.0.2.20")
	dstIP := mustIP4(t, "192.0.2.10")

	icmpBuf := make([]byte, frame.HeaderLenICMPv4Echo+4)
	icmp := frame.ICMP4EchoMarshalBinary(icmpBuf, frame.Icmp4TypeEchoRequest, 1, 1, []byte("ping"))
	ipBuf := make([]byte, frame.HeaderLenIPv4+len(icmp))
	ip4 := frame.IP4MarshalBinary(ipBuf, 1, peerIP.Bytes(), dstIP.Bytes())
	ip4 = ip4.SetPayload(icmp, frame.ProtoICMPv4)
	etherBuf := make([]byte, frame.HeaderLenEthernet+len(ip4))
	e := frame.EtherMarshalBinary(etherBuf, frame.EtherTypeIPv4, peerMAC.Bytes(), cfg.MAC.Bytes())
	copy(e.Payload(), ip4)

	s.dispatchFrame(tracker.New(), e)
	require.Nil(t, dev.Sent())

	wantRx := stats.Rx{
		EthPreParse:           1,
		Ip4NoProtoSupportDrop: 1,
	}
	require.Equal(t, wantRx, s.Stats().SnapshotRx())
}

// TestRxNeighborSolicitationToSolicitedNodeMulticastGetsAdvertisement
// covers spec.md §4.2.3: a Neighbor Solicitation addressed to the
// solicited-node multicast derived from an owned address must reach the
// ND responder, not be dropped at the destination-ownership gate.
func TestRxNeighborSolicitationToSolicitedNodeMulticastGetsAdvertisement(t *testing.T) {
	host := HostAddr6{
		Address: mustIP6(t, "2001:db8::10"),
		Prefix:  addr.Prefix6{Base: mustIP6(t, "2001:db8::"), Bits: 64},
	}
	cfg := Config{
		IP6Support: true,
		MAC:        testMAC(0x01),
		IP6Hosts:   []HostAddr6{host},
	}
	s, dev := newTestStack(t, cfg)

	peerIP := mustIP6(t, "2001:db8::20")
	peerMAC := testMAC(0x02)
	s.nd.Insert(peerIP, peerMAC, false)

	solicited := host.Address.SolicitedNodeMulticast()
	solicitedMAC := addr.FromMulticastIPv6(solicited)

	nsBuf := make([]byte, frame.HeaderLenICMPv6NS)
	ns := frame.ICMP6NeighborSolicitationMarshalBinary(nsBuf, host.Address.Bytes(), peerIP.Bytes(), solicited.Bytes(), nil)

	ipBuf := make([]byte, frame.HeaderLenIPv6+len(ns))
	ip6 := frame.IP6MarshalBinary(ipBuf, 255, peerIP.Bytes(), solicited.Bytes())
	ip6 = ip6.SetPayload(ns, frame.NextHeaderICMPv6)

	etherBuf := make([]byte, frame.HeaderLenEthernet+len(ip6))
	e := frame.EtherMarshalBinary(etherBuf, frame.EtherTypeIPv6, peerMAC.Bytes(), solicitedMAC.Bytes())
	copy(e.Payload(), ip6)

	s.dispatchFrame(tracker.New(), e)

	reply := dev.Sent()
	require.NotNil(t, reply)
	re := frame.Ether(reply)
	rip6 := frame.IP6(re.Payload())
	rchain := rip6.WalkExtensions()
	rna := frame.ICMP6(rchain.Payload)
	require.Equal(t, uint8(frame.Icmp6TypeNeighborAdvertisement), rna.Type())

	snap := s.Stats().SnapshotRx()
	require.Equal(t, uint64(1), snap.Icmp6NsRespondNa)
}

func TestStackRunAndCloseShutsDownCleanly(t *testing.T) {
	host := HostAddr4{
		Address: mustIP4(t, "192.0.2.10"),
		Prefix:  addr.Prefix4{Base: mustIP4(t, "192.0.2.0"), Bits: 24},
	}
	cfg := Config{
		IP4Support: true,
		MAC:        testMAC(0x01),
		IP4Hosts:   []HostAddr4{host},
	}
	s, _ := newTestStack(t, cfg)

	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	require.NoError(t, s.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}
