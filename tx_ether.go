package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/stats"
	"github.com/nilgiri-labs/dualstack/tracker"
)

// emitEtherFrame assembles an Ethernet header around payload and writes
// the frame to the device.
func (s *Stack) emitEtherFrame(srcMAC, dstMAC addr.MAC, etherType uint16, payload []byte) TxStatus {
	buf := make([]byte, frame.HeaderLenEthernet+len(payload))
	e := frame.EtherMarshalBinary(buf, etherType, srcMAC.Bytes(), dstMAC.Bytes())
	copy(e.Payload(), payload)
	if err := s.writeFrame(e); err != nil {
		return dropped(CauseEtherDstResolutionFail)
	}
	return passed()
}

// emitEtherFrameFromStack fills ether_src with the stack's own mac_unicast
// address (spec.md §4.3.3) before emitting: the IPv4/IPv6 resolution path
// never carries a caller-supplied ether_src of its own, so it is always
// unspecified at this point.
func (s *Stack) emitEtherFrameFromStack(dstMAC addr.MAC, etherType uint16, payload []byte) TxStatus {
	s.stats.IncTx(func(t *stats.Tx) { t.EtherSrcUnspecFill++ })
	return s.emitEtherFrame(s.config.MAC, dstMAC, etherType, payload)
}

// SendEthernet is the generic Ethernet emission entry point (spec.md
// §4.3.3): srcMAC must be this stack's own address, and dstMAC is
// whatever the caller has already resolved.
func (s *Stack) SendEthernet(etherType uint16, srcMAC, dstMAC addr.MAC, payload []byte) TxStatus {
	s.stats.IncTx(func(t *stats.Tx) { t.EtherPreAssemble++ })
	if srcMAC != s.config.MAC {
		s.stats.IncTx(func(t *stats.Tx) { t.EtherSrcNotOwnedDrop++ })
		return dropped(CauseEtherSrcNotOwned)
	}
	s.stats.IncTx(func(t *stats.Tx) { t.EtherDstSpecSend++ })
	return s.emitEtherFrame(srcMAC, dstMAC, etherType, payload)
}

// resolveAndSendIPv4 implements the "caller-supplied ether_dst takes
// priority, else on-link dst or gateway, else deterministic multicast/
// broadcast derivation, else ARP cache lookup" resolution order from
// spec.md §4.3.3.
func (s *Stack) resolveAndSendIPv4(srcHost HostAddr4, dstIP addr.IPv4, ipBytes []byte, etherDstOverride *addr.MAC) TxStatus {
	s.stats.IncTx(func(t *stats.Tx) { t.EtherPreAssemble++ })

	if etherDstOverride != nil {
		s.stats.IncTx(func(t *stats.Tx) { t.EtherDstSpecSend++ })
		return s.emitEtherFrameFromStack(*etherDstOverride, frame.EtherTypeIPv4, ipBytes)
	}

	s.stats.IncTx(func(t *stats.Tx) { t.EtherDstUnspecIp4Lookup++ })

	if dstIP.IsMulticast() {
		return s.emitEtherFrameFromStack(addr.FromMulticastIPv4(dstIP), frame.EtherTypeIPv4, ipBytes)
	}
	if dstIP.IsLimitedBroadcast() || srcHost.Prefix.IsNetworkBroadcast(dstIP) {
		return s.emitEtherFrameFromStack(addr.Broadcast, frame.EtherTypeIPv4, ipBytes)
	}

	nextHop := dstIP
	extnet := false
	if !srcHost.Prefix.Contains(dstIP) {
		if !srcHost.HasGateway() {
			s.stats.IncTx(func(t *stats.Tx) { t.EtherDstResolutionFailDrop++ })
			return dropped(CauseEtherDstResolutionFail)
		}
		nextHop = srcHost.Gateway
		extnet = true
	}

	mac, ok := s.arp.Find(nextHop)
	if !ok {
		s.stats.IncTx(func(t *stats.Tx) { t.ArpNoResolutionDrop++ })
		return dropped(CauseNoArpResolution)
	}
	if extnet {
		s.stats.IncTx(func(t *stats.Tx) { t.EtherDstUnspecIp4LookupExtnetGwArpCacheHitSend++ })
	} else {
		s.stats.IncTx(func(t *stats.Tx) { t.EtherDstUnspecIp4LookupLocnetArpCacheHitSend++ })
	}
	return s.emitEtherFrameFromStack(mac, frame.EtherTypeIPv4, ipBytes)
}

// resolveAndSendIPv6 is resolveAndSendIPv4's IPv6 analogue, using the ND
// cache and solicited-node multicast derivation in place of ARP.
func (s *Stack) resolveAndSendIPv6(srcHost HostAddr6, dstIP addr.IPv6, ipBytes []byte, etherDstOverride *addr.MAC) TxStatus {
	s.stats.IncTx(func(t *stats.Tx) { t.EtherPreAssemble++ })

	if etherDstOverride != nil {
		s.stats.IncTx(func(t *stats.Tx) { t.EtherDstSpecSend++ })
		return s.emitEtherFrameFromStack(*etherDstOverride, frame.EtherTypeIPv6, ipBytes)
	}

	s.stats.IncTx(func(t *stats.Tx) { t.EtherDstUnspecIp6Lookup++ })

	if dstIP.IsMulticast() {
		return s.emitEtherFrameFromStack(addr.FromMulticastIPv6(dstIP), frame.EtherTypeIPv6, ipBytes)
	}

	nextHop := dstIP
	extnet := false
	if !srcHost.Prefix.Contains(dstIP) {
		if !srcHost.HasGateway() {
			s.stats.IncTx(func(t *stats.Tx) { t.EtherDstResolutionFailDrop++ })
			return dropped(CauseEtherDstResolutionFail)
		}
		nextHop = srcHost.Gateway
		extnet = true
	}

	mac, ok := s.nd.Find(nextHop)
	if !ok {
		s.stats.IncTx(func(t *stats.Tx) { t.NdNoResolutionDrop++ })
		return dropped(CauseNoNdResolution)
	}
	if extnet {
		s.stats.IncTx(func(t *stats.Tx) { t.EtherDstUnspecIp6LookupExtnetGwNdCacheHitSend++ })
	} else {
		s.stats.IncTx(func(t *stats.Tx) { t.EtherDstUnspecIp6LookupLocnetNdCacheHitSend++ })
	}
	return s.emitEtherFrameFromStack(mac, frame.EtherTypeIPv6, ipBytes)
}

// sendNeighborSolicitationDirect emits a Neighbor Solicitation without
// going through the ordinary TX resolution path, mirroring
// sendArpRequestDirect (spec.md §9's no-recursion requirement).
func (s *Stack) sendNeighborSolicitationDirect(target addr.IPv6, targetMAC addr.MAC) {
	srcHost, ok := s.config.egressHostIP6(target)
	if !ok {
		srcHost, ok = s.config.linkLocalHostIP6()
		if !ok {
			return
		}
	}
	dstIP := target.SolicitedNodeMulticast()
	dstMAC := addr.FromMulticastIPv6(dstIP)
	if !targetMAC.IsUnspecified() {
		dstIP = target
		dstMAC = targetMAC
	}

	optsBuf := make([]byte, 8)
	opts := frame.AppendNDOptionLinkLayerAddress(optsBuf[:0], frame.NdOptSourceLinkLayerAddress, s.config.MAC.Bytes())

	buf := make([]byte, frame.HeaderLenICMPv6NS+len(opts))
	ns := frame.ICMP6NeighborSolicitationMarshalBinary(buf, target.Bytes(), srcHost.Address.Bytes(), dstIP.Bytes(), opts)

	ipBuf := make([]byte, frame.HeaderLenIPv6+len(ns))
	ip6 := frame.IP6MarshalBinary(ipBuf, 255, srcHost.Address.Bytes(), dstIP.Bytes())
	ip6 = ip6.SetPayload(ns, frame.NextHeaderICMPv6)

	s.stats.IncTx(func(t *stats.Tx) {
		t.Icmp6PreAssemble++
		t.Icmp6NsSend++
		t.Ip6PreAssemble++
		t.Ip6MtuOkSend++
	})
	s.resolveAndSendIPv6(srcHost, dstIP, ip6, &dstMAC)
}

// sendNeighborAdvertisement answers a Neighbor Solicitation targeting an
// owned address.
func (s *Stack) sendNeighborAdvertisement(tr tracker.Tracker, owned HostAddr6, dstIP addr.IPv6) {
	_ = tr
	optsBuf := make([]byte, 8)
	opts := frame.AppendNDOptionLinkLayerAddress(optsBuf[:0], frame.NdOptTargetLinkLayerAddress, s.config.MAC.Bytes())

	buf := make([]byte, frame.HeaderLenICMPv6NA+len(opts))
	na := frame.ICMP6NeighborAdvertisementMarshalBinary(buf, owned.Address.Bytes(), owned.Address.Bytes(), dstIP.Bytes(), true, true, opts)

	ipBuf := make([]byte, frame.HeaderLenIPv6+len(na))
	ip6 := frame.IP6MarshalBinary(ipBuf, 255, owned.Address.Bytes(), dstIP.Bytes())
	ip6 = ip6.SetPayload(na, frame.NextHeaderICMPv6)

	s.stats.IncTx(func(t *stats.Tx) {
		t.Icmp6PreAssemble++
		t.Icmp6NaSend++
		t.Ip6PreAssemble++
		t.Ip6MtuOkSend++
	})

	mac, ok := s.nd.Find(dstIP)
	if !ok {
		return
	}
	s.resolveAndSendIPv6(owned, dstIP, ip6, &mac)
}
