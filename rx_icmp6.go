package dualstack

import (
	"time"

	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/ndcache"
	"github.com/nilgiri-labs/dualstack/stats"
	"github.com/nilgiri-labs/dualstack/tracker"
)

// rxICMP6 handles inbound ICMPv6: Echo as ICMPv4, Unreachable correlated
// to a socket the same way, and Neighbor/Router Discovery messages
// maintaining the ND cache and router table (spec.md §4.2.5).
func (s *Stack) rxICMP6(tr tracker.Tracker, srcIP, dstIP addr.IPv6, payload []byte) {
	s.stats.IncRx(func(r *stats.Rx) { r.Icmp6PreParse++ })

	m := frame.ICMP6(payload)
	if !m.IsValid(srcIP.Bytes(), dstIP.Bytes()) {
		s.stats.IncRx(func(r *stats.Rx) { r.Icmp6FailedParseDrop++ })
		return
	}

	switch m.Type() {
	case frame.Icmp6TypeEchoRequest:
		s.stats.IncRx(func(r *stats.Rx) { r.Icmp6EchoRequestRespondEchoReply++ })
		s.sendICMP6Echo(tr.Child(), dstIP, srcIP, frame.Icmp6TypeEchoReply, m.EchoID(), m.EchoSeq(), m.EchoData())

	case frame.Icmp6TypeUnreachable:
		if s.notifySocketOfIP6Unreachable(m.UnreachableData()) {
			s.stats.IncRx(func(r *stats.Rx) { r.Icmp6UnreachableNotifySocket++ })
		} else {
			s.stats.IncRx(func(r *stats.Rx) { r.Icmp6UnreachableNoSocketMatch++ })
		}

	case frame.Icmp6TypeNeighborSolicitation:
		s.rxNeighborSolicitation(tr, srcIP, dstIP, m)

	case frame.Icmp6TypeNeighborAdvertisement:
		s.rxNeighborAdvertisement(srcIP, m)
		s.stats.IncRx(func(r *stats.Rx) { r.Icmp6NaUpdateCache++ })

	case frame.Icmp6TypeRouterAdvertisement:
		s.rxRouterAdvertisement(srcIP, m)
		s.stats.IncRx(func(r *stats.Rx) { r.Icmp6RaUpdateRouterTable++ })

	case frame.Icmp6TypeRouterSolicitation:
		s.stats.IncRx(func(r *stats.Rx) { r.Icmp6RsDrop++ })

	case frame.Icmp6TypeRedirect:
		s.stats.IncRx(func(r *stats.Rx) { r.Icmp6RedirectDrop++ })

	default:
		s.stats.IncRx(func(r *stats.Rx) { r.Icmp6OtherDrop++ })
	}
}

func (s *Stack) notifySocketOfIP6Unreachable(embedded []byte) bool {
	p := frame.IP6(embedded)
	if len(embedded) < frame.HeaderLenIPv6 {
		return false
	}
	chain := p.WalkExtensions()
	transport := chain.Payload
	if len(transport) < 4 {
		return false
	}
	srcIP, err := addr.IPv6FromBytes(p.Src())
	if err != nil {
		return false
	}
	dstIP, err := addr.IPv6FromBytes(p.Dst())
	if err != nil {
		return false
	}
	srcPort := uint16(transport[0])<<8 | uint16(transport[1])
	dstPort := uint16(transport[2])<<8 | uint16(transport[3])

	proto := protoForIP4(chain.NextHeader)
	if proto < 0 {
		return false
	}
	_, ok := s.sockets.Table(proto).Lookup(
		addrFromIPv6(srcIP), srcPort,
		addrFromIPv6(dstIP), dstPort,
	)
	return ok
}

// rxNeighborSolicitation answers a solicitation targeting an owned
// address, and opportunistically learns the sender's link-layer address
// from the SLLA option (spec.md §4.2.5).
func (s *Stack) rxNeighborSolicitation(tr tracker.Tracker, srcIP, dstIP addr.IPv6, m frame.ICMP6) {
	target, err := addr.IPv6FromBytes(m.NSTarget())
	if err != nil {
		return
	}
	if sllaMAC := extractLinkLayerAddress(m.NDOptions(), frame.NdOptSourceLinkLayerAddress); sllaMAC != (addr.MAC{}) {
		if !srcIP.IsUnspecified() {
			s.nd.Insert(srcIP, sllaMAC, false)
		}
	}
	owned, ok := s.config.ownedIP6(target)
	if !ok {
		return
	}
	s.stats.IncRx(func(r *stats.Rx) { r.Icmp6NsRespondNa++ })
	s.sendNeighborAdvertisement(tr.Child(), owned, srcIP)
}

func (s *Stack) rxNeighborAdvertisement(srcIP addr.IPv6, m frame.ICMP6) {
	target, err := addr.IPv6FromBytes(m.NATarget())
	if err != nil {
		return
	}
	mac := extractLinkLayerAddress(m.NDOptions(), frame.NdOptTargetLinkLayerAddress)
	if mac == (addr.MAC{}) {
		return
	}
	s.nd.Insert(target, mac, false)
	_ = srcIP
}

func (s *Stack) rxRouterAdvertisement(srcIP addr.IPv6, m frame.ICMP6) {
	// A Router Advertisement's fixed part is 16 bytes, so its options start
	// earlier than NDOptions' NS/NA offset.
	var options []byte
	if len(m) > 16 {
		options = m[16:]
	}
	mac := extractLinkLayerAddress(options, frame.NdOptSourceLinkLayerAddress)
	var prefixes []ndcache.PrefixInformation
	for _, opt := range frame.ParseNDOptions(options) {
		if opt.Type != frame.NdOptPrefixInformation || len(opt.Value) < 30 {
			continue
		}
		bits := int(opt.Value[0])
		flags := opt.Value[1]
		validLifetime := time.Duration(beUint32(opt.Value[2:6])) * time.Second
		preferredLifetime := time.Duration(beUint32(opt.Value[6:10])) * time.Second
		base, err := addr.IPv6FromBytes(opt.Value[14:30])
		if err != nil {
			continue
		}
		prefixes = append(prefixes, ndcache.PrefixInformation{
			Prefix:            addr.Prefix6{Base: base, Bits: bits},
			OnLink:            flags&0x80 != 0,
			Autonomous:        flags&0x40 != 0,
			ValidLifetime:     validLifetime,
			PreferredLifetime: preferredLifetime,
		})
	}
	s.nd.UpsertRouter(srcIP, mac, 0, prefixes)
}

func extractLinkLayerAddress(options []byte, optType uint8) addr.MAC {
	for _, opt := range frame.ParseNDOptions(options) {
		if opt.Type != optType {
			continue
		}
		if b := opt.LinkLayerAddress(); b != nil {
			mac, err := addr.MACFromBytes(b)
			if err == nil {
				return mac
			}
		}
	}
	return addr.MAC{}
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
