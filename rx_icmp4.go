package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/stats"
	"github.com/nilgiri-labs/dualstack/tracker"
)

// rxICMP4 handles inbound ICMPv4: Echo Request gets an immediate Echo
// Reply with identical id/seq/data and swapped addresses; Destination
// Unreachable is correlated to the owning socket via the embedded
// header; every other type is counted only (spec.md §4.2.4).
func (s *Stack) rxICMP4(tr tracker.Tracker, srcIP, dstIP addr.IPv4, payload []byte) {
	s.stats.IncRx(func(r *stats.Rx) { r.Icmp4PreParse++ })

	m := frame.ICMP4(payload)
	if !m.IsValid() {
		s.stats.IncRx(func(r *stats.Rx) { r.Icmp4FailedParseDrop++ })
		return
	}

	switch m.Type() {
	case frame.Icmp4TypeEchoRequest:
		s.stats.IncRx(func(r *stats.Rx) { r.Icmp4EchoRequestRespondEchoReply++ })
		s.sendICMP4Echo(tr.Child(), dstIP, srcIP, frame.Icmp4TypeEchoReply, m.EchoID(), m.EchoSeq(), m.EchoData())
	case frame.Icmp4TypeUnreachable:
		if s.notifySocketOfIP4Unreachable(m.UnreachableData()) {
			s.stats.IncRx(func(r *stats.Rx) { r.Icmp4UnreachableNotifySocket++ })
		} else {
			s.stats.IncRx(func(r *stats.Rx) { r.Icmp4UnreachableNoSocketMatch++ })
		}
	default:
		s.stats.IncRx(func(r *stats.Rx) { r.Icmp4OtherDrop++ })
	}
}

// notifySocketOfIP4Unreachable parses the embedded IPv4 header + leading
// transport octets from a Destination Unreachable message and looks up
// the originating socket; it reports whether a match was found. Actual
// delivery to the matched socket handle is left to the handle's own
// notification mechanism (spec.md §4.8), which is out of this core's
// concrete scope.
func (s *Stack) notifySocketOfIP4Unreachable(embedded []byte) bool {
	p := frame.IP4(embedded)
	if len(embedded) < frame.HeaderLenIPv4 {
		return false
	}
	ihl := p.IHL()
	if ihl > len(embedded) || ihl+4 > len(embedded) {
		return false
	}
	srcIP, err := addr.IPv4FromBytes(p.Src())
	if err != nil {
		return false
	}
	dstIP, err := addr.IPv4FromBytes(p.Dst())
	if err != nil {
		return false
	}
	transport := embedded[ihl:]
	srcPort := uint16(transport[0])<<8 | uint16(transport[1])
	dstPort := uint16(transport[2])<<8 | uint16(transport[3])

	proto := protoForIP4(p.Protocol())
	if proto < 0 {
		return false
	}
	_, ok := s.sockets.Table(proto).Lookup(
		addrFromIPv4(srcIP), srcPort,
		addrFromIPv4(dstIP), dstPort,
	)
	return ok
}
