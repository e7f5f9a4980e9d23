package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/stats"
	"github.com/nilgiri-labs/dualstack/tracker"
)

// rxUDP4/rxUDP6 and rxTCP4/rxTCP6 validate the transport checksum and
// deliver to the matching bound socket via the specificity-ordered
// lookup (spec.md §4.8); a miss is counted and dropped silently (no ICMP
// port-unreachable generation is in this core's scope, spec.md §1
// Non-goals).

func (s *Stack) rxUDP4(tr tracker.Tracker, srcIP, dstIP addr.IPv4, payload []byte) {
	s.stats.IncRx(func(r *stats.Rx) { r.UdpPreParse++ })
	u := frame.UDP(payload)
	var src4, dst4 [4]byte
	copy(src4[:], srcIP.Bytes())
	copy(dst4[:], dstIP.Bytes())
	if !u.IsValidIPv4(src4, dst4) {
		s.stats.IncRx(func(r *stats.Rx) { r.UdpFailedParseDrop++ })
		return
	}
	if _, ok := s.sockets.UDP.Lookup(addrFromIPv4(dstIP), u.DstPort(), addrFromIPv4(srcIP), u.SrcPort()); ok {
		s.stats.IncRx(func(r *stats.Rx) { r.UdpDeliver++ })
		return
	}
	s.stats.IncRx(func(r *stats.Rx) { r.UdpNoSocketMatchDrop++ })
}

func (s *Stack) rxUDP6(tr tracker.Tracker, srcIP, dstIP addr.IPv6, payload []byte) {
	s.stats.IncRx(func(r *stats.Rx) { r.UdpPreParse++ })
	u := frame.UDP(payload)
	var src16, dst16 [16]byte
	copy(src16[:], srcIP.Bytes())
	copy(dst16[:], dstIP.Bytes())
	if !u.IsValidIPv6(src16, dst16) {
		s.stats.IncRx(func(r *stats.Rx) { r.UdpFailedParseDrop++ })
		return
	}
	if _, ok := s.sockets.UDP.Lookup(addrFromIPv6(dstIP), u.DstPort(), addrFromIPv6(srcIP), u.SrcPort()); ok {
		s.stats.IncRx(func(r *stats.Rx) { r.UdpDeliver++ })
		return
	}
	s.stats.IncRx(func(r *stats.Rx) { r.UdpNoSocketMatchDrop++ })
}

func (s *Stack) rxTCP4(tr tracker.Tracker, srcIP, dstIP addr.IPv4, payload []byte) {
	s.stats.IncRx(func(r *stats.Rx) { r.TcpPreParse++ })
	t := frame.TCP(payload)
	var src4, dst4 [4]byte
	copy(src4[:], srcIP.Bytes())
	copy(dst4[:], dstIP.Bytes())
	if !t.IsValidIPv4(src4, dst4) {
		s.stats.IncRx(func(r *stats.Rx) { r.TcpFailedParseDrop++ })
		return
	}
	if _, ok := s.sockets.TCP.Lookup(addrFromIPv4(dstIP), t.DstPort(), addrFromIPv4(srcIP), t.SrcPort()); ok {
		s.stats.IncRx(func(r *stats.Rx) { r.TcpDeliver++ })
		return
	}
	s.stats.IncRx(func(r *stats.Rx) { r.TcpNoSocketMatchDrop++ })
}

func (s *Stack) rxTCP6(tr tracker.Tracker, srcIP, dstIP addr.IPv6, payload []byte) {
	s.stats.IncRx(func(r *stats.Rx) { r.TcpPreParse++ })
	t := frame.TCP(payload)
	var src16, dst16 [16]byte
	copy(src16[:], srcIP.Bytes())
	copy(dst16[:], dstIP.Bytes())
	if !t.IsValidIPv6(src16, dst16) {
		s.stats.IncRx(func(r *stats.Rx) { r.TcpFailedParseDrop++ })
		return
	}
	if _, ok := s.sockets.TCP.Lookup(addrFromIPv6(dstIP), t.DstPort(), addrFromIPv6(srcIP), t.SrcPort()); ok {
		s.stats.IncRx(func(r *stats.Rx) { r.TcpDeliver++ })
		return
	}
	s.stats.IncRx(func(r *stats.Rx) { r.TcpNoSocketMatchDrop++ })
}
