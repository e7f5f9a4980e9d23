package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/reassembly"
	"github.com/nilgiri-labs/dualstack/stats"
	"github.com/nilgiri-labs/dualstack/tracker"
)

// rxIP6 parses an inbound IPv6 packet, walks its extension header chain,
// checks destination ownership, reassembles fragments, and dispatches
// the upper-layer protocol (spec.md §4.1, §4.2.3, §4.4).
func (s *Stack) rxIP6(tr tracker.Tracker, e frame.Ether) {
	s.stats.IncRx(func(r *stats.Rx) { r.Ip6PreParse++ })

	p := frame.IP6(e.Payload())
	if !p.IsValid() {
		s.stats.IncRx(func(r *stats.Rx) { r.Ip6FailedParseDrop++ })
		return
	}

	dstIP, err := addr.IPv6FromBytes(p.Dst())
	if err != nil {
		s.stats.IncRx(func(r *stats.Rx) { r.Ip6FailedParseDrop++ })
		return
	}
	if !s.config.ownedOrSolicitedIP6(dstIP) {
		s.stats.IncRx(func(r *stats.Rx) { r.Ip6DstNotOwnedDrop++ })
		return
	}
	srcIP, err := addr.IPv6FromBytes(p.Src())
	if err != nil {
		s.stats.IncRx(func(r *stats.Rx) { r.Ip6FailedParseDrop++ })
		return
	}

	chain := p.WalkExtensions()
	proto := chain.NextHeader
	payload := chain.Payload

	if chain.HasFragment {
		s.stats.IncRx(func(r *stats.Rx) { r.Ip6FragmentReassemble++ })
		key := reassembly.Key{
			Src:       to16(srcIP.Bytes()),
			Dst:       to16(dstIP.Bytes()),
			ID:        chain.FragID,
			NextProto: proto,
		}
		res := s.fragIP6.Process(key, chain.FragOffset*8, payload, chain.FragMore)
		if res.Created {
			s.stats.IncRx(func(r *stats.Rx) { r.ReassemblyFlowCreated++ })
		}
		if res.Dropped {
			return
		}
		if !res.Completed {
			return
		}
		s.stats.IncRx(func(r *stats.Rx) { r.ReassemblyFlowCompleted++ })
		payload = res.Assembled
	}

	switch proto {
	case frame.NextHeaderICMPv6:
		s.rxICMP6(tr, srcIP, dstIP, payload)
	case frame.NextHeaderUDP:
		s.rxUDP6(tr, srcIP, dstIP, payload)
	case frame.NextHeaderTCP:
		s.rxTCP6(tr, srcIP, dstIP, payload)
	default:
		// No ICMPv6 protocol-unreachable is generated for unknown upper
		// layers; the spec's ICMPv6 Unreachable handling only covers
		// port/address unreachable from socket lookup misses (§4.2.5).
	}
}
