package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/reassembly"
	"github.com/nilgiri-labs/dualstack/stats"
	"github.com/nilgiri-labs/dualstack/tracker"
)

func reassemblyAddr4(ip addr.IPv4) [16]byte {
	var a [16]byte
	copy(a[12:], ip.Bytes())
	return a
}

// rxIP4 parses an inbound IPv4 datagram, checks destination ownership,
// reassembles fragments, and dispatches the upper-layer protocol
// (spec.md §4.1, §4.2.2, §4.4).
func (s *Stack) rxIP4(tr tracker.Tracker, e frame.Ether) {
	s.stats.IncRx(func(r *stats.Rx) { r.Ip4PreParse++ })

	p := frame.IP4(e.Payload())
	if !p.IsValid() {
		s.stats.IncRx(func(r *stats.Rx) { r.Ip4FailedParseDrop++ })
		return
	}

	dstIP, err := addr.IPv4FromBytes(p.Dst())
	if err != nil {
		s.stats.IncRx(func(r *stats.Rx) { r.Ip4FailedParseDrop++ })
		return
	}
	if !s.config.ownedOrBroadcastIP4(dstIP) {
		s.stats.IncRx(func(r *stats.Rx) { r.Ip4DstNotOwnedDrop++ })
		return
	}
	srcIP, err := addr.IPv4FromBytes(p.Src())
	if err != nil {
		s.stats.IncRx(func(r *stats.Rx) { r.Ip4FailedParseDrop++ })
		return
	}

	proto := p.Protocol()
	payload := p.Payload()

	if p.MoreFragments() || p.FragmentOffset() != 0 {
		s.stats.IncRx(func(r *stats.Rx) { r.Ip4FragmentReassemble++ })
		key := reassembly.Key{
			Src:       reassemblyAddr4(srcIP),
			Dst:       reassemblyAddr4(dstIP),
			ID:        uint32(p.ID()),
			NextProto: proto,
		}
		res := s.fragIP4.Process(key, p.FragmentOffset()*8, payload, p.MoreFragments())
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

	s.dispatchIP4Payload(tr, srcIP, dstIP, proto, payload, p)
}

func (s *Stack) dispatchIP4Payload(tr tracker.Tracker, srcIP, dstIP addr.IPv4, proto uint8, payload []byte, original frame.IP4) {
	switch proto {
	case frame.ProtoICMPv4:
		s.rxICMP4(tr, srcIP, dstIP, payload)
	case frame.ProtoUDP:
		s.rxUDP4(tr, srcIP, dstIP, payload)
	case frame.ProtoTCP:
		s.rxTCP4(tr, srcIP, dstIP, payload)
	default:
		s.stats.IncRx(func(r *stats.Rx) { r.Ip4ProtocolUnreachableReply++ })
		embedded := embeddedHeaderIPv4(original)
		s.sendICMP4Unreachable(tr, dstIP, srcIP, 2, embedded)
	}
}

// embeddedHeaderIPv4 returns the offending IPv4 header plus up to its
// first 8 payload octets, the embedded-header convention Destination
// Unreachable messages carry (spec.md §4.2.4).
func embeddedHeaderIPv4(p frame.IP4) []byte {
	ihl := p.IHL()
	end := ihl + 8
	if end > len(p) {
		end = len(p)
	}
	out := make([]byte, end)
	copy(out, p[:end])
	return out
}
