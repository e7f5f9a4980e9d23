package dualstack

import (
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/stats"
	"github.com/nilgiri-labs/dualstack/tracker"
)

// dispatchFrame is the single entry point for an inbound raw frame,
// driving Ethernet parse and EtherType dispatch to ARP/IPv4/IPv6. Exactly
// one pre-parse and one terminal Rx counter increments per frame along
// the path taken (spec.md §8).
func (s *Stack) dispatchFrame(tr tracker.Tracker, buf []byte) {
	s.stats.IncRx(func(r *stats.Rx) { r.EthPreParse++ })

	e := frame.Ether(buf)
	if !e.IsValid() {
		s.stats.IncRx(func(r *stats.Rx) { r.EthFailedParseDrop++ })
		return
	}

	switch e.EtherType() {
	case frame.EtherTypeARP:
		if !s.config.IP4Support {
			s.stats.IncRx(func(r *stats.Rx) { r.ArpNoProtoSupportDrop++ })
			return
		}
		s.rxARP(tr, e)
	case frame.EtherTypeIPv4:
		if !s.config.IP4Support {
			s.stats.IncRx(func(r *stats.Rx) { r.Ip4NoProtoSupportDrop++ })
			return
		}
		s.rxIP4(tr, e)
	case frame.EtherTypeIPv6:
		if !s.config.IP6Support {
			s.stats.IncRx(func(r *stats.Rx) { r.Ip6NoProtoSupportDrop++ })
			return
		}
		s.rxIP6(tr, e)
	default:
		s.stats.IncRx(func(r *stats.Rx) { r.EthUnknownEtherTypeDrop++ })
	}
}
