package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/stats"
	"github.com/nilgiri-labs/dualstack/tracker"
)

// rxARP handles an inbound ARP packet: probes (spa=0.0.0.0) are dropped
// silently, REQUEST and REPLY both refresh the cache from the sender's
// (spa, sha), and a REQUEST whose tpa is owned is answered (spec.md
// §4.2.1).
func (s *Stack) rxARP(tr tracker.Tracker, e frame.Ether) {
	s.stats.IncRx(func(r *stats.Rx) { r.ArpPreParse++ })

	a := frame.ARP(e.Payload())
	if !a.IsValid() {
		s.stats.IncRx(func(r *stats.Rx) { r.ArpFailedParseDrop++ })
		return
	}

	spa, err := addr.IPv4FromBytes(a.SPA())
	if err != nil {
		s.stats.IncRx(func(r *stats.Rx) { r.ArpFailedParseDrop++ })
		return
	}
	if spa.IsUnspecified() {
		s.stats.IncRx(func(r *stats.Rx) { r.ArpProbeDrop++ })
		return
	}
	sha, err := addr.MACFromBytes(a.SHA())
	if err != nil {
		s.stats.IncRx(func(r *stats.Rx) { r.ArpFailedParseDrop++ })
		return
	}
	tpa, err := addr.IPv4FromBytes(a.TPA())
	if err != nil {
		s.stats.IncRx(func(r *stats.Rx) { r.ArpFailedParseDrop++ })
		return
	}

	switch a.Operation() {
	case frame.ArpOperationReply:
		s.arp.Insert(spa, sha, false)
		s.stats.IncRx(func(r *stats.Rx) { r.ArpReplyUpdateCache++ })
	case frame.ArpOperationRequest:
		s.arp.Insert(spa, sha, false)
		s.stats.IncRx(func(r *stats.Rx) { r.ArpRequestUpdateCache++ })
		if owned, ok := s.config.ownedIP4(tpa); ok {
			s.stats.IncRx(func(r *stats.Rx) { r.ArpRequestReply++ })
			s.sendArpReply(tr, owned, sha, spa)
		}
	}
}
