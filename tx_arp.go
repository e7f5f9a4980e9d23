package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/stats"
	"github.com/nilgiri-labs/dualstack/tracker"
)

// arpFrameBuf allocates a fresh Ethernet+ARP frame buffer; ARP packets
// never need fragmentation so a single fixed-size buffer suffices.
func arpFrameBuf() []byte {
	return make([]byte, frame.HeaderLenEthernet+frame.HeaderLenARP)
}

// buildARPFrame assembles a complete Ethernet+ARP frame into buf.
func buildARPFrame(buf []byte, srcMAC, dstMAC addr.MAC, oper uint16, sha, spa, tha, tpa []byte) frame.Ether {
	e := frame.EtherMarshalBinary(buf, frame.EtherTypeARP, srcMAC.Bytes(), dstMAC.Bytes())
	frame.ARPMarshalBinary(e.Payload(), oper, sha, spa, tha, tpa)
	return e
}

// sendArpRequestDirect emits an ARP REQUEST without going through the
// ordinary TX resolution path, per spec.md §9's no-recursion
// requirement: arpcache.Cache invokes this (via arpSolicitor) on a cache
// miss or refresh probe, and must never itself call back into txIP4's
// resolution step.
func (s *Stack) sendArpRequestDirect(target addr.IPv4, targetMAC addr.MAC, dstMAC addr.MAC) {
	srcHost, ok := s.config.egressHostIP4(target)
	if !ok {
		srcHost, ok = s.config.firstHostIP4()
		if !ok {
			return
		}
	}
	buf := arpFrameBuf()
	e := buildARPFrame(buf, s.config.MAC, dstMAC, frame.ArpOperationRequest,
		s.config.MAC.Bytes(), srcHost.Address.Bytes(), targetMAC.Bytes(), target.Bytes())

	s.stats.IncTx(func(t *stats.Tx) {
		t.ArpPreAssemble++
		t.ArpOpRequestSend++
		t.EtherPreAssemble++
		t.EtherDstSpecSend++
	})
	_ = s.writeFrame(e)
}

// sendArpReply answers a REQUEST targeting an address this stack owns.
func (s *Stack) sendArpReply(tr tracker.Tracker, owned HostAddr4, dstMAC addr.MAC, dstIP addr.IPv4) {
	buf := arpFrameBuf()
	e := buildARPFrame(buf, s.config.MAC, dstMAC, frame.ArpOperationReply,
		s.config.MAC.Bytes(), owned.Address.Bytes(), dstMAC.Bytes(), dstIP.Bytes())

	s.stats.IncTx(func(t *stats.Tx) {
		t.ArpPreAssemble++
		t.ArpOpReplySend++
		t.EtherPreAssemble++
		t.EtherDstSpecSend++
	})
	_ = s.writeFrame(e)
}

// SendARP emits an ARP packet on behalf of a caller outside the dispatch
// core (e.g. a gratuitous ARP announcement on startup).
func (s *Stack) SendARP(oper uint16, spa addr.IPv4, tpa addr.IPv4, dstMAC addr.MAC) TxStatus {
	if !s.config.IP4Support {
		s.stats.IncTx(func(t *stats.Tx) { t.ArpNoProtoSupportDrop++ })
		return dropped(CauseArpNoProtocolSupport)
	}
	buf := arpFrameBuf()
	e := buildARPFrame(buf, s.config.MAC, dstMAC, oper, s.config.MAC.Bytes(), spa.Bytes(), dstMAC.Bytes(), tpa.Bytes())

	s.stats.IncTx(func(t *stats.Tx) {
		t.ArpPreAssemble++
		if oper == frame.ArpOperationReply {
			t.ArpOpReplySend++
		} else {
			t.ArpOpRequestSend++
		}
		t.EtherPreAssemble++
		t.EtherDstSpecSend++
	})
	if err := s.writeFrame(e); err != nil {
		return dropped(CauseEtherDstResolutionFail)
	}
	return passed()
}
