package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/stats"
	"github.com/nilgiri-labs/dualstack/tracker"
)

// sendICMP4Echo answers (or originates) an ICMPv4 Echo message, per
// spec.md §4.2.4: replies carry the identical id/seq/data as the
// request, and the reply's tracker links back to the request (tracker
// correlation is the caller's responsibility via tr.Child()).
func (s *Stack) sendICMP4Echo(tr tracker.Tracker, srcIP, dstIP addr.IPv4, typ uint8, id, seq uint16, data []byte) TxStatus {
	buf := make([]byte, frame.HeaderLenICMPv4Echo+len(data))
	m := frame.ICMP4EchoMarshalBinary(buf, typ, id, seq, data)

	s.stats.IncTx(func(t *stats.Tx) {
		t.Icmp4PreAssemble++
		if typ == frame.Icmp4TypeEchoReply {
			t.Icmp4EchoReplySend++
		}
	})
	return s.txIP4(srcIP, dstIP, frame.ProtoICMPv4, m, false, nil)
}

// sendICMP4Unreachable emits a Destination Unreachable message carrying
// the offending datagram's embedded header.
func (s *Stack) sendICMP4Unreachable(tr tracker.Tracker, srcIP, dstIP addr.IPv4, code uint8, embeddedHeader []byte) TxStatus {
	buf := make([]byte, 8+len(embeddedHeader))
	m := frame.ICMP4UnreachableMarshalBinary(buf, code, embeddedHeader)

	s.stats.IncTx(func(t *stats.Tx) { t.Icmp4PreAssemble++ })
	return s.txIP4(srcIP, dstIP, frame.ProtoICMPv4, m, false, nil)
}

// SendICMP4 is the public ICMPv4 Echo entry point for callers outside
// the dispatch core (e.g. a ping client built on this stack). srcIP must
// already be a concrete owned address: the ICMP checksum is computed
// before source-address selection runs, so an unspecified placeholder
// here would checksum against the wrong address.
func (s *Stack) SendICMP4(srcIP, dstIP addr.IPv4, id, seq uint16, data []byte) TxStatus {
	return s.sendICMP4Echo(tracker.New(), srcIP, dstIP, frame.Icmp4TypeEchoRequest, id, seq, data)
}

// sendICMP6Echo is sendICMP4Echo's IPv6 analogue.
func (s *Stack) sendICMP6Echo(tr tracker.Tracker, srcIP, dstIP addr.IPv6, typ uint8, id, seq uint16, data []byte) TxStatus {
	buf := make([]byte, frame.HeaderLenICMPv6Echo+len(data))
	m := frame.ICMP6EchoMarshalBinary(buf, typ, id, seq, data, srcIP.Bytes(), dstIP.Bytes())

	s.stats.IncTx(func(t *stats.Tx) {
		t.Icmp6PreAssemble++
		if typ == frame.Icmp6TypeEchoReply {
			t.Icmp6EchoReplySend++
		}
	})
	return s.txIP6(srcIP, dstIP, frame.NextHeaderICMPv6, m, false, nil)
}

// SendICMP6 is the public ICMPv6 Echo entry point.
func (s *Stack) SendICMP6(srcIP, dstIP addr.IPv6, id, seq uint16, data []byte) TxStatus {
	return s.sendICMP6Echo(tracker.New(), srcIP, dstIP, frame.Icmp6TypeEchoRequest, id, seq, data)
}
