package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/stats"
)

// SendUDP4 sends a UDP datagram over IPv4. srcIP must already be a
// concrete owned address: the transport checksum is computed before
// source-address selection runs. df set with an oversized payload drops
// instead of fragmenting (spec.md §4.3.2).
func (s *Stack) SendUDP4(srcIP addr.IPv4, srcPort uint16, dstIP addr.IPv4, dstPort uint16, payload []byte, df bool) TxStatus {
	s.stats.IncTx(func(t *stats.Tx) { t.UdpPreAssemble++ })

	buf := make([]byte, frame.HeaderLenUDP, frame.HeaderLenUDP+len(payload))
	u := frame.UDPMarshalBinary(buf, srcPort, dstPort)
	u, _ = u.AppendPayload(payload)
	var src4, dst4 [4]byte
	copy(src4[:], srcIP.Bytes())
	copy(dst4[:], dstIP.Bytes())
	u.SetChecksumIPv4(src4, dst4)

	s.stats.IncTx(func(t *stats.Tx) { t.UdpSend++ })
	return s.txIP4(srcIP, dstIP, frame.ProtoUDP, u, df, nil)
}

// SendUDP6 is SendUDP4's IPv6 analogue.
func (s *Stack) SendUDP6(srcIP addr.IPv6, srcPort uint16, dstIP addr.IPv6, dstPort uint16, payload []byte, df bool) TxStatus {
	s.stats.IncTx(func(t *stats.Tx) { t.UdpPreAssemble++ })

	buf := make([]byte, frame.HeaderLenUDP, frame.HeaderLenUDP+len(payload))
	u := frame.UDPMarshalBinary(buf, srcPort, dstPort)
	u, _ = u.AppendPayload(payload)
	var src16, dst16 [16]byte
	copy(src16[:], srcIP.Bytes())
	copy(dst16[:], dstIP.Bytes())
	u.SetChecksumIPv6(src16, dst16)

	s.stats.IncTx(func(t *stats.Tx) { t.UdpSend++ })
	return s.txIP6(srcIP, dstIP, frame.NextHeaderUDP, u, df, nil)
}

// SendTCP4 sends one TCP segment over IPv4. The byte-stream and
// retransmission engine are out of this core's scope (spec.md §1); this
// entry point hands a caller-assembled segment to the dispatch core. df
// set with an oversized segment drops instead of fragmenting.
func (s *Stack) SendTCP4(srcIP addr.IPv4, srcPort uint16, dstIP addr.IPv4, dstPort uint16, seq, ack uint32, flags uint8, window uint16, payload []byte, df bool) TxStatus {
	s.stats.IncTx(func(t *stats.Tx) { t.TcpPreAssemble++ })

	buf := make([]byte, frame.HeaderLenTCP, frame.HeaderLenTCP+len(payload))
	seg := frame.TCPMarshalBinary(buf, srcPort, dstPort, seq, ack, flags, window)
	seg = seg.AppendPayload(payload)
	var src4, dst4 [4]byte
	copy(src4[:], srcIP.Bytes())
	copy(dst4[:], dstIP.Bytes())
	seg.SetChecksumIPv4(src4, dst4)

	s.stats.IncTx(func(t *stats.Tx) { t.TcpSend++ })
	return s.txIP4(srcIP, dstIP, frame.ProtoTCP, seg, df, nil)
}

// SendTCP6 is SendTCP4's IPv6 analogue.
func (s *Stack) SendTCP6(srcIP addr.IPv6, srcPort uint16, dstIP addr.IPv6, dstPort uint16, seq, ack uint32, flags uint8, window uint16, payload []byte, df bool) TxStatus {
	s.stats.IncTx(func(t *stats.Tx) { t.TcpPreAssemble++ })

	buf := make([]byte, frame.HeaderLenTCP, frame.HeaderLenTCP+len(payload))
	seg := frame.TCPMarshalBinary(buf, srcPort, dstPort, seq, ack, flags, window)
	seg = seg.AppendPayload(payload)
	var src16, dst16 [16]byte
	copy(src16[:], srcIP.Bytes())
	copy(dst16[:], dstIP.Bytes())
	seg.SetChecksumIPv6(src16, dst16)

	s.stats.IncTx(func(t *stats.Tx) { t.TcpSend++ })
	return s.txIP6(srcIP, dstIP, frame.NextHeaderTCP, seg, df, nil)
}
