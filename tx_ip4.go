package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/stats"
)

// txIP4 assembles and sends an IPv4 datagram: source selection per
// selectSourceIPv4, then a single frame if the datagram fits the MTU or
// a run of fragments sized to ⌊(MTU−20)/8⌋×8 bytes sharing one
// identification value otherwise, unless the caller set df, in which case
// an oversized datagram is dropped instead of fragmented (spec.md §4.3.1,
// §4.3.2).
func (s *Stack) txIP4(callerSrc, dstIP addr.IPv4, proto uint8, payload []byte, df bool, etherDstOverride *addr.MAC) TxStatus {
	s.stats.IncTx(func(t *stats.Tx) { t.Ip4PreAssemble++ })

	if dstIP.IsUnspecified() {
		s.stats.IncTx(func(t *stats.Tx) { t.Ip4DstUnspecifiedDrop++ })
		return dropped(CauseIp4DstUnspecified)
	}

	resolvedSrc, status, ok := s.selectSourceIPv4(callerSrc, dstIP)
	if !ok {
		return status
	}
	host, ok := s.config.ownedIP4(resolvedSrc)
	if !ok {
		s.stats.IncTx(func(t *stats.Tx) { t.Ip4SrcNotOwnedDrop++ })
		return dropped(CauseIp4SrcNotOwned)
	}

	id := s.nextIPv4ID()
	maxPayload := s.config.MTU - frame.HeaderLenIPv4
	if maxPayload <= 0 {
		s.stats.IncTx(func(t *stats.Tx) { t.MtuExceededNoFragmentAllowedDrop++ })
		return dropped(CauseMtuExceededNoFragmentAllowed)
	}

	if len(payload) <= maxPayload {
		buf := make([]byte, frame.HeaderLenIPv4+len(payload))
		ip4 := frame.IP4MarshalBinary(buf, id, resolvedSrc.Bytes(), dstIP.Bytes())
		ip4 = ip4.SetPayload(payload, proto)
		s.stats.IncTx(func(t *stats.Tx) { t.Ip4MtuOkSend++ })
		return s.resolveAndSendIPv4(host, dstIP, ip4, etherDstOverride)
	}

	if df {
		s.stats.IncTx(func(t *stats.Tx) { t.MtuExceededNoFragmentAllowedDrop++ })
		return dropped(CauseMtuExceededNoFragmentAllowed)
	}

	s.stats.IncTx(func(t *stats.Tx) { t.Ip4MtuExceedFrag++ })
	fragSize := (maxPayload / 8) * 8
	if fragSize <= 0 {
		s.stats.IncTx(func(t *stats.Tx) { t.MtuExceededNoFragmentAllowedDrop++ })
		return dropped(CauseMtuExceededNoFragmentAllowed)
	}

	for offset := 0; offset < len(payload); offset += fragSize {
		end := offset + fragSize
		if end > len(payload) {
			end = len(payload)
		}
		more := end < len(payload)

		buf := make([]byte, frame.HeaderLenIPv4+(end-offset))
		ip4 := frame.IP4MarshalBinary(buf, id, resolvedSrc.Bytes(), dstIP.Bytes())
		ip4 = ip4.SetPayload(payload[offset:end], proto)
		ip4.SetFragmentFields(id, more, offset/8)

		s.stats.IncTx(func(t *stats.Tx) { t.Ip4MtuOkSend++ })
		if st := s.resolveAndSendIPv4(host, dstIP, ip4, etherDstOverride); !st.Passed() {
			return st
		}
	}
	return passed()
}
