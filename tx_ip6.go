package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/stats"
)

// txIP6 assembles and sends an IPv6 packet: source selection per
// selectSourceIPv6, then a single base header if the payload fits the
// MTU, or a run of Fragment-extension-header fragments sharing one
// 32-bit identification otherwise, unless the caller set df, in which
// case an oversized payload is dropped instead of fragmented (spec.md
// §4.3.1, §4.3.2).
func (s *Stack) txIP6(callerSrc, dstIP addr.IPv6, proto uint8, payload []byte, df bool, etherDstOverride *addr.MAC) TxStatus {
	s.stats.IncTx(func(t *stats.Tx) { t.Ip6PreAssemble++ })

	if dstIP.IsUnspecified() {
		s.stats.IncTx(func(t *stats.Tx) { t.Ip6DstUnspecifiedDrop++ })
		return dropped(CauseIp6DstUnspecified)
	}

	resolvedSrc, status, ok := s.selectSourceIPv6(callerSrc, dstIP)
	if !ok {
		return status
	}
	host, ok := s.config.ownedIP6(resolvedSrc)
	if !ok {
		s.stats.IncTx(func(t *stats.Tx) { t.Ip6SrcNotOwnedDrop++ })
		return dropped(CauseIp6SrcNotOwned)
	}

	maxPayload := s.config.MTU - frame.HeaderLenIPv6
	if maxPayload <= 0 {
		s.stats.IncTx(func(t *stats.Tx) { t.MtuExceededNoFragmentAllowedDrop++ })
		return dropped(CauseMtuExceededNoFragmentAllowed)
	}

	if len(payload) <= maxPayload {
		buf := make([]byte, frame.HeaderLenIPv6+len(payload))
		ip6 := frame.IP6MarshalBinary(buf, 64, resolvedSrc.Bytes(), dstIP.Bytes())
		ip6 = ip6.SetPayload(payload, proto)
		s.stats.IncTx(func(t *stats.Tx) { t.Ip6MtuOkSend++ })
		return s.resolveAndSendIPv6(host, dstIP, ip6, etherDstOverride)
	}

	if df {
		s.stats.IncTx(func(t *stats.Tx) { t.MtuExceededNoFragmentAllowedDrop++ })
		return dropped(CauseMtuExceededNoFragmentAllowed)
	}

	s.stats.IncTx(func(t *stats.Tx) {
		t.Ip6MtuExceedFrag++
		t.Ip6ExtFragPreAssemble++
	})

	fragDataSize := ((maxPayload - frame.HeaderLenIPv6Frag) / 8) * 8
	if fragDataSize <= 0 {
		s.stats.IncTx(func(t *stats.Tx) { t.MtuExceededNoFragmentAllowedDrop++ })
		return dropped(CauseMtuExceededNoFragmentAllowed)
	}
	id := s.nextIPv6ID()

	for offset := 0; offset < len(payload); offset += fragDataSize {
		end := offset + fragDataSize
		if end > len(payload) {
			end = len(payload)
		}
		more := end < len(payload)

		fragBuf := make([]byte, frame.HeaderLenIPv6Frag+(end-offset))
		frame.ExtFragMarshalBinary(fragBuf, proto, offset/8, more, id)
		copy(fragBuf[frame.HeaderLenIPv6Frag:], payload[offset:end])

		s.stats.IncTx(func(t *stats.Tx) { t.Ip6PreAssemble++ })
		buf := make([]byte, frame.HeaderLenIPv6+len(fragBuf))
		ip6 := frame.IP6MarshalBinary(buf, 64, resolvedSrc.Bytes(), dstIP.Bytes())
		ip6 = ip6.SetPayload(fragBuf, frame.NextHeaderFragment)

		s.stats.IncTx(func(t *stats.Tx) {
			t.Ip6ExtFragSend++
			t.Ip6MtuOkSend++
		})
		if st := s.resolveAndSendIPv6(host, dstIP, ip6, etherDstOverride); !st.Passed() {
			return st
		}
	}
	return passed()
}
