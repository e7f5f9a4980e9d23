package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/stats"
)

// selectSourceIPv4 implements spec.md §4.3.1's source-address selection
// table: an owned unicast address passes through unchanged; the
// unspecified, limited-broadcast, network-broadcast and multicast
// special cases are replaced with a concrete owned address or dropped.
func (s *Stack) selectSourceIPv4(src, dst addr.IPv4) (addr.IPv4, TxStatus, bool) {
	switch {
	case src.IsUnspecified():
		if host, ok := s.config.egressHostIP4(dst); ok {
			s.stats.IncTx(func(t *stats.Tx) { t.Ip4SrcUnspecifiedReplace++ })
			return host.Address, passed(), true
		}
		if host, ok := s.config.anyHostWithGatewayIP4(); ok {
			s.stats.IncTx(func(t *stats.Tx) { t.Ip4SrcUnspecifiedReplace++ })
			return host.Address, passed(), true
		}
		s.stats.IncTx(func(t *stats.Tx) { t.Ip4SrcUnspecifiedDrop++ })
		return addr.IPv4{}, dropped(CauseIp4SrcUnspecified), false

	case src.IsLimitedBroadcast():
		if host, ok := s.config.egressHostIP4(dst); ok {
			s.stats.IncTx(func(t *stats.Tx) { t.Ip4SrcLimitedBroadcastReplace++ })
			return host.Address, passed(), true
		}
		if host, ok := s.config.firstHostIP4(); ok {
			s.stats.IncTx(func(t *stats.Tx) { t.Ip4SrcLimitedBroadcastReplace++ })
			return host.Address, passed(), true
		}
		s.stats.IncTx(func(t *stats.Tx) { t.Ip4SrcLimitedBroadcastDrop++ })
		return addr.IPv4{}, dropped(CauseIp4SrcLimitedBroadcast), false

	case src.IsMulticast():
		if host, ok := s.config.firstHostIP4(); ok {
			s.stats.IncTx(func(t *stats.Tx) { t.Ip4SrcMulticastReplace++ })
			return host.Address, passed(), true
		}
		s.stats.IncTx(func(t *stats.Tx) { t.Ip4SrcMulticastDrop++ })
		return addr.IPv4{}, dropped(CauseIp4SrcMulticast), false
	}

	if _, ok := s.config.ownedIP4(src); ok {
		return src, passed(), true
	}

	for _, h := range s.config.IP4Hosts {
		if h.Prefix.IsNetworkBroadcast(src) {
			s.stats.IncTx(func(t *stats.Tx) { t.Ip4SrcNetworkBroadcastReplace++ })
			return h.Address, passed(), true
		}
	}

	s.stats.IncTx(func(t *stats.Tx) { t.Ip4SrcNotOwnedDrop++ })
	return addr.IPv4{}, dropped(CauseIp4SrcNotOwned), false
}

// selectSourceIPv6 is selectSourceIPv4's IPv6 analogue (spec.md §4.3.1):
// the unspecified address is replaced with the link-local host address
// when the destination is on-link, else with an owned address that has
// a default gateway; multicast sources are replaced with the first
// owned address.
func (s *Stack) selectSourceIPv6(src, dst addr.IPv6) (addr.IPv6, TxStatus, bool) {
	switch {
	case src.IsUnspecified():
		if s.nd.IsOnLink(dst) {
			if host, ok := s.config.linkLocalHostIP6(); ok {
				s.stats.IncTx(func(t *stats.Tx) { t.Ip6SrcNetworkUnspecifiedReplaceLocal++ })
				return host.Address, passed(), true
			}
		}
		if host, ok := s.config.anyHostWithGatewayIP6(); ok {
			s.stats.IncTx(func(t *stats.Tx) { t.Ip6SrcNetworkUnspecifiedReplaceExternal++ })
			return host.Address, passed(), true
		}
		s.stats.IncTx(func(t *stats.Tx) { t.Ip6SrcUnspecifiedDrop++ })
		return addr.IPv6{}, dropped(CauseIp6SrcUnspecified), false

	case src.IsMulticast():
		if host, ok := s.config.firstHostIP6(); ok {
			s.stats.IncTx(func(t *stats.Tx) { t.Ip6SrcMulticastReplace++ })
			return host.Address, passed(), true
		}
		s.stats.IncTx(func(t *stats.Tx) { t.Ip6SrcMulticastDrop++ })
		return addr.IPv6{}, dropped(CauseIp6SrcMulticast), false
	}

	if _, ok := s.config.ownedIP6(src); ok {
		return src, passed(), true
	}

	s.stats.IncTx(func(t *stats.Tx) { t.Ip6SrcNotOwnedDrop++ })
	return addr.IPv6{}, dropped(CauseIp6SrcNotOwned), false
}
