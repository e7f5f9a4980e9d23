package stats

// Tx is the counter bundle for the outbound dispatch path. The counter set
// incremented by a single tx call identifies the path taken (spec.md §4.3,
// §6, §8) and is asserted for exact equality by tests.
type Tx struct {
	ArpPreAssemble      uint64
	ArpNoProtoSupportDrop uint64
	ArpOpRequestSend    uint64
	ArpOpReplySend      uint64

	Ip4PreAssemble uint64
	Ip4MtuOkSend   uint64
	Ip4MtuExceedFrag uint64

	Ip4SrcNotOwnedDrop        uint64
	Ip4SrcMulticastReplace    uint64
	Ip4SrcMulticastDrop       uint64
	Ip4SrcLimitedBroadcastReplace uint64
	Ip4SrcLimitedBroadcastDrop    uint64
	Ip4SrcNetworkBroadcastReplace uint64
	Ip4SrcUnspecifiedReplace  uint64
	Ip4SrcUnspecifiedDrop     uint64
	Ip4InvalidSourceDrop      uint64
	Ip4DstUnspecifiedDrop     uint64

	Ip6PreAssemble   uint64
	Ip6MtuOkSend     uint64
	Ip6MtuExceedFrag uint64

	Ip6SrcNotOwnedDrop               uint64
	Ip6SrcMulticastReplace           uint64
	Ip6SrcMulticastDrop              uint64
	Ip6SrcNetworkUnspecifiedReplaceLocal    uint64
	Ip6SrcNetworkUnspecifiedReplaceExternal uint64
	Ip6SrcUnspecifiedDrop            uint64
	Ip6DstUnspecifiedDrop            uint64

	Ip6ExtFragPreAssemble uint64
	Ip6ExtFragSend        uint64

	EtherPreAssemble    uint64
	EtherSrcUnspecFill  uint64
	EtherDstSpecSend    uint64
	EtherDstUnspecIp4Lookup uint64
	EtherDstUnspecIp6Lookup uint64

	EtherDstUnspecIp4LookupLocnetArpCacheHitSend uint64
	EtherDstUnspecIp4LookupExtnetGwArpCacheHitSend uint64
	EtherDstUnspecIp6LookupLocnetNdCacheHitSend  uint64
	EtherDstUnspecIp6LookupExtnetGwNdCacheHitSend uint64

	EtherDstResolutionFailDrop uint64
	EtherSrcNotOwnedDrop       uint64
	ArpNoResolutionDrop        uint64
	NdNoResolutionDrop         uint64
	NoProtocolSupportDrop      uint64
	MtuExceededNoFragmentAllowedDrop uint64

	Icmp4PreAssemble uint64
	Icmp4EchoReplySend uint64

	Icmp6PreAssemble  uint64
	Icmp6EchoReplySend uint64
	Icmp6NsSend       uint64
	Icmp6NaSend       uint64

	UdpPreAssemble uint64
	UdpSend        uint64

	TcpPreAssemble uint64
	TcpSend        uint64
}
