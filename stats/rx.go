// Package stats holds the normative packet-counter bundles. Tests assert
// exact equality over these structs, so they stay plain structs of named
// uint64 fields rather than a dynamic bag (see SPEC_FULL.md §4 / §9 design
// note carried from spec.md).
package stats

// Rx is the counter bundle for the inbound dispatch path. Exactly one
// terminal counter and one pre-parse counter increments per processed
// frame along the chosen path (spec.md §8).
type Rx struct {
	EthPreParse              uint64
	EthFailedParseDrop       uint64
	EthUnknownEtherTypeDrop  uint64

	ArpNoProtoSupportDrop uint64
	Ip4NoProtoSupportDrop uint64
	Ip6NoProtoSupportDrop uint64

	ArpPreParse        uint64
	ArpFailedParseDrop uint64
	ArpProbeDrop       uint64
	ArpReplyUpdateCache uint64
	ArpRequestUpdateCache uint64
	ArpRequestReply    uint64

	Ip4PreParse          uint64
	Ip4FailedParseDrop   uint64
	Ip4DstNotOwnedDrop   uint64
	Ip4FragmentReassemble uint64
	Ip4ProtocolUnreachableReply uint64
	Ip4Deliver           uint64

	Ip6PreParse          uint64
	Ip6FailedParseDrop   uint64
	Ip6DstNotOwnedDrop   uint64
	Ip6FragmentReassemble uint64
	Ip6Deliver           uint64

	Icmp4PreParse                uint64
	Icmp4FailedParseDrop         uint64
	Icmp4EchoRequestRespondEchoReply uint64
	Icmp4UnreachableNotifySocket uint64
	Icmp4UnreachableNoSocketMatch uint64
	Icmp4OtherDrop               uint64

	Icmp6PreParse                uint64
	Icmp6FailedParseDrop         uint64
	Icmp6EchoRequestRespondEchoReply uint64
	Icmp6UnreachableNotifySocket uint64
	Icmp6UnreachableNoSocketMatch uint64
	Icmp6NsRespondNa             uint64
	Icmp6NaUpdateCache           uint64
	Icmp6RaUpdateRouterTable     uint64
	Icmp6RsDrop                  uint64
	Icmp6RedirectDrop            uint64
	Icmp6OtherDrop               uint64

	UdpPreParse        uint64
	UdpFailedParseDrop uint64
	UdpDeliver         uint64
	UdpNoSocketMatchDrop uint64

	TcpPreParse        uint64
	TcpFailedParseDrop uint64
	TcpDeliver         uint64
	TcpNoSocketMatchDrop uint64

	ReassemblyFlowCreated       uint64
	ReassemblyFlowCompleted     uint64
	ReassemblyFlowExpiredDrop   uint64
	ReassemblyFlowEvictedDrop   uint64
	ReassemblyFragmentOverlapAccept uint64
}
