package dualstack

// Cause enumerates the DROPED__* variants of spec.md §6's TxStatus
// enumeration exactly; PassedToTxRing has no cause.
type Cause int

const (
	CauseNone Cause = iota
	CauseEtherDstResolutionFail
	CauseEtherSrcNotOwned
	CauseArpNoProtocolSupport
	CauseIp4SrcNotOwned
	CauseIp4SrcMulticast
	CauseIp4SrcLimitedBroadcast
	CauseIp4SrcNetworkBroadcast
	CauseIp4SrcUnspecified
	CauseIp4DstUnspecified
	CauseIp4InvalidSource
	CauseIp6SrcNotOwned
	CauseIp6SrcMulticast
	CauseIp6SrcUnspecified
	CauseIp6DstUnspecified
	CauseNoArpResolution
	CauseNoNdResolution
	CauseNoProtocolSupport
	CauseMtuExceededNoFragmentAllowed
)

func (c Cause) String() string {
	switch c {
	case CauseNone:
		return ""
	case CauseEtherDstResolutionFail:
		return "DST_RESOLUTION_FAIL"
	case CauseEtherSrcNotOwned:
		return "SRC_NOT_OWNED"
	case CauseArpNoProtocolSupport:
		return "NO_PROTOCOL_SUPPORT"
	case CauseIp4SrcNotOwned:
		return "SRC_NOT_OWNED"
	case CauseIp4SrcMulticast:
		return "SRC_MULTICAST"
	case CauseIp4SrcLimitedBroadcast:
		return "SRC_LIMITED_BROADCAST"
	case CauseIp4SrcNetworkBroadcast:
		return "SRC_NETWORK_BROADCAST"
	case CauseIp4SrcUnspecified:
		return "SRC_UNSPECIFIED"
	case CauseIp4DstUnspecified:
		return "DST_UNSPECIFIED"
	case CauseIp4InvalidSource:
		return "INVALID_SOURCE"
	case CauseIp6SrcNotOwned:
		return "SRC_NOT_OWNED"
	case CauseIp6SrcMulticast:
		return "SRC_MULTICAST"
	case CauseIp6SrcUnspecified:
		return "SRC_UNSPECIFIED"
	case CauseIp6DstUnspecified:
		return "DST_UNSPECIFIED"
	case CauseNoArpResolution:
		return "NO_ARP_RESOLUTION"
	case CauseNoNdResolution:
		return "NO_ND_RESOLUTION"
	case CauseNoProtocolSupport:
		return "NO_PROTOCOL_SUPPORT"
	case CauseMtuExceededNoFragmentAllowed:
		return "MTU_EXCEEDED_NO_FRAGMENT_ALLOWED"
	default:
		return "UNKNOWN"
	}
}

// Disposition is the tagged-variant kind of a TxStatus.
type Disposition int

const (
	// PassedToTxRing means the frame was handed to the device's write
	// path.
	PassedToTxRing Disposition = iota
	// Dropped means the packet was not sent; Cause explains why.
	Dropped
)

// TxStatus describes the disposition of one outbound attempt, per
// spec.md §6's TxStatus enumeration: PASSED__ETHER__TO_TX_RING or
// DROPED__*__<cause>.
type TxStatus struct {
	Disposition Disposition
	Cause       Cause
}

// Passed reports whether the frame reached the device write path.
func (s TxStatus) Passed() bool { return s.Disposition == PassedToTxRing }

func passed() TxStatus { return TxStatus{Disposition: PassedToTxRing} }

func dropped(cause Cause) TxStatus { return TxStatus{Disposition: Dropped, Cause: cause} }

// String renders the spec's PASSED__.../DROPED__... notation.
func (s TxStatus) String() string {
	if s.Passed() {
		return "PASSED__ETHER__TO_TX_RING"
	}
	return "DROPED__" + s.Cause.String()
}
