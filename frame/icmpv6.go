package frame

import (
	"encoding/binary"

	"golang.org/x/net/ipv6"
)

// ICMPv6 types used by the dispatch core (RFC 4443, RFC 4861), borrowing
// the teacher's golang.org/x/net/ipv6 type vocabulary (icmp6/icmp6.go)
// rather than re-declaring the RFC constants by hand.
const (
	Icmp6TypeUnreachable           = uint8(ipv6.ICMPTypeDestinationUnreachable)
	Icmp6TypeEchoRequest           = uint8(ipv6.ICMPTypeEchoRequest)
	Icmp6TypeEchoReply             = uint8(ipv6.ICMPTypeEchoReply)
	Icmp6TypeRouterSolicitation    = uint8(ipv6.ICMPTypeRouterSolicitation)
	Icmp6TypeRouterAdvertisement   = uint8(ipv6.ICMPTypeRouterAdvertisement)
	Icmp6TypeNeighborSolicitation  = uint8(ipv6.ICMPTypeNeighborSolicitation)
	Icmp6TypeNeighborAdvertisement = uint8(ipv6.ICMPTypeNeighborAdvertisement)
	Icmp6TypeRedirect              = uint8(ipv6.ICMPTypeRedirect)
)

// ND option types.
const (
	NdOptSourceLinkLayerAddress = 1
	NdOptTargetLinkLayerAddress = 2
	NdOptPrefixInformation      = 3
	NdOptMTU                    = 5
)

// HeaderLenICMPv6Echo mirrors the ICMPv4 Echo layout.
const HeaderLenICMPv6Echo = 8

// HeaderLenICMPv6NS is the fixed Neighbor Solicitation header length
// (type, code, checksum, reserved, target address).
const HeaderLenICMPv6NS = 24

// HeaderLenICMPv6NA is the fixed Neighbor Advertisement header length.
const HeaderLenICMPv6NA = 24

// ICMP6 is a byte-slice view over an ICMPv6 message.
type ICMP6 []byte

// IsValid validates the minimum length and the pseudo-header checksum.
func (m ICMP6) IsValid(src, dst []byte) bool {
	if len(m) < 4 {
		return false
	}
	pseudo := pseudoHeaderIPv6(to16(src), to16(dst), NextHeaderICMPv6, uint32(len(m)))
	return checksumWithPseudoHeader(pseudo, m) == 0
}

func to16(b []byte) [16]byte {
	var a [16]byte
	copy(a[:], b)
	return a
}

func to4(b []byte) [4]byte {
	var a [4]byte
	copy(a[:], b)
	return a
}

// Type returns the ICMPv6 type field.
func (m ICMP6) Type() uint8 { return m[0] }

// Code returns the ICMPv6 code field.
func (m ICMP6) Code() uint8 { return m[1] }

// EchoID returns the Echo Request/Reply identifier field.
func (m ICMP6) EchoID() uint16 { return binary.BigEndian.Uint16(m[4:6]) }

// EchoSeq returns the Echo Request/Reply sequence field.
func (m ICMP6) EchoSeq() uint16 { return binary.BigEndian.Uint16(m[6:8]) }

// EchoData returns the Echo Request/Reply data.
func (m ICMP6) EchoData() []byte { return m[HeaderLenICMPv6Echo:] }

// UnreachableData returns the embedded IPv6 header + payload octets
// carried by a Destination Unreachable message.
func (m ICMP6) UnreachableData() []byte {
	if len(m) <= 8 {
		return nil
	}
	return m[8:]
}

// NSTarget returns the Neighbor Solicitation target address.
func (m ICMP6) NSTarget() []byte { return m[8:24] }

// NAFlags returns the raw R/S/O flag byte of a Neighbor Advertisement.
func (m ICMP6) NAFlags() uint8 { return m[4] }

// NATarget returns the Neighbor Advertisement target address.
func (m ICMP6) NATarget() []byte { return m[8:24] }

// NDOptions returns the TLV option bytes following a Neighbor
// Solicitation's or Neighbor Advertisement's fixed 24-byte header; other
// ND messages place their options at a different offset.
func (m ICMP6) NDOptions() []byte {
	if len(m) <= HeaderLenICMPv6NS {
		return nil
	}
	return m[HeaderLenICMPv6NS:]
}

// NDOption is a single parsed option TLV.
type NDOption struct {
	Type  uint8
	Value []byte // option-type-specific payload, excluding type/length octets
}

// ParseNDOptions walks the TLV chain with strict length checks per
// spec.md §4.1; a malformed trailing option truncates the returned list
// rather than erroring, since the caller has already accepted the
// message as valid by the time options are consulted.
func ParseNDOptions(b []byte) []NDOption {
	var opts []NDOption
	for len(b) >= 8 {
		typ := b[0]
		lenWords := int(b[1])
		if lenWords == 0 {
			return opts
		}
		total := lenWords * 8
		if total > len(b) {
			return opts
		}
		opts = append(opts, NDOption{Type: typ, Value: b[2:total]})
		b = b[total:]
	}
	return opts
}

// LinkLayerAddress extracts the 6-byte MAC carried by an SLLA/TLLA option.
func (o NDOption) LinkLayerAddress() []byte {
	if len(o.Value) < 6 {
		return nil
	}
	return o.Value[:6]
}

// AppendNDOptionLinkLayerAddress appends an SLLA (optType=1) or TLLA
// (optType=2) option to buf.
func AppendNDOptionLinkLayerAddress(buf []byte, optType uint8, mac []byte) []byte {
	opt := []byte{optType, 1, mac[0], mac[1], mac[2], mac[3], mac[4], mac[5]}
	return append(buf, opt...)
}

// icmp6Checksum computes and fills in the checksum field of m given the
// IPv6 pseudo-header inputs.
func icmp6Checksum(m ICMP6, src, dst []byte) {
	binary.BigEndian.PutUint16(m[2:4], 0)
	pseudo := pseudoHeaderIPv6(to16(src), to16(dst), NextHeaderICMPv6, uint32(len(m)))
	binary.BigEndian.PutUint16(m[2:4], checksumWithPseudoHeader(pseudo, m))
}

// ICMP6EchoMarshalBinary writes a fresh Echo Request/Reply message.
func ICMP6EchoMarshalBinary(buf []byte, typ uint8, id, seq uint16, data, src, dst []byte) ICMP6 {
	total := HeaderLenICMPv6Echo + len(data)
	m := ICMP6(buf[:total])
	m[0] = typ
	m[1] = 0
	binary.BigEndian.PutUint16(m[4:6], id)
	binary.BigEndian.PutUint16(m[6:8], seq)
	copy(m[HeaderLenICMPv6Echo:], data)
	icmp6Checksum(m, src, dst)
	return m
}

// ICMP6UnreachableMarshalBinary writes a Destination Unreachable message.
func ICMP6UnreachableMarshalBinary(buf []byte, code uint8, embeddedHeader, src, dst []byte) ICMP6 {
	total := 8 + len(embeddedHeader)
	m := ICMP6(buf[:total])
	m[0] = Icmp6TypeUnreachable
	m[1] = code
	binary.BigEndian.PutUint32(m[4:8], 0)
	copy(m[8:], embeddedHeader)
	icmp6Checksum(m, src, dst)
	return m
}

// ICMP6NeighborSolicitationMarshalBinary writes a Neighbor Solicitation
// targeting target, with options (typically an SLLA) appended.
func ICMP6NeighborSolicitationMarshalBinary(buf []byte, target, src, dst []byte, options []byte) ICMP6 {
	total := HeaderLenICMPv6NS + len(options)
	m := ICMP6(buf[:total])
	m[0] = Icmp6TypeNeighborSolicitation
	m[1] = 0
	binary.BigEndian.PutUint32(m[4:8], 0)
	copy(m[8:24], target)
	copy(m[24:total], options)
	icmp6Checksum(m, src, dst)
	return m
}

// ICMP6NeighborAdvertisementMarshalBinary writes a Neighbor Advertisement
// for target, setting the Solicited/Override flags as requested and
// appending the caller-supplied options (typically a TLLA).
func ICMP6NeighborAdvertisementMarshalBinary(buf []byte, target, src, dst []byte, solicited, override bool, options []byte) ICMP6 {
	total := HeaderLenICMPv6NA + len(options)
	m := ICMP6(buf[:total])
	m[0] = Icmp6TypeNeighborAdvertisement
	m[1] = 0
	var flags uint8
	if solicited {
		flags |= 0x40
	}
	if override {
		flags |= 0x20
	}
	m[4] = flags
	m[5], m[6], m[7] = 0, 0, 0
	copy(m[8:24], target)
	copy(m[24:total], options)
	icmp6Checksum(m, src, dst)
	return m
}
