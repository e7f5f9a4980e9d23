package frame

import "encoding/binary"

// ICMPv4 types used by the dispatch core.
const (
	Icmp4TypeEchoReply   = 0
	Icmp4TypeUnreachable = 3
	Icmp4TypeEchoRequest = 8
)

// HeaderLenICMPv4Echo is the fixed Echo Request/Reply header length
// (type, code, checksum, id, seq).
const HeaderLenICMPv4Echo = 8

// ICMP4 is a byte-slice view over an ICMPv4 message.
type ICMP4 []byte

// IsValid validates the minimum length and checksum, per spec.md §4.1.
func (m ICMP4) IsValid() bool {
	if len(m) < 4 {
		return false
	}
	return checksum(m) == 0
}

// Type returns the ICMPv4 type field.
func (m ICMP4) Type() uint8 { return m[0] }

// Code returns the ICMPv4 code field.
func (m ICMP4) Code() uint8 { return m[1] }

// EchoID returns the Echo Request/Reply identifier field.
func (m ICMP4) EchoID() uint16 { return binary.BigEndian.Uint16(m[4:6]) }

// EchoSeq returns the Echo Request/Reply sequence field.
func (m ICMP4) EchoSeq() uint16 { return binary.BigEndian.Uint16(m[6:8]) }

// EchoData returns the Echo Request/Reply data following the fixed header.
func (m ICMP4) EchoData() []byte { return m[HeaderLenICMPv4Echo:] }

// UnreachableData returns the embedded IP header + leading payload octets
// carried by a Destination Unreachable message.
func (m ICMP4) UnreachableData() []byte {
	if len(m) <= 8 {
		return nil
	}
	return m[8:]
}

// ICMP4EchoMarshalBinary writes a fresh Echo Request/Reply message into
// buf, including echoed id/seq/data, and fills in the checksum.
func ICMP4EchoMarshalBinary(buf []byte, typ uint8, id, seq uint16, data []byte) ICMP4 {
	total := HeaderLenICMPv4Echo + len(data)
	m := ICMP4(buf[:total])
	m[0] = typ
	m[1] = 0
	binary.BigEndian.PutUint16(m[2:4], 0)
	binary.BigEndian.PutUint16(m[4:6], id)
	binary.BigEndian.PutUint16(m[6:8], seq)
	copy(m[HeaderLenICMPv4Echo:], data)
	binary.BigEndian.PutUint16(m[2:4], checksum(m))
	return m
}

// ICMP4UnreachableMarshalBinary writes a Destination Unreachable message
// carrying embeddedHeader (the offending IPv4 header plus up to its first
// 8 payload octets) as its data.
func ICMP4UnreachableMarshalBinary(buf []byte, code uint8, embeddedHeader []byte) ICMP4 {
	total := 8 + len(embeddedHeader)
	m := ICMP4(buf[:total])
	m[0] = Icmp4TypeUnreachable
	m[1] = code
	binary.BigEndian.PutUint16(m[2:4], 0)
	binary.BigEndian.PutUint32(m[4:8], 0)
	copy(m[8:], embeddedHeader)
	binary.BigEndian.PutUint16(m[2:4], checksum(m))
	return m
}
