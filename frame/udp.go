package frame

import "encoding/binary"

// HeaderLenUDP is the fixed UDP header length.
const HeaderLenUDP = 8

// UDP is a byte-slice view over a UDP datagram.
type UDP []byte

// IsValidIPv4 validates length consistency and the pseudo-header checksum
// for a UDP datagram carried over IPv4.
func (u UDP) IsValidIPv4(src, dst [4]byte) bool {
	if len(u) < HeaderLenUDP {
		return false
	}
	if int(u.Length()) != len(u) {
		return false
	}
	if u.Checksum() == 0 {
		return true // checksum optional over IPv4; zero means "not computed"
	}
	pseudo := pseudoHeaderIPv4(src, dst, ProtoUDP, uint16(len(u)))
	return checksumWithPseudoHeader(pseudo, u) == 0
}

// IsValidIPv6 validates length consistency and the mandatory pseudo-header
// checksum for a UDP datagram carried over IPv6.
func (u UDP) IsValidIPv6(src, dst [16]byte) bool {
	if len(u) < HeaderLenUDP {
		return false
	}
	if int(u.Length()) != len(u) {
		return false
	}
	pseudo := pseudoHeaderIPv6(src, dst, NextHeaderUDP, uint32(len(u)))
	return checksumWithPseudoHeader(pseudo, u) == 0
}

// SrcPort returns the source port.
func (u UDP) SrcPort() uint16 { return binary.BigEndian.Uint16(u[0:2]) }

// DstPort returns the destination port.
func (u UDP) DstPort() uint16 { return binary.BigEndian.Uint16(u[2:4]) }

// Length returns the length field (header + payload).
func (u UDP) Length() uint16 { return binary.BigEndian.Uint16(u[4:6]) }

// Checksum returns the checksum field as transmitted.
func (u UDP) Checksum() uint16 { return binary.BigEndian.Uint16(u[6:8]) }

// Payload returns the bytes following the fixed header.
func (u UDP) Payload() []byte { return u[HeaderLenUDP:] }

// UDPMarshalBinary writes a fresh UDP header (length/checksum left to
// AppendPayload and SetChecksumIPv4/SetChecksumIPv6) into buf.
func UDPMarshalBinary(buf []byte, srcPort, dstPort uint16) UDP {
	u := UDP(buf[:HeaderLenUDP])
	binary.BigEndian.PutUint16(u[0:2], srcPort)
	binary.BigEndian.PutUint16(u[2:4], dstPort)
	binary.BigEndian.PutUint16(u[4:6], HeaderLenUDP)
	binary.BigEndian.PutUint16(u[6:8], 0)
	return u
}

// AppendPayload appends payload and fixes up the length field, returning
// the resized view. The pseudo-header checksum is filled in by
// SetChecksumIPv4/SetChecksumIPv6 once the caller knows the final
// addresses.
func (u UDP) AppendPayload(payload []byte) (UDP, error) {
	total := HeaderLenUDP + len(payload)
	out := append(u[:HeaderLenUDP], payload...)
	binary.BigEndian.PutUint16(out[4:6], uint16(total))
	return UDP(out), nil
}

// SetChecksumIPv4 computes and fills in the checksum field given the final
// IPv4 addresses.
func (u UDP) SetChecksumIPv4(src, dst [4]byte) {
	binary.BigEndian.PutUint16(u[6:8], 0)
	pseudo := pseudoHeaderIPv4(src, dst, ProtoUDP, uint16(len(u)))
	binary.BigEndian.PutUint16(u[6:8], checksumWithPseudoHeader(pseudo, u))
}

// SetChecksumIPv6 computes and fills in the checksum field given the final
// IPv6 addresses.
func (u UDP) SetChecksumIPv6(src, dst [16]byte) {
	binary.BigEndian.PutUint16(u[6:8], 0)
	pseudo := pseudoHeaderIPv6(src, dst, NextHeaderUDP, uint32(len(u)))
	binary.BigEndian.PutUint16(u[6:8], checksumWithPseudoHeader(pseudo, u))
}
