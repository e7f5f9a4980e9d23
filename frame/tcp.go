package frame

import "encoding/binary"

// HeaderLenTCP is the minimum (no-options) TCP header length.
const HeaderLenTCP = 20

// TCP flag bits.
const (
	TcpFlagFIN = 0x01
	TcpFlagSYN = 0x02
	TcpFlagRST = 0x04
	TcpFlagPSH = 0x08
	TcpFlagACK = 0x10
	TcpFlagURG = 0x20
)

// TCP is a byte-slice view over a TCP segment. The dispatch core only
// needs to read the header and verify the checksum; the byte-stream and
// retransmission engine is out of this core's scope (spec.md §1).
type TCP []byte

// DataOffset returns the header length in bytes.
func (t TCP) DataOffset() int { return int(t[12]>>4) * 4 }

// IsValidIPv4 validates minimum length and the pseudo-header checksum for
// a segment carried over IPv4.
func (t TCP) IsValidIPv4(src, dst [4]byte) bool {
	if len(t) < HeaderLenTCP {
		return false
	}
	off := t.DataOffset()
	if off < HeaderLenTCP || off > len(t) {
		return false
	}
	pseudo := pseudoHeaderIPv4(src, dst, ProtoTCP, uint16(len(t)))
	return checksumWithPseudoHeader(pseudo, t) == 0
}

// IsValidIPv6 validates minimum length and the pseudo-header checksum for
// a segment carried over IPv6.
func (t TCP) IsValidIPv6(src, dst [16]byte) bool {
	if len(t) < HeaderLenTCP {
		return false
	}
	off := t.DataOffset()
	if off < HeaderLenTCP || off > len(t) {
		return false
	}
	pseudo := pseudoHeaderIPv6(src, dst, NextHeaderTCP, uint32(len(t)))
	return checksumWithPseudoHeader(pseudo, t) == 0
}

// SrcPort returns the source port.
func (t TCP) SrcPort() uint16 { return binary.BigEndian.Uint16(t[0:2]) }

// DstPort returns the destination port.
func (t TCP) DstPort() uint16 { return binary.BigEndian.Uint16(t[2:4]) }

// Seq returns the sequence number.
func (t TCP) Seq() uint32 { return binary.BigEndian.Uint32(t[4:8]) }

// Ack returns the acknowledgment number.
func (t TCP) Ack() uint32 { return binary.BigEndian.Uint32(t[8:12]) }

// Flags returns the control-bit octet.
func (t TCP) Flags() uint8 { return t[13] }

// Window returns the advertised window size.
func (t TCP) Window() uint16 { return binary.BigEndian.Uint16(t[14:16]) }

// Payload returns the bytes following the (options-inclusive) header.
func (t TCP) Payload() []byte { return t[t.DataOffset():] }

// TCPMarshalBinary writes a fresh 20-byte TCP header (no options;
// checksum left to SetChecksumIPv4/6) into buf.
func TCPMarshalBinary(buf []byte, srcPort, dstPort uint16, seq, ack uint32, flags uint8, window uint16) TCP {
	t := TCP(buf[:HeaderLenTCP])
	binary.BigEndian.PutUint16(t[0:2], srcPort)
	binary.BigEndian.PutUint16(t[2:4], dstPort)
	binary.BigEndian.PutUint32(t[4:8], seq)
	binary.BigEndian.PutUint32(t[8:12], ack)
	t[12] = HeaderLenTCP / 4 << 4
	t[13] = flags
	binary.BigEndian.PutUint16(t[14:16], window)
	binary.BigEndian.PutUint16(t[16:18], 0)
	binary.BigEndian.PutUint16(t[18:20], 0)
	return t
}

// AppendPayload appends payload after the fixed header.
func (t TCP) AppendPayload(payload []byte) TCP {
	return TCP(append(t[:HeaderLenTCP], payload...))
}

// SetChecksumIPv4 computes and fills in the checksum field given the
// final IPv4 addresses.
func (t TCP) SetChecksumIPv4(src, dst [4]byte) {
	binary.BigEndian.PutUint16(t[16:18], 0)
	pseudo := pseudoHeaderIPv4(src, dst, ProtoTCP, uint16(len(t)))
	binary.BigEndian.PutUint16(t[16:18], checksumWithPseudoHeader(pseudo, t))
}

// SetChecksumIPv6 computes and fills in the checksum field given the
// final IPv6 addresses.
func (t TCP) SetChecksumIPv6(src, dst [16]byte) {
	binary.BigEndian.PutUint16(t[16:18], 0)
	pseudo := pseudoHeaderIPv6(src, dst, NextHeaderTCP, uint32(len(t)))
	binary.BigEndian.PutUint16(t[16:18], checksumWithPseudoHeader(pseudo, t))
}
