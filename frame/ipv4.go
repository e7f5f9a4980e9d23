package frame

import "encoding/binary"

// IP4 protocol numbers dispatched by the core.
const (
	ProtoICMPv4 = 1
	ProtoTCP    = 6
	ProtoUDP    = 17
)

// IPv4 flag bits.
const (
	Ip4FlagMF = 0x1 << 13 // more fragments, within the 3-bit flags field
	Ip4FlagDF = 0x1 << 14 // don't fragment
)

// HeaderLenIPv4 is the minimum (no-options) IPv4 header length.
const HeaderLenIPv4 = 20

// IP4 is a byte-slice view over an IPv4 datagram.
type IP4 []byte

// IsValid validates version, IHL, total length and header checksum per
// spec.md §4.1.
func (p IP4) IsValid() bool {
	if len(p) < HeaderLenIPv4 {
		return false
	}
	if p[0]>>4 != 4 {
		return false
	}
	ihl := int(p[0]&0x0f) * 4
	if ihl < HeaderLenIPv4 || len(p) < ihl {
		return false
	}
	total := int(binary.BigEndian.Uint16(p[2:4]))
	if total > len(p) || total < ihl {
		return false
	}
	return checksum(p[:ihl]) == 0
}

// IHL returns the header length in bytes.
func (p IP4) IHL() int { return int(p[0]&0x0f) * 4 }

// TotalLen returns the total-length field.
func (p IP4) TotalLen() int { return int(binary.BigEndian.Uint16(p[2:4])) }

// ID returns the identification field.
func (p IP4) ID() uint16 { return binary.BigEndian.Uint16(p[4:6]) }

// FlagsAndFragOffset returns the raw flags+fragment-offset field.
func (p IP4) FlagsAndFragOffset() uint16 { return binary.BigEndian.Uint16(p[6:8]) }

// MoreFragments reports whether the MF bit is set.
func (p IP4) MoreFragments() bool { return p.FlagsAndFragOffset()&Ip4FlagMF != 0 }

// DontFragment reports whether the DF bit is set.
func (p IP4) DontFragment() bool { return p.FlagsAndFragOffset()&Ip4FlagDF != 0 }

// FragmentOffset returns the fragment offset in 8-byte units.
func (p IP4) FragmentOffset() int { return int(p.FlagsAndFragOffset() & 0x1fff) }

// TTL returns the time-to-live field.
func (p IP4) TTL() uint8 { return p[8] }

// Protocol returns the upper-layer protocol number.
func (p IP4) Protocol() uint8 { return p[9] }

// Checksum returns the header checksum field as transmitted.
func (p IP4) Checksum() uint16 { return binary.BigEndian.Uint16(p[10:12]) }

// Src returns the 4-byte source address.
func (p IP4) Src() []byte { return p[12:16] }

// Dst returns the 4-byte destination address.
func (p IP4) Dst() []byte { return p[16:20] }

// Payload returns the bytes following the (options-inclusive) header, up
// to TotalLen.
func (p IP4) Payload() []byte {
	ihl := p.IHL()
	total := p.TotalLen()
	if total > len(p) {
		total = len(p)
	}
	return p[ihl:total]
}

// SetPayload copies payload after a 20-byte header (options are never
// generated by this stack's own assembler), sets total length and
// protocol, and recomputes the header checksum. It returns the resized
// view.
func (p IP4) SetPayload(payload []byte, protocol uint8) IP4 {
	total := HeaderLenIPv4 + len(payload)
	out := p[:total]
	out[9] = protocol
	binary.BigEndian.PutUint16(out[2:4], uint16(total))
	copy(out[HeaderLenIPv4:], payload)
	binary.BigEndian.PutUint16(out[10:12], 0)
	binary.BigEndian.PutUint16(out[10:12], checksum(out[:HeaderLenIPv4]))
	return out
}

// IP4MarshalBinary writes a fresh 20-byte IPv4 header (no options) into
// buf, with TTL and identification set, leaving total length/checksum to
// be finalized by SetPayload. buf must be at least HeaderLenIPv4 bytes.
func IP4MarshalBinary(buf []byte, id uint16, src, dst []byte) IP4 {
	p := IP4(buf[:HeaderLenIPv4])
	p[0] = 0x45 // version 4, IHL 5
	p[1] = 0
	binary.BigEndian.PutUint16(p[2:4], HeaderLenIPv4)
	binary.BigEndian.PutUint16(p[4:6], id)
	binary.BigEndian.PutUint16(p[6:8], 0)
	p[8] = 64 // default TTL
	p[9] = 0
	binary.BigEndian.PutUint16(p[10:12], 0)
	copy(p[12:16], src)
	copy(p[16:20], dst)
	return p
}

// SetFragmentFields rewrites the flags/fragment-offset field and
// identification, and recomputes the header checksum. offset is in
// 8-byte units.
func (p IP4) SetFragmentFields(id uint16, moreFragments bool, offset int) {
	binary.BigEndian.PutUint16(p[4:6], id)
	v := uint16(offset & 0x1fff)
	if moreFragments {
		v |= Ip4FlagMF
	}
	binary.BigEndian.PutUint16(p[6:8], v)
	binary.BigEndian.PutUint16(p[10:12], 0)
	binary.BigEndian.PutUint16(p[10:12], checksum(p[:p.IHL()]))
}
