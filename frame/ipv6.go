package frame

import "encoding/binary"

// IPv6 next-header values relevant to the dispatch core.
const (
	NextHeaderHopByHop  = 0
	NextHeaderRouting   = 43
	NextHeaderFragment  = 44
	NextHeaderICMPv6    = 58
	NextHeaderNoNext    = 59
	NextHeaderDestOpts  = 60
	NextHeaderTCP       = 6
	NextHeaderUDP       = 17
)

// HeaderLenIPv6 is the fixed IPv6 base header length.
const HeaderLenIPv6 = 40

// HeaderLenIPv6Frag is the length of the IPv6 Fragment extension header.
const HeaderLenIPv6Frag = 8

// IP6 is a byte-slice view over an IPv6 packet, base header only; use
// WalkExtensions() to walk the extension-header chain.
type IP6 []byte

// IsValid validates version and that payload_length + 40 fits the frame,
// per spec.md §4.1.
func (p IP6) IsValid() bool {
	if len(p) < HeaderLenIPv6 {
		return false
	}
	if p[0]>>4 != 6 {
		return false
	}
	payloadLen := int(binary.BigEndian.Uint16(p[4:6]))
	return HeaderLenIPv6+payloadLen <= len(p)
}

// PayloadLen returns the payload-length field.
func (p IP6) PayloadLen() int { return int(binary.BigEndian.Uint16(p[4:6])) }

// NextHeader returns the base header's next-header field.
func (p IP6) NextHeader() uint8 { return p[6] }

// HopLimit returns the hop-limit field.
func (p IP6) HopLimit() uint8 { return p[7] }

// Src returns the 16-byte source address.
func (p IP6) Src() []byte { return p[8:24] }

// Dst returns the 16-byte destination address.
func (p IP6) Dst() []byte { return p[24:40] }

// Payload returns the bytes following the base header, up to
// PayloadLen.
func (p IP6) Payload() []byte {
	end := HeaderLenIPv6 + p.PayloadLen()
	if end > len(p) {
		end = len(p)
	}
	return p[HeaderLenIPv6:end]
}

// SetPayload copies payload after the 40-byte base header, sets payload
// length and next-header, and returns the resized view. IPv6 has no
// header checksum.
func (p IP6) SetPayload(payload []byte, nextHeader uint8) IP6 {
	total := HeaderLenIPv6 + len(payload)
	out := p[:total]
	out[6] = nextHeader
	binary.BigEndian.PutUint16(out[4:6], uint16(len(payload)))
	copy(out[HeaderLenIPv6:], payload)
	return out
}

// IP6MarshalBinary writes a fresh 40-byte IPv6 base header into buf.
func IP6MarshalBinary(buf []byte, hopLimit uint8, src, dst []byte) IP6 {
	p := IP6(buf[:HeaderLenIPv6])
	p[0] = 0x60 // version 6
	p[1], p[2], p[3] = 0, 0, 0
	binary.BigEndian.PutUint16(p[4:6], 0)
	p[6] = 0
	p[7] = hopLimit
	copy(p[8:24], src)
	copy(p[24:40], dst)
	return p
}

// ExtChainResult is the outcome of walking the extension-header chain:
// the next-header value of the first transport/unknown header reached,
// whether a Fragment extension header was present, its fields if so, and
// the remaining payload after all recognized extension headers.
type ExtChainResult struct {
	NextHeader     uint8
	HasFragment    bool
	FragID         uint32
	FragOffset     int // 8-byte units
	FragMore       bool
	Payload        []byte
}

// WalkExtensions walks Hop-by-Hop, Routing, Destination Options and
// Fragment extension headers starting at p.Payload(), stopping at a
// transport header or an unrecognized next-header value (spec.md §4.1).
func (p IP6) WalkExtensions() ExtChainResult {
	nh := p.NextHeader()
	buf := p.Payload()
	res := ExtChainResult{NextHeader: nh, Payload: buf}

	for {
		switch nh {
		case NextHeaderHopByHop, NextHeaderRouting, NextHeaderDestOpts:
			if len(buf) < 8 {
				res.NextHeader = nh
				res.Payload = buf
				return res
			}
			next := buf[0]
			extLen := (int(buf[1]) + 1) * 8
			if extLen > len(buf) {
				res.NextHeader = nh
				res.Payload = buf
				return res
			}
			buf = buf[extLen:]
			nh = next
			continue
		case NextHeaderFragment:
			if len(buf) < HeaderLenIPv6Frag {
				res.NextHeader = nh
				res.Payload = buf
				return res
			}
			next := buf[0]
			offsetFlags := binary.BigEndian.Uint16(buf[2:4])
			res.HasFragment = true
			res.FragOffset = int(offsetFlags >> 3)
			res.FragMore = offsetFlags&0x1 != 0
			res.FragID = binary.BigEndian.Uint32(buf[4:8])
			buf = buf[HeaderLenIPv6Frag:]
			nh = next
			continue
		default:
			res.NextHeader = nh
			res.Payload = buf
			return res
		}
	}
}

// ExtFrag is a byte-slice view over an IPv6 Fragment extension header.
type ExtFrag []byte

// ExtFragMarshalBinary writes a fresh Fragment extension header into buf.
func ExtFragMarshalBinary(buf []byte, nextHeader uint8, offset int, more bool, id uint32) ExtFrag {
	f := ExtFrag(buf[:HeaderLenIPv6Frag])
	f[0] = nextHeader
	f[1] = 0
	v := uint16(offset<<3) & 0xfff8
	if more {
		v |= 0x1
	}
	binary.BigEndian.PutUint16(f[2:4], v)
	binary.BigEndian.PutUint32(f[4:8], id)
	return f
}
