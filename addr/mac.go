// Package addr provides the typed IPv4, IPv6 and MAC address values used
// across the stack, along with the classification predicates the dispatch
// core depends on (multicast, broadcast, unspecified, link-local, ...).
package addr

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrInvalidLen is returned when a byte slice does not match the expected
// address width.
var ErrInvalidLen = errors.New("addr: invalid length")

// MAC is a 48-bit Ethernet hardware address. The zero value is the
// unspecified (all-zero) address.
type MAC [6]byte

// Broadcast is the link-layer broadcast address.
var Broadcast = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// MACFromBytes builds a MAC from a 6-byte slice.
func MACFromBytes(b []byte) (MAC, error) {
	var m MAC
	if len(b) != 6 {
		return m, fmt.Errorf("mac from bytes len=%d: %w", len(b), ErrInvalidLen)
	}
	copy(m[:], b)
	return m, nil
}

// IsUnspecified reports whether m is the all-zero address.
func (m MAC) IsUnspecified() bool {
	return m == MAC{}
}

// IsBroadcast reports whether m is ff:ff:ff:ff:ff:ff.
func (m MAC) IsBroadcast() bool {
	return m == Broadcast
}

// IsMulticast reports whether the low bit of the first octet (the
// individual/group bit) is set.
func (m MAC) IsMulticast() bool {
	return m[0]&0x01 != 0
}

// String renders the canonical colon-separated hex form.
func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Bytes returns a fresh copy of the 6 address octets.
func (m MAC) Bytes() []byte {
	b := make([]byte, 6)
	copy(b, m[:])
	return b
}

// FromMulticastIPv4 derives the Ethernet multicast MAC for an IPv4
// multicast group address: the low-order 23 bits of the IPv4 address are
// placed into the low-order 23 bits of 01:00:5e:00:00:00.
func FromMulticastIPv4(ip IPv4) MAC {
	v := ip.val
	return MAC{0x01, 0x00, 0x5e, byte(v>>16) & 0x7f, byte(v >> 8), byte(v)}
}

// FromMulticastIPv6 derives the Ethernet multicast MAC for an IPv6
// multicast group address: 33:33 followed by the low-order 32 bits of the
// IPv6 address.
func FromMulticastIPv6(ip IPv6) MAC {
	b := ip.Bytes()
	return MAC{0x33, 0x33, b[12], b[13], b[14], b[15]}
}

func macUint64(m MAC) uint64 {
	var b [8]byte
	copy(b[2:], m[:])
	return binary.BigEndian.Uint64(b[:])
}

// Less provides a total order over MAC values, used only for deterministic
// test fixture construction.
func (m MAC) Less(other MAC) bool {
	return macUint64(m) < macUint64(other)
}
