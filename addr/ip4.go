package addr

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// IPv4 is a 32-bit IPv4 address with value semantics.
type IPv4 struct {
	val uint32
}

// IPv4Unspecified is 0.0.0.0.
var IPv4Unspecified = IPv4{}

// IPv4LimitedBroadcast is 255.255.255.255.
var IPv4LimitedBroadcast = IPv4{val: 0xffffffff}

// IPv4FromBytes builds an IPv4 address from a 4-byte big-endian slice.
func IPv4FromBytes(b []byte) (IPv4, error) {
	if len(b) != 4 {
		return IPv4{}, fmt.Errorf("ip4 from bytes len=%d: %w", len(b), ErrInvalidLen)
	}
	return IPv4{val: binary.BigEndian.Uint32(b)}, nil
}

// IPv4FromUint32 builds an IPv4 address from its big-endian integer value.
func IPv4FromUint32(v uint32) IPv4 {
	return IPv4{val: v}
}

// ParseIPv4 parses dotted-decimal text.
func ParseIPv4(s string) (IPv4, error) {
	a, err := netip.ParseAddr(s)
	if err != nil || !a.Is4() {
		return IPv4{}, fmt.Errorf("ip4 parse %q: %w", s, ErrInvalidLen)
	}
	b := a.As4()
	return IPv4{val: binary.BigEndian.Uint32(b[:])}, nil
}

// Uint32 returns the big-endian integer value.
func (a IPv4) Uint32() uint32 { return a.val }

// Bytes returns a fresh 4-byte big-endian copy.
func (a IPv4) Bytes() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, a.val)
	return b
}

// Netip converts to the stdlib representation.
func (a IPv4) Netip() netip.Addr {
	b := a.Bytes()
	return netip.AddrFrom4([4]byte{b[0], b[1], b[2], b[3]})
}

// String renders dotted-decimal text.
func (a IPv4) String() string {
	return a.Netip().String()
}

// Equal reports value equality.
func (a IPv4) Equal(b IPv4) bool { return a.val == b.val }

// IsUnspecified reports whether a is 0.0.0.0.
func (a IPv4) IsUnspecified() bool { return a.val == 0 }

// IsLimitedBroadcast reports whether a is 255.255.255.255.
func (a IPv4) IsLimitedBroadcast() bool { return a.val == 0xffffffff }

// IsMulticast reports whether a is in 224.0.0.0/4.
func (a IPv4) IsMulticast() bool { return a.val>>28 == 0xe }

// IsLinkLocal reports whether a is in 169.254.0.0/16.
func (a IPv4) IsLinkLocal() bool { return a.val>>16 == 0xa9fe }

// Prefix4 is an IPv4 network prefix.
type Prefix4 struct {
	Base IPv4
	Bits int // 0..32
}

func (p Prefix4) mask() uint32 {
	if p.Bits <= 0 {
		return 0
	}
	if p.Bits >= 32 {
		return 0xffffffff
	}
	return 0xffffffff << uint(32-p.Bits)
}

// Contains reports whether ip falls within the prefix.
func (p Prefix4) Contains(ip IPv4) bool {
	m := p.mask()
	return ip.val&m == p.Base.val&m
}

// Broadcast returns the all-ones host-portion address of the prefix
// (the "network broadcast" address).
func (p Prefix4) Broadcast() IPv4 {
	m := p.mask()
	return IPv4{val: (p.Base.val & m) | ^m}
}

// IsNetworkBroadcast reports whether ip is the network-broadcast address
// of p.
func (p Prefix4) IsNetworkBroadcast(ip IPv4) bool {
	return p.Contains(ip) && ip.Equal(p.Broadcast())
}

// String renders CIDR notation.
func (p Prefix4) String() string {
	return fmt.Sprintf("%s/%d", p.Base, p.Bits)
}
