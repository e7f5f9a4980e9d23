package addr

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"inet.af/netaddr"
)

// IPv6 is a 128-bit IPv6 address with value semantics.
type IPv6 struct {
	hi, lo uint64
}

// IPv6Unspecified is ::.
var IPv6Unspecified = IPv6{}

// IPv6FromBytes builds an IPv6 address from a 16-byte big-endian slice.
func IPv6FromBytes(b []byte) (IPv6, error) {
	if len(b) != 16 {
		return IPv6{}, fmt.Errorf("ip6 from bytes len=%d: %w", len(b), ErrInvalidLen)
	}
	return IPv6{
		hi: binary.BigEndian.Uint64(b[0:8]),
		lo: binary.BigEndian.Uint64(b[8:16]),
	}, nil
}

// ParseIPv6 parses colon-hex text.
func ParseIPv6(s string) (IPv6, error) {
	a, err := netip.ParseAddr(s)
	if err != nil || !a.Is6() {
		return IPv6{}, fmt.Errorf("ip6 parse %q: %w", s, ErrInvalidLen)
	}
	b := a.As16()
	return IPv6FromBytes(b[:])
}

// Bytes returns a fresh 16-byte big-endian copy.
func (a IPv6) Bytes() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], a.hi)
	binary.BigEndian.PutUint64(b[8:16], a.lo)
	return b
}

// Netip converts to the stdlib representation.
func (a IPv6) Netip() netip.Addr {
	b := a.Bytes()
	var arr [16]byte
	copy(arr[:], b)
	return netip.AddrFrom16(arr)
}

// Netaddr converts to inet.af/netaddr's representation. The ND
// router/prefix table keys its maps by IPv6 itself, not by netaddr.IP.
func (a IPv6) Netaddr() netaddr.IP {
	ip, _ := netaddr.FromStdIP(a.Netip().AsSlice())
	return ip
}

// String renders colon-hex text.
func (a IPv6) String() string { return a.Netip().String() }

// Equal reports value equality.
func (a IPv6) Equal(b IPv6) bool { return a.hi == b.hi && a.lo == b.lo }

// IsUnspecified reports whether a is ::.
func (a IPv6) IsUnspecified() bool { return a.hi == 0 && a.lo == 0 }

// IsMulticast reports whether a is in ff00::/8.
func (a IPv6) IsMulticast() bool { return a.hi>>56 == 0xff }

// IsLinkLocal reports whether a is in fe80::/10.
func (a IPv6) IsLinkLocal() bool { return a.hi>>54 == 0x3fa } // fe80::/10 top 10 bits = 1111111010

// SolicitedNodeMulticast derives the solicited-node multicast address
// ff02::1:ffXX:XXXX from the low 24 bits of a.
func (a IPv6) SolicitedNodeMulticast() IPv6 {
	b := a.Bytes()
	out := []byte{0xff, 0x02, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0xff, b[13], b[14], b[15]}
	v, _ := IPv6FromBytes(out)
	return v
}

// Prefix6 is an IPv6 network prefix.
type Prefix6 struct {
	Base IPv6
	Bits int // 0..128
}

func maskWord(bits int, wordIdx int) uint64 {
	remaining := bits - wordIdx*64
	if remaining <= 0 {
		return 0
	}
	if remaining >= 64 {
		return ^uint64(0)
	}
	return ^uint64(0) << uint(64-remaining)
}

// Contains reports whether ip falls within the prefix.
func (p Prefix6) Contains(ip IPv6) bool {
	mh := maskWord(p.Bits, 0)
	ml := maskWord(p.Bits, 1)
	return ip.hi&mh == p.Base.hi&mh && ip.lo&ml == p.Base.lo&ml
}

// String renders CIDR notation.
func (p Prefix6) String() string {
	return fmt.Sprintf("%s/%d", p.Base, p.Bits)
}
