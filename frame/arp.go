package frame

import "encoding/binary"

// ARP operation codes.
const (
	ArpOperationRequest = 1
	ArpOperationReply   = 2
)

// HeaderLenARP is the fixed length of an Ethernet/IPv4 ARP packet.
const HeaderLenARP = 28

// ARP is a byte-slice view over an ARP packet (htype=1/ptype=0x0800 only,
// per spec.md §4.1).
type ARP []byte

// IsValid validates htype, ptype, hlen, plen and operation per spec.md §4.1.
func (a ARP) IsValid() bool {
	if len(a) < HeaderLenARP {
		return false
	}
	htype := binary.BigEndian.Uint16(a[0:2])
	ptype := binary.BigEndian.Uint16(a[2:4])
	hlen := a[4]
	plen := a[5]
	oper := binary.BigEndian.Uint16(a[6:8])
	if htype != 1 || ptype != 0x0800 || hlen != 6 || plen != 4 {
		return false
	}
	return oper == ArpOperationRequest || oper == ArpOperationReply
}

// Operation returns the ARP operation code.
func (a ARP) Operation() uint16 { return binary.BigEndian.Uint16(a[6:8]) }

// SHA returns the sender hardware address.
func (a ARP) SHA() []byte { return a[8:14] }

// SPA returns the sender protocol (IPv4) address.
func (a ARP) SPA() []byte { return a[14:18] }

// THA returns the target hardware address.
func (a ARP) THA() []byte { return a[18:24] }

// TPA returns the target protocol (IPv4) address.
func (a ARP) TPA() []byte { return a[24:28] }

// ARPMarshalBinary writes a fresh ARP packet into buf (which must be at
// least HeaderLenARP bytes) and returns the view over it.
func ARPMarshalBinary(buf []byte, oper uint16, sha, spa, tha, tpa []byte) ARP {
	a := ARP(buf[:HeaderLenARP])
	binary.BigEndian.PutUint16(a[0:2], 1)
	binary.BigEndian.PutUint16(a[2:4], 0x0800)
	a[4] = 6
	a[5] = 4
	binary.BigEndian.PutUint16(a[6:8], oper)
	copy(a[8:14], sha)
	copy(a[14:18], spa)
	copy(a[18:24], tha)
	copy(a[24:28], tpa)
	return a
}
