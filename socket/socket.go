// Package socket implements the connection-key lookup index that binds
// (local_addr, local_port, remote_addr, remote_port) tuples to delivery
// endpoints, in specificity order, per spec.md §4.8. UDP and TCP share
// the keying scheme in disjoint tables. Grounded in the teacher's
// arpTable (arp/packet.go) for the map-plus-RWMutex shape, generalized
// from a single exact-match lookup to the specificity-ordered candidate
// walk the spec requires.
package socket

import "sync"

// Addr is a protocol-family-agnostic address: IPv4 addresses are stored
// left-padded with zero into the low 4 bytes' mirrored form by the
// caller (callers pass addr.IPv4.Bytes()/addr.IPv6.Bytes() through
// AddrFromBytes); the zero value is the wildcard address.
type Addr [16]byte

// AddrFromBytes builds an Addr from a 4- or 16-byte address slice.
func AddrFromBytes(b []byte) Addr {
	var a Addr
	copy(a[16-len(b):], b)
	return a
}

// IsWildcard reports whether a is the zero (any) address.
func (a Addr) IsWildcard() bool { return a == Addr{} }

// Proto distinguishes the UDP and TCP tables.
type Proto int

const (
	ProtoUDP Proto = iota
	ProtoTCP
)

// Key is a connection 4-tuple. A zero LocalAddr/RemoteAddr/RemotePort
// component matches any value in the corresponding slot during Lookup's
// candidate walk; LocalPort is never wildcarded (a listener always binds
// one).
type Key struct {
	LocalAddr   Addr
	LocalPort   uint16
	RemoteAddr  Addr
	RemotePort  uint16
}

// Table is one protocol's socket index.
type Table struct {
	mu      sync.RWMutex
	entries map[Key]any
}

// NewTable constructs an empty Table.
func NewTable() *Table {
	return &Table{entries: make(map[Key]any)}
}

// Bind registers handle under key, replacing any existing registration.
func (t *Table) Bind(key Key, handle any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key] = handle
}

// Unbind removes the registration for key, if any.
func (t *Table) Unbind(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

// Lookup finds the socket matching an arriving datagram's 4-tuple,
// trying candidates in decreasing specificity: full 4-tuple, wildcard
// remote (addr+port), wildcard local address, fully-wildcard listener
// (spec.md §4.8).
func (t *Table) Lookup(localAddr Addr, localPort uint16, remoteAddr Addr, remotePort uint16) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	candidates := [4]Key{
		{LocalAddr: localAddr, LocalPort: localPort, RemoteAddr: remoteAddr, RemotePort: remotePort},
		{LocalAddr: localAddr, LocalPort: localPort},
		{LocalPort: localPort, RemoteAddr: remoteAddr, RemotePort: remotePort},
		{LocalPort: localPort},
	}
	for _, k := range candidates {
		if h, ok := t.entries[k]; ok {
			return h, true
		}
	}
	return nil, false
}

// Len returns the number of bound sockets, for tests.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Index owns the disjoint UDP and TCP tables.
type Index struct {
	UDP *Table
	TCP *Table
}

// NewIndex constructs an Index with fresh UDP and TCP tables.
func NewIndex() *Index {
	return &Index{UDP: NewTable(), TCP: NewTable()}
}

// Table returns the table for proto.
func (ix *Index) Table(proto Proto) *Table {
	if proto == ProtoTCP {
		return ix.TCP
	}
	return ix.UDP
}
