package socket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupExactFourTuple(t *testing.T) {
	tbl := NewTable()
	local := AddrFromBytes([]byte{10, 0, 0, 1})
	remote := AddrFromBytes([]byte{10, 0, 0, 2})
	key := Key{LocalAddr: local, LocalPort: 53, RemoteAddr: remote, RemotePort: 9000}
	tbl.Bind(key, "exact-handle")

	h, ok := tbl.Lookup(local, 53, remote, 9000)
	require.True(t, ok)
	assert.Equal(t, "exact-handle", h)
}

func TestLookupFallsBackToWildcardRemote(t *testing.T) {
	tbl := NewTable()
	local := AddrFromBytes([]byte{10, 0, 0, 1})
	tbl.Bind(Key{LocalAddr: local, LocalPort: 53}, "connected-handle")

	remote := AddrFromBytes([]byte{10, 0, 0, 99})
	h, ok := tbl.Lookup(local, 53, remote, 12345)
	require.True(t, ok)
	assert.Equal(t, "connected-handle", h)
}

func TestLookupFallsBackToFullyWildcardListener(t *testing.T) {
	tbl := NewTable()
	tbl.Bind(Key{LocalPort: 80}, "listener-handle")

	local := AddrFromBytes([]byte{10, 0, 0, 1})
	remote := AddrFromBytes([]byte{10, 0, 0, 2})
	h, ok := tbl.Lookup(local, 80, remote, 55555)
	require.True(t, ok)
	assert.Equal(t, "listener-handle", h)
}

func TestLookupPrefersMoreSpecificMatch(t *testing.T) {
	tbl := NewTable()
	local := AddrFromBytes([]byte{10, 0, 0, 1})
	remote := AddrFromBytes([]byte{10, 0, 0, 2})
	tbl.Bind(Key{LocalPort: 80}, "listener-handle")
	tbl.Bind(Key{LocalAddr: local, LocalPort: 80, RemoteAddr: remote, RemotePort: 1234}, "exact-handle")

	h, ok := tbl.Lookup(local, 80, remote, 1234)
	require.True(t, ok)
	assert.Equal(t, "exact-handle", h)
}

func TestLookupMiss(t *testing.T) {
	tbl := NewTable()
	local := AddrFromBytes([]byte{10, 0, 0, 1})
	remote := AddrFromBytes([]byte{10, 0, 0, 2})
	_, ok := tbl.Lookup(local, 80, remote, 1234)
	assert.False(t, ok)
}

func TestIndexDisjointTables(t *testing.T) {
	ix := NewIndex()
	key := Key{LocalPort: 53}
	ix.Table(ProtoUDP).Bind(key, "udp-handle")

	_, ok := ix.Table(ProtoTCP).Lookup(Addr{}, 53, Addr{}, 0)
	assert.False(t, ok)

	h, ok := ix.Table(ProtoUDP).Lookup(Addr{}, 53, Addr{}, 0)
	require.True(t, ok)
	assert.Equal(t, "udp-handle", h)
}
