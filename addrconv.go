package dualstack

// to16 copies a byte slice into a fixed 16-byte array, used for keying
// the reassembly table which stores both IPv4 and IPv6 addresses as
// [16]byte (IPv4 left-padded with zero).
func to16(b []byte) [16]byte {
	var a [16]byte
	copy(a[16-len(b):], b)
	return a
}
