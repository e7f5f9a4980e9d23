// Package device implements the raw-frame I/O boundary: reading and
// writing whole Ethernet frames to either a tap-style virtual interface
// or a physical NIC via an AF_PACKET raw socket. The stack never touches
// a socket directly; it depends only on the Device interface, per
// spec.md §1 (the tap/device driver is "explicitly out of scope" for the
// core's own logic, but still needs an interface and a local
// implementation so the core has something to run against).
package device

import "errors"

// ErrClosed is returned by ReadFrame/WriteFrame after Close.
var ErrClosed = errors.New("device: closed")

// Device is the boundary the dispatch core reads from and writes to. A
// single goroutine owns ReadFrame; WriteFrame may be called concurrently
// from the TX path (spec.md §6: "one thread services the TX queue").
type Device interface {
	// ReadFrame blocks until a full Ethernet frame is available, writing
	// it into buf and returning the number of bytes read.
	ReadFrame(buf []byte) (int, error)
	// WriteFrame writes a full Ethernet frame.
	WriteFrame(frame []byte) error
	// MTU returns the interface's configured MTU.
	MTU() int
	// Close releases the underlying file descriptor or handle.
	Close() error
}
