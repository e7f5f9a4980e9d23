//go:build linux

package device

import (
	"encoding/binary"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// RawSocket is a Device backed by an AF_PACKET raw socket bound to a
// physical interface, generalizing the teacher's
// raw.Dial(ifi, syscall.ETH_P_ALL) call (arp/handler.go) from the
// teacher's own internal raw package (not present in the retrieved
// pack) to the golang.org/x/sys/unix equivalents.
type RawSocket struct {
	fd    int
	mtu   int
	index int
}

// NewRawSocket opens an AF_PACKET socket bound to the named interface,
// receiving every EtherType (ETH_P_ALL).
func NewRawSocket(name string) (*RawSocket, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("device: interface %q: %w", name, err)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, htons(unix.ETH_P_ALL))
	if err != nil {
		return nil, fmt.Errorf("device: raw socket: %w", err)
	}

	addr := unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  ifi.Index,
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("device: bind to %q: %w", name, err)
	}

	return &RawSocket{fd: fd, mtu: ifi.MTU, index: ifi.Index}, nil
}

func htons(v int) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	return binary.LittleEndian.Uint16(b[:])
}

// ReadFrame reads one frame from the raw socket.
func (r *RawSocket) ReadFrame(buf []byte) (int, error) {
	n, _, err := unix.Recvfrom(r.fd, buf, 0)
	if err != nil {
		return 0, fmt.Errorf("device: raw read: %w", err)
	}
	return n, nil
}

// WriteFrame writes one frame to the raw socket.
func (r *RawSocket) WriteFrame(frame []byte) error {
	addr := unix.SockaddrLinklayer{Ifindex: r.index}
	if err := unix.Sendto(r.fd, frame, 0, &addr); err != nil {
		return fmt.Errorf("device: raw write: %w", err)
	}
	return nil
}

// MTU returns the interface's configured MTU.
func (r *RawSocket) MTU() int { return r.mtu }

// Close releases the underlying file descriptor.
func (r *RawSocket) Close() error {
	return unix.Close(r.fd)
}
