package dualstack

import (
	"github.com/nilgiri-labs/dualstack/addr"
	"github.com/nilgiri-labs/dualstack/frame"
	"github.com/nilgiri-labs/dualstack/socket"
)

func addrFromIPv4(ip addr.IPv4) socket.Addr { return socket.AddrFromBytes(ip.Bytes()) }

func addrFromIPv6(ip addr.IPv6) socket.Addr { return socket.AddrFromBytes(ip.Bytes()) }

// protoForIP4 maps an IP protocol/next-header number to the socket
// index's Proto, or -1 if the stack does not keep a socket table for it.
// IPv6 callers use it too, since UDP and TCP share their numbers across
// both versions.
func protoForIP4(p uint8) socket.Proto {
	switch p {
	case frame.ProtoUDP:
		return socket.ProtoUDP
	case frame.ProtoTCP:
		return socket.ProtoTCP
	default:
		return -1
	}
}
