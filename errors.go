package dualstack

import "errors"

// Sentinel errors returned by the stack's own API surface (as opposed to
// the per-packet TxStatus disposition, which is how send policy drops
// are reported; spec.md §7 keeps these two error channels distinct).
var (
	ErrClosed          = errors.New("dualstack: stack closed")
	ErrUnsupportedEtherType = errors.New("dualstack: unsupported ethertype")
	ErrMalformedFrame  = errors.New("dualstack: malformed frame")
)
