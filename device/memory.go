package device

import "sync"

// Memory is an in-process Device backed by channels, for tests — the
// generalized analogue of the teacher's raw.NewBufferedConn() test
// double (arp/handler.go's NewTestHandler).
type Memory struct {
	mtu int

	mu     sync.Mutex
	closed bool
	rx     chan []byte
	tx     chan []byte
}

// NewMemory constructs a Memory device with the given MTU.
func NewMemory(mtu int) *Memory {
	if mtu <= 0 {
		mtu = 1500
	}
	return &Memory{
		mtu: mtu,
		rx:  make(chan []byte, 64),
		tx:  make(chan []byte, 64),
	}
}

// Inject pushes a frame as if it had arrived from the wire; ReadFrame
// will return it.
func (m *Memory) Inject(frame []byte) {
	cp := append([]byte(nil), frame...)
	m.rx <- cp
}

// Sent drains and returns the next frame written via WriteFrame, or nil
// if none is pending.
func (m *Memory) Sent() []byte {
	select {
	case f := <-m.tx:
		return f
	default:
		return nil
	}
}

// ReadFrame blocks until Inject is called or the device is closed.
func (m *Memory) ReadFrame(buf []byte) (int, error) {
	frame, ok := <-m.rx
	if !ok {
		return 0, ErrClosed
	}
	return copy(buf, frame), nil
}

// WriteFrame queues frame for retrieval via Sent.
func (m *Memory) WriteFrame(frame []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.mu.Unlock()
	cp := append([]byte(nil), frame...)
	m.tx <- cp
	return nil
}

// MTU returns the configured MTU.
func (m *Memory) MTU() int { return m.mtu }

// Close unblocks any pending ReadFrame call.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.rx)
	return nil
}
