package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory(1500)
	frame := []byte{1, 2, 3, 4}

	require.NoError(t, m.WriteFrame(frame))
	assert.Equal(t, frame, m.Sent())
	assert.Nil(t, m.Sent())

	m.Inject(frame)
	buf := make([]byte, 1500)
	n, err := m.ReadFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, frame, buf[:n])
}

func TestMemoryCloseUnblocksRead(t *testing.T) {
	m := NewMemory(1500)
	require.NoError(t, m.Close())

	buf := make([]byte, 1500)
	_, err := m.ReadFrame(buf)
	assert.ErrorIs(t, err, ErrClosed)
}
