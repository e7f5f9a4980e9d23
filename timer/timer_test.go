package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerFiresRegisteredCallback(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	var calls int32
	s.Register("counter", 10*time.Millisecond, func(time.Time) {
		atomic.AddInt32(&calls, 1)
	})

	go s.Run()
	time.Sleep(80 * time.Millisecond)
	s.Close()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestSchedulerStopsFiringAfterClose(t *testing.T) {
	s := NewScheduler(5 * time.Millisecond)
	var calls int32
	s.Register("counter", 5*time.Millisecond, func(time.Time) {
		atomic.AddInt32(&calls, 1)
	})

	go s.Run()
	time.Sleep(20 * time.Millisecond)
	s.Close()
	after := atomic.LoadInt32(&calls)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&calls))
}
