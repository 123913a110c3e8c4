package moderation

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerFiresOnce(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)

	var fired int32
	s.Schedule("k", time.Minute, func() { atomic.AddInt32(&fired, 1) })
	assert.True(t, s.Pending("k"))
	due, ok := s.Due("k")
	require.True(t, ok)
	assert.Equal(t, clock.Now().Add(time.Minute), due)

	clock.Advance(59 * time.Second)
	assert.Zero(t, atomic.LoadInt32(&fired))

	clock.Advance(time.Second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
	assert.False(t, s.Pending("k"))
	assert.Zero(t, s.Len())

	clock.Advance(time.Hour)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
}

func TestSchedulerReplacesPendingReversal(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)

	var first, second int32
	s.Schedule("k", 30*time.Minute, func() { atomic.AddInt32(&first, 1) })
	s.Schedule("k", 10*time.Minute, func() { atomic.AddInt32(&second, 1) })
	assert.Equal(t, 1, s.Len())

	clock.Advance(10 * time.Minute)
	assert.EqualValues(t, 1, atomic.LoadInt32(&second))

	clock.Advance(time.Hour)
	assert.Zero(t, atomic.LoadInt32(&first))
}

// leakyClock's timers cannot be stopped, like a real timer that already fired.
type leakyClock struct {
	*fakeClock
}

type unstoppable struct{}

func (unstoppable) Stop() bool { return false }

func (c leakyClock) AfterFunc(d time.Duration, f func()) Timer {
	c.fakeClock.AfterFunc(d, f)
	return unstoppable{}
}

func TestSchedulerIgnoresStaleTimers(t *testing.T) {
	clock := leakyClock{newFakeClock()}
	s := NewScheduler(clock)

	var stale, current int32
	s.Schedule("k", time.Minute, func() { atomic.AddInt32(&stale, 1) })
	s.Schedule("k", 5*time.Minute, func() { atomic.AddInt32(&current, 1) })

	clock.Advance(time.Minute)
	assert.Zero(t, atomic.LoadInt32(&stale))
	assert.True(t, s.Pending("k"))

	clock.Advance(4 * time.Minute)
	assert.EqualValues(t, 1, atomic.LoadInt32(&current))
}

func TestSchedulerCancelAndStop(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)

	var fired int32
	inc := func() { atomic.AddInt32(&fired, 1) }
	s.Schedule("a", time.Minute, inc)
	s.Schedule("b", time.Minute, inc)

	assert.True(t, s.Cancel("a"))
	assert.False(t, s.Cancel("a"))
	assert.Equal(t, 1, s.Len())

	s.Stop()
	assert.Zero(t, s.Len())
	s.Schedule("c", time.Minute, inc)
	assert.False(t, s.Pending("c"))

	clock.Advance(time.Hour)
	assert.Zero(t, atomic.LoadInt32(&fired))
}

func TestSchedulerNegativeDelayFiresImmediately(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)

	var fired int32
	s.Schedule("k", -time.Hour, func() { atomic.AddInt32(&fired, 1) })
	clock.Advance(0)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fired))
}

func TestSchedulerWithRealClock(t *testing.T) {
	s := NewScheduler(nil)
	done := make(chan struct{})
	s.Schedule("k", 10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reversal did not fire")
	}
}

func TestSanctionKey(t *testing.T) {
	assert.Equal(t, "g1:u1", SanctionKey("g1", "u1"))
}
