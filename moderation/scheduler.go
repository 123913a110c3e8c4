package moderation

import (
	"sync"
	"time"
)

// Timer is a pending callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Clock is the time source of the scheduler.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

type scheduledReversal struct {
	gen   uint64
	timer Timer
	due   time.Time
}

// Scheduler holds at most one pending reversal per key. Scheduling a key again
// cancels the previous reversal, so only the latest mute of a member can fire.
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]*scheduledReversal
	nextGen uint64
	stopped bool
}

func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock
	}
	return &Scheduler{
		clock:   clock,
		entries: make(map[string]*scheduledReversal),
	}
}

// SanctionKey identifies a member within a guild.
func SanctionKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// Schedule arms fn to run after d, replacing any reversal pending under key.
// A non-positive d fires as soon as possible.
func (s *Scheduler) Schedule(key string, d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if old, ok := s.entries[key]; ok {
		old.timer.Stop()
	}

	s.nextGen++
	gen := s.nextGen
	entry := &scheduledReversal{gen: gen, due: s.clock.Now().Add(d)}
	entry.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		cur, ok := s.entries[key]
		if !ok || cur.gen != gen {
			s.mu.Unlock()
			return
		}
		delete(s.entries, key)
		s.mu.Unlock()
		fn()
	})
	s.entries[key] = entry
}

// Cancel stops the reversal pending under key and reports whether there was one.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(s.entries, key)
	return true
}

// Pending reports whether a reversal is armed for key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Due returns when the reversal under key fires.
func (s *Scheduler) Due(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return entry.due, true
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop cancels every pending reversal and refuses new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		entry.timer.Stop()
		delete(s.entries, key)
	}
	s.stopped = true
}

func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}
