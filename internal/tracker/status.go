package tracker

import (
	"sync"
	"time"
)

type Status string

const (
	StatusConnecting Status = "connecting"
	StatusLive       Status = "live"
	StatusStable     Status = "stable"
	StatusOffline    Status = "offline"
)

const (
	// StableAfter is how long a change keeps the status live.
	StableAfter = time.Hour
	// MinOfflineAge is the floor of the offline threshold.
	MinOfflineAge = 30 * time.Second
	// EvaluateEvery is the staleness tick.
	EvaluateEvery = 2 * time.Second
)

// OfflineThreshold is max(2×interval, 30s).
func OfflineThreshold(interval time.Duration) time.Duration {
	if t := 2 * interval; t > MinOfflineAge {
		return t
	}
	return MinOfflineAge
}

// StatusTracker classifies feed health from fetch outcomes and value changes.
type StatusTracker struct {
	mu          sync.Mutex
	nowFn       func() time.Time
	interval    time.Duration
	startedAt   time.Time
	lastSuccess time.Time
	lastChange  time.Time
	lastErr     error
	status      Status
	onChange    func(from, to Status)
}

func NewStatusTracker(interval time.Duration) *StatusTracker {
	return newStatusTracker(interval, time.Now)
}

func newStatusTracker(interval time.Duration, nowFn func() time.Time) *StatusTracker {
	return &StatusTracker{
		nowFn:     nowFn,
		interval:  interval,
		startedAt: nowFn(),
		status:    StatusConnecting,
	}
}

// OnChange registers a hook called (outside the lock) on every status transition.
func (s *StatusTracker) OnChange(fn func(from, to Status)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *StatusTracker) SetInterval(d time.Duration) {
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
}

func (s *StatusTracker) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *StatusTracker) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *StatusTracker) LastSuccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSuccess
}

// RecordSuccess is called after every successful primary fetch. changed reports whether any
// tracked value differs from its previous observation.
func (s *StatusTracker) RecordSuccess(changed bool) Status {
	s.mu.Lock()
	now := s.nowFn()
	s.lastSuccess = now
	s.lastErr = nil
	if changed {
		s.lastChange = now
	}
	from := s.status
	s.status = s.classify(now, true)
	return s.finish(from)
}

// RecordFailure keeps the error for display. The status only turns offline once the last
// success is older than the threshold.
func (s *StatusTracker) RecordFailure(err error) Status {
	s.mu.Lock()
	s.lastErr = err
	from := s.status
	s.status = s.classify(s.nowFn(), false)
	return s.finish(from)
}

// RecordChange marks a tracked value change seen outside the primary fetch (the FX loop).
// It does not clear offline.
func (s *StatusTracker) RecordChange() Status {
	s.mu.Lock()
	now := s.nowFn()
	s.lastChange = now
	from := s.status
	s.status = s.classify(now, false)
	return s.finish(from)
}

// Evaluate is the periodic staleness check.
func (s *StatusTracker) Evaluate() Status {
	s.mu.Lock()
	from := s.status
	s.status = s.classify(s.nowFn(), false)
	return s.finish(from)
}

func (s *StatusTracker) classify(now time.Time, fresh bool) Status {
	threshold := OfflineThreshold(s.interval)
	if s.lastSuccess.IsZero() {
		if now.Sub(s.startedAt) > threshold {
			return StatusOffline
		}
		return StatusConnecting
	}
	if now.Sub(s.lastSuccess) > threshold {
		return StatusOffline
	}
	if s.status == StatusOffline && !fresh {
		return StatusOffline
	}
	if !s.lastChange.IsZero() && now.Sub(s.lastChange) <= StableAfter {
		return StatusLive
	}
	return StatusStable
}

// finish must be called with s.mu held; it unlocks.
func (s *StatusTracker) finish(from Status) Status {
	to := s.status
	hook := s.onChange
	s.mu.Unlock()
	if hook != nil && from != to {
		hook(from, to)
	}
	return to
}
