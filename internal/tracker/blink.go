package tracker

import (
	"math"
	"sync"
	"time"
)

type Direction int

const (
	None Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return ""
	}
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "up":
		*d = Up
	case "down":
		*d = Down
	default:
		*d = None
	}
	return nil
}

// DefaultBlinkDecay is how long an up/down mark stays visible.
const DefaultBlinkDecay = 900 * time.Millisecond

type blinkEntry struct {
	prev    float64
	hasPrev bool
	dir     Direction
	until   time.Time
}

// BlinkTracker keeps an independent previous value and transient mark per key.
type BlinkTracker struct {
	mu      sync.Mutex
	decay   time.Duration
	nowFn   func() time.Time
	entries map[string]*blinkEntry
}

func NewBlinkTracker(decay time.Duration) *BlinkTracker {
	if decay <= 0 {
		decay = DefaultBlinkDecay
	}
	return &BlinkTracker{decay: decay, nowFn: time.Now, entries: map[string]*blinkEntry{}}
}

func (t *BlinkTracker) entry(key string) *blinkEntry {
	e, ok := t.entries[key]
	if !ok {
		e = &blinkEntry{}
		t.entries[key] = e
	}
	return e
}

// Seed sets the previous value for key without marking it.
func (t *BlinkTracker) Seed(key string, v float64) {
	if !finite(v) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entry(key)
	e.prev, e.hasPrev = v, true
}

// Observe records a new value for key and returns the mark it produced. Absent or non-finite
// observations leave the previous value in place and produce no mark.
func (t *BlinkTracker) Observe(key string, v float64, ok bool) Direction {
	if !ok || !finite(v) {
		return None
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entry(key)
	dir := None
	if e.hasPrev {
		switch {
		case v > e.prev:
			dir = Up
		case v < e.prev:
			dir = Down
		}
	}
	e.prev, e.hasPrev = v, true
	if dir != None {
		e.dir = dir
		e.until = t.nowFn().Add(t.decay)
	}
	return dir
}

// Direction is the mark currently visible for key.
func (t *BlinkTracker) Direction(key string) Direction {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok || e.dir == None {
		return None
	}
	if !t.nowFn().Before(e.until) {
		e.dir = None
		return None
	}
	return e.dir
}

// Marks returns every visible mark.
func (t *BlinkTracker) Marks() map[string]Direction {
	t.mu.Lock()
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	t.mu.Unlock()

	out := map[string]Direction{}
	for _, k := range keys {
		if d := t.Direction(k); d != None {
			out[k] = d
		}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
