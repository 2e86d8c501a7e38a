package tracker

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 10, 22, 10, 0, 0, 0, time.UTC)}
}

func TestBlinkSequence(t *testing.T) {
	b := NewBlinkTracker(0)
	var got []Direction
	for _, v := range []float64{100, 100, 150, 120} {
		got = append(got, b.Observe("rate", v, true))
	}
	assert.Equal(t, []Direction{None, None, Up, Down}, got)
}

func TestBlinkDecayAndSupersede(t *testing.T) {
	clk := newClock()
	b := NewBlinkTracker(900 * time.Millisecond)
	b.nowFn = clk.Now

	b.Observe("rate", 100, true)
	b.Observe("rate", 110, true)
	assert.Equal(t, Up, b.Direction("rate"))

	clk.Advance(500 * time.Millisecond)
	b.Observe("rate", 90, true)
	assert.Equal(t, Down, b.Direction("rate"))

	// the newer mark restarted the decay window
	clk.Advance(600 * time.Millisecond)
	assert.Equal(t, Down, b.Direction("rate"))

	clk.Advance(400 * time.Millisecond)
	assert.Equal(t, None, b.Direction("rate"))
}

func TestBlinkKeysAreIndependent(t *testing.T) {
	b := NewBlinkTracker(time.Second)
	b.Observe("gold", 1, true)
	b.Observe("silver", 5, true)
	b.Observe("gold", 2, true)

	assert.Equal(t, Up, b.Direction("gold"))
	assert.Equal(t, None, b.Direction("silver"))
	assert.Equal(t, map[string]Direction{"gold": Up}, b.Marks())
}

func TestBlinkAbsentKeepsPrevious(t *testing.T) {
	b := NewBlinkTracker(time.Second)
	b.Observe("silver", 100, true)
	assert.Equal(t, None, b.Observe("silver", 0, false))
	assert.Equal(t, None, b.Observe("silver", math.NaN(), true))
	assert.Equal(t, Down, b.Observe("silver", 90, true))
}

func TestBlinkSeed(t *testing.T) {
	b := NewBlinkTracker(time.Second)
	b.Seed("gold", 100)
	assert.Equal(t, None, b.Direction("gold"))
	assert.Equal(t, Up, b.Observe("gold", 101, true))
}

func TestDirectionText(t *testing.T) {
	txt, err := Down.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "down", string(txt))
	assert.Equal(t, "", None.String())
}

func TestOfflineThreshold(t *testing.T) {
	assert.Equal(t, 30*time.Second, OfflineThreshold(5*time.Second))
	assert.Equal(t, 2*time.Minute, OfflineThreshold(time.Minute))
}

func TestStatusConnectingThenStable(t *testing.T) {
	clk := newClock()
	s := newStatusTracker(5*time.Second, clk.Now)
	assert.Equal(t, StatusConnecting, s.Status())

	// first value has nothing to compare against
	assert.Equal(t, StatusStable, s.RecordSuccess(false))
}

func TestStatusLiveDecaysToStable(t *testing.T) {
	clk := newClock()
	s := newStatusTracker(5*time.Second, clk.Now)
	s.RecordSuccess(false)
	assert.Equal(t, StatusLive, s.RecordSuccess(true))

	for i := 0; i < 10; i++ {
		clk.Advance(5 * time.Second)
		s.RecordSuccess(false)
	}
	assert.Equal(t, StatusLive, s.Evaluate())

	clk.Advance(StableAfter)
	s.RecordSuccess(false)
	assert.Equal(t, StatusStable, s.Evaluate())
}

func TestStatusOfflineAfterThreshold(t *testing.T) {
	clk := newClock()
	s := newStatusTracker(5*time.Second, clk.Now)
	s.RecordSuccess(true)
	assert.Equal(t, StatusLive, s.Status())

	clk.Advance(20 * time.Second)
	assert.Equal(t, StatusLive, s.RecordFailure(errors.New("http 502")))
	assert.EqualError(t, s.LastError(), "http 502")

	clk.Advance(11 * time.Second)
	assert.Equal(t, StatusOffline, s.Evaluate())

	// a change seen by another loop does not clear offline
	assert.Equal(t, StatusOffline, s.RecordChange())

	// a successful fetch with a changed value goes straight to live
	assert.Equal(t, StatusLive, s.RecordSuccess(true))
	assert.NoError(t, s.LastError())
}

func TestStatusOfflineClearedToStable(t *testing.T) {
	clk := newClock()
	s := newStatusTracker(time.Minute, clk.Now)
	s.RecordSuccess(false)
	clk.Advance(2*time.Minute + time.Second)
	assert.Equal(t, StatusOffline, s.Evaluate())
	assert.Equal(t, StatusStable, s.RecordSuccess(false))
}

func TestStatusNeverConnected(t *testing.T) {
	clk := newClock()
	s := newStatusTracker(5*time.Second, clk.Now)
	s.RecordFailure(errors.New("dial tcp: timeout"))
	assert.Equal(t, StatusConnecting, s.Status())
	clk.Advance(31 * time.Second)
	assert.Equal(t, StatusOffline, s.Evaluate())
}

func TestStatusOnChangeHook(t *testing.T) {
	clk := newClock()
	s := newStatusTracker(5*time.Second, clk.Now)
	var seen [][2]Status
	s.OnChange(func(from, to Status) { seen = append(seen, [2]Status{from, to}) })

	s.RecordSuccess(false)
	s.RecordSuccess(true)
	s.RecordSuccess(true)
	assert.Equal(t, [][2]Status{
		{StatusConnecting, StatusStable},
		{StatusStable, StatusLive},
	}, seen)
}
