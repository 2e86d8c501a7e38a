package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Armin-kho/gold-live-rates/internal/db"
	"github.com/Armin-kho/gold-live-rates/internal/feed"
	"github.com/Armin-kho/gold-live-rates/internal/rates"
	"github.com/Armin-kho/gold-live-rates/internal/sources"
	"github.com/Armin-kho/gold-live-rates/internal/tracker"
)

var t0 = time.Date(2025, 10, 22, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, store db.Store, v Variant) *Service {
	t.Helper()
	s, err := New(context.Background(), Options{Variant: v, Cache: db.NewCache(store), Now: func() time.Time { return t0 }})
	require.NoError(t, err)
	return s
}

func reading(gold float64) sources.Snapshot {
	return sources.Snapshot{
		Reading:   feed.Reading{Gold: gold, Silver: feed.Some(91500), Spot: feed.Some(2384.5)},
		FetchedAt: t0,
	}
}

func TestServiceDefaults(t *testing.T) {
	s := newService(t, db.NewMemoryStore(), Live)
	snap := s.Snapshot()

	assert.Equal(t, "live", snap.Variant)
	assert.Equal(t, tracker.StatusConnecting, snap.Status)
	assert.Equal(t, 5250.0, snap.Making)
	assert.Equal(t, 5.0, snap.Refresh.Seconds)
	assert.False(t, snap.Base.OK)
	assert.Equal(t, "—", snap.Base.Text)
	require.Len(t, snap.Tiers, 5)
	assert.Equal(t, "—", snap.Tiers[1].Per10g.Text)
	require.NotNil(t, snap.FX)
	assert.Equal(t, "—", snap.FX.Text)
	assert.Nil(t, snap.LastUpdate)
}

func TestServiceClassicHidesCards(t *testing.T) {
	s := newService(t, db.NewMemoryStore(), Classic)
	snap := s.Snapshot()
	assert.Equal(t, 6000.0, snap.Making)
	assert.Equal(t, 60.0, snap.Refresh.Seconds)
	assert.Nil(t, snap.Coin)
	assert.Nil(t, snap.Silver)
	assert.Nil(t, snap.FX)
}

func TestServiceApplyReading(t *testing.T) {
	store := db.NewMemoryStore()
	s := newService(t, store, Live)

	s.ApplyReading(reading(110000))
	snap := s.Snapshot()
	assert.Equal(t, tracker.StatusStable, snap.Status)
	assert.Equal(t, "₹ 1,10,000", snap.Base.Text)
	assert.Equal(t, tracker.None, snap.Base.Direction)
	assert.Equal(t, rates.Tier22K, snap.Tiers[1].Tier)
	assert.InDelta(t, (110000+5250)/1.1, snap.Tiers[1].Per10g.Value, 1e-6)
	assert.Equal(t, 11100.0, snap.Coin.Value)
	assert.InDelta(t, 942.45, snap.Silver.Per10g.Value, 1e-9)
	assert.Equal(t, "$ 2,384.50", snap.Spot.Text)
	require.Len(t, snap.Points, 1)
	assert.Equal(t, t0.UnixMilli(), snap.Points[0].TS)

	s.ApplyReading(reading(110500))
	snap = s.Snapshot()
	assert.Equal(t, tracker.StatusLive, snap.Status)
	assert.Equal(t, tracker.Up, snap.Base.Direction)
	assert.Equal(t, tracker.Up, snap.Tiers[2].Per10g.Direction)

	c := db.NewCache(store)
	lr, ok, err := c.LastRate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 110500.0, lr.Rate)
}

func TestServiceRestoresCachedRate(t *testing.T) {
	store := db.NewMemoryStore()
	c := db.NewCache(store)
	ctx := context.Background()
	require.NoError(t, c.SetLastRate(ctx, 100000, t0.Add(-time.Minute)))
	require.NoError(t, c.SetMaking(ctx, 6100))
	require.NoError(t, c.SetRefresh(ctx, db.Refresh{Value: "2", Unit: "minutes"}))
	require.NoError(t, c.SetHistory(ctx, []db.Point{{TS: 2, Rate: 2}, {TS: 1, Rate: 1}}))

	s := newService(t, store, Live)
	snap := s.Snapshot()
	assert.True(t, snap.FromCache)
	assert.Equal(t, tracker.StatusConnecting, snap.Status, "a cached value is not a connection")
	assert.Equal(t, 100000.0, snap.Base.Value)
	assert.Equal(t, 6100.0, snap.Making)
	assert.Equal(t, "6100", snap.MakingInput)
	assert.Equal(t, 120.0, snap.Refresh.Seconds)
	assert.Equal(t, "minutes", snap.Refresh.Unit)
	require.Len(t, snap.Points, 2)
	assert.Equal(t, int64(1), snap.Points[0].TS)

	// the cached rate seeds the previous value, so the first live fetch can mark a change
	s.ApplyReading(reading(99000))
	snap = s.Snapshot()
	assert.False(t, snap.FromCache)
	assert.Equal(t, tracker.Down, snap.Base.Direction)
	assert.Equal(t, tracker.StatusLive, snap.Status)
}

func TestServiceFeedFailureKeepsValues(t *testing.T) {
	s := newService(t, db.NewMemoryStore(), Live)
	s.ApplyReading(reading(110000))
	s.ApplyFeedFailure(errors.New("http 502"))

	snap := s.Snapshot()
	assert.Equal(t, 110000.0, snap.Base.Value)
	assert.Equal(t, "http 502", snap.LastError)
}

func TestServiceFX(t *testing.T) {
	s := newService(t, db.NewMemoryStore(), Live)
	s.ApplyReading(reading(110000))

	s.ApplyFX(sources.FXQuote{Rate: 83.1})
	assert.Equal(t, tracker.StatusStable, s.Status())
	s.ApplyFX(sources.FXQuote{Rate: 83.2})
	assert.Equal(t, tracker.StatusLive, s.Status())
	assert.Equal(t, "83.20", s.Snapshot().FX.Text)

	s.ApplyFXFailure(errors.New("no usable USD/INR rate"))
	snap := s.Snapshot()
	assert.False(t, snap.FX.OK)
	assert.Equal(t, "—", snap.FX.Text)
	assert.Equal(t, "no usable USD/INR rate", snap.FXError)
	assert.Equal(t, tracker.StatusLive, snap.Status)
}

func TestServiceSetMaking(t *testing.T) {
	store := db.NewMemoryStore()
	s := newService(t, store, Live)
	ctx := context.Background()

	v, ok, err := s.SetMaking(ctx, "6,000")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 6000.0, v)
	stored, present, _ := store.Get(ctx, db.KeyMaking)
	assert.True(t, present)
	assert.Equal(t, "6000", stored)

	v, ok, err = s.SetMaking(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5250.0, v)
	_, present, _ = store.Get(ctx, db.KeyMaking)
	assert.False(t, present)
}

func TestServiceSetRefresh(t *testing.T) {
	store := db.NewMemoryStore()
	s := newService(t, store, Live)
	ctx := context.Background()

	var applied []time.Duration
	s.OnRefreshChange(func(d time.Duration) { applied = append(applied, d) })

	d, ok, err := s.SetRefresh(ctx, "30", "seconds")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	d, ok, err = s.SetRefresh(ctx, "1.5", "minutes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 90*time.Second, d)
	v, _, _ := store.Get(ctx, db.KeyRefreshVal)
	u, _, _ := store.Get(ctx, db.KeyRefreshUnit)
	assert.Equal(t, "1.5", v)
	assert.Equal(t, "minutes", u)

	d, ok, err = s.SetRefresh(ctx, "-3", "seconds")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 5*time.Second, d)
	_, present, _ := store.Get(ctx, db.KeyRefreshVal)
	assert.False(t, present)

	assert.Equal(t, []time.Duration{30 * time.Second, 90 * time.Second, 5 * time.Second}, applied)
}

func TestParseRefresh(t *testing.T) {
	d, unit, ok := parseRefresh("0.2", "weeks")
	assert.True(t, ok)
	assert.Equal(t, UnitSeconds, unit)
	assert.Equal(t, MinRefresh, d)

	_, _, ok = parseRefresh("", "seconds")
	assert.False(t, ok)
}

func TestServiceHistoryRanges(t *testing.T) {
	store := db.NewMemoryStore()
	c := db.NewCache(store)
	day := 24 * time.Hour
	require.NoError(t, c.SetHistory(context.Background(), []db.Point{
		{TS: t0.Add(-400 * day).UnixMilli(), Rate: 1},
		{TS: t0.Add(-40 * day).UnixMilli(), Rate: 2},
		{TS: t0.Add(-2 * day).UnixMilli(), Rate: 3},
		{TS: t0.Add(-time.Hour).UnixMilli(), Rate: 4},
	}))
	s := newService(t, store, Live)

	assert.Len(t, s.History(Range1D), 1)
	assert.Len(t, s.History(Range1M), 2)
	assert.Len(t, s.History(Range1Y), 3)
	assert.Len(t, s.History(RangeAll), 4)

	r, err := ParseRange("1m")
	require.NoError(t, err)
	assert.Equal(t, Range1M, r)
	_, err = ParseRange("5Y")
	assert.Error(t, err)
}

func TestServicePricing(t *testing.T) {
	s := newService(t, db.NewMemoryStore(), Live)
	_, err := s.Pricing([]rates.Row{{Weight: "5", Carat: "24K", MakingPercent: "10"}})
	assert.ErrorIs(t, err, ErrNoRate)

	s.ApplyReading(reading(100000))
	inv, err := s.Pricing([]rates.Row{{Weight: "5", Carat: "24K", MakingPercent: "10"}})
	require.NoError(t, err)
	assert.Equal(t, int64(56753), inv.Totals[100])
	assert.Equal(t, int64(2625), inv.TotalMakingCharges)
}

func TestServiceOnUpdate(t *testing.T) {
	s := newService(t, db.NewMemoryStore(), Live)
	var got []float64
	s.OnUpdate(func(snap Snapshot) { got = append(got, snap.Base.Value) })
	s.ApplyReading(reading(1))
	s.ApplyReading(reading(2))
	assert.Equal(t, []float64{1, 2}, got)
}

func TestVariantByName(t *testing.T) {
	v, err := VariantByName("Classic")
	require.NoError(t, err)
	assert.Equal(t, Classic, v)
	v, err = VariantByName("")
	require.NoError(t, err)
	assert.Equal(t, Live, v)
	_, err = VariantByName("neon")
	assert.Error(t, err)
}
