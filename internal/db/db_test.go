package db

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	d, err := Open(filepath.Join(t.TempDir(), "data", "goldlive.db"))
	require.NoError(t, err)
	defer d.Close()

	_, ok, err := d.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Set(ctx, KeyMaking, "5250"))
	require.NoError(t, d.Set(ctx, KeyMaking, "6000"))
	v, ok, err := d.Get(ctx, KeyMaking)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "6000", v)

	require.NoError(t, d.Remove(ctx, KeyMaking))
	_, ok, err = d.Get(ctx, KeyMaking)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteBackup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	d, err := Open(filepath.Join(dir, "goldlive.db"))
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, d.Set(ctx, KeyRefreshVal, "30"))

	dst := BackupName(filepath.Join(dir, "backups"), time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC))
	assert.Equal(t, "goldlive-20250301-083000.db", filepath.Base(dst))
	require.NoError(t, d.BackupTo(ctx, dst))
	// a second run over the same name replaces the file
	require.NoError(t, d.BackupTo(ctx, dst))

	_, err = os.Stat(dst)
	require.NoError(t, err)

	restored, err := Open(dst)
	require.NoError(t, err)
	defer restored.Close()
	v, ok, err := restored.Get(ctx, KeyRefreshVal)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "30", v)
}

func TestCacheLastRate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := NewCache(s)

	_, ok, err := c.LastRate(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.UnixMilli(1730000000123)
	require.NoError(t, c.SetLastRate(ctx, 77650, at))
	lr, ok, err := c.LastRate(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 77650.0, lr.Rate)
	assert.True(t, lr.Time().Equal(at))

	require.NoError(t, s.Set(ctx, KeyLastRate, "{not json"))
	_, ok, err = c.LastRate(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheMaking(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := NewCache(s)

	require.NoError(t, c.SetMaking(ctx, 5250))
	v, ok, err := c.Making(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5250.0, v)

	require.NoError(t, s.Set(ctx, KeyMaking, "-4"))
	_, ok, err = c.Making(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, present, _ := s.Get(ctx, KeyMaking)
	assert.False(t, present, "invalid stored value is removed")
}

func TestCacheRefresh(t *testing.T) {
	ctx := context.Background()
	c := NewCache(NewMemoryStore())

	require.NoError(t, c.SetRefresh(ctx, Refresh{Value: "2", Unit: "minutes"}))
	r, ok, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Refresh{Value: "2", Unit: "minutes"}, r)

	require.NoError(t, c.ClearRefresh(ctx))
	_, ok, err = c.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheHistoryRestore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := NewCache(s)

	raw := `[{"ts":3000,"rate":3},{"ts":1000,"rate":1,"time":"a"},{"ts":0,"rate":9},{"ts":3000,"rate":4},{"rate":5}]`
	require.NoError(t, s.Set(ctx, KeyChartPoints, raw))

	pts, err := c.History(ctx)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, Point{TS: 1000, Rate: 1, Time: "a"}, pts[0])
	assert.Equal(t, int64(3000), pts[1].TS)
	assert.Equal(t, 4.0, pts[1].Rate)
	assert.NotEmpty(t, pts[1].Time)
}

func TestCacheHistoryCap(t *testing.T) {
	ctx := context.Background()
	c := NewCache(NewMemoryStore())

	pts := make([]Point, MaxStoredPoints+5)
	for i := range pts {
		pts[i] = Point{TS: int64(i + 1), Rate: float64(i), Time: "t"}
	}
	require.NoError(t, c.SetHistory(ctx, pts))

	got, err := c.History(ctx)
	require.NoError(t, err)
	require.Len(t, got, MaxStoredPoints)
	assert.Equal(t, int64(6), got[0].TS)
}

func TestNormalizeDropsNonFinite(t *testing.T) {
	got := NormalizePoints([]Point{{TS: 1, Rate: math.Inf(1)}, {TS: 2, Rate: math.NaN()}, {TS: 3, Rate: 1, Time: "x"}})
	assert.Equal(t, []Point{{TS: 3, Rate: 1, Time: "x"}}, got)
}
