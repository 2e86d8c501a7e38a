package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	KeyMaking      = "gold_makingVal"
	KeyRefreshVal  = "gold_refreshVal"
	KeyRefreshUnit = "gold_refreshUnit"
	KeyLastRate    = "gold_last_rate_v1"
	KeyChartPoints = "gold_chart_points_v2"

	// MaxStoredPoints caps the persisted chart history; the oldest points go first.
	MaxStoredPoints = 20000
)

// LastRate is the quick-restore snapshot of the most recent base rate.
type LastRate struct {
	Rate float64 `json:"rate"`
	TS   int64   `json:"ts"`
}

func (l LastRate) Time() time.Time { return time.UnixMilli(l.TS) }

// Point is one chart sample. TS is unix milliseconds.
type Point struct {
	TS   int64   `json:"ts"`
	Rate float64 `json:"rate"`
	Time string  `json:"time,omitempty"`
}

// Refresh is the persisted refresh setting as entered by the user.
type Refresh struct {
	Value string
	Unit  string
}

// Cache is the typed view over a Store. Read failures of malformed values are treated as
// "nothing stored".
type Cache struct {
	store Store
}

func NewCache(s Store) *Cache {
	return &Cache{store: s}
}

func (c *Cache) LastRate(ctx context.Context) (LastRate, bool, error) {
	raw, ok, err := c.store.Get(ctx, KeyLastRate)
	if err != nil || !ok {
		return LastRate{}, false, err
	}
	var lr LastRate
	if err := json.Unmarshal([]byte(raw), &lr); err != nil {
		return LastRate{}, false, nil
	}
	if math.IsNaN(lr.Rate) || math.IsInf(lr.Rate, 0) {
		return LastRate{}, false, nil
	}
	return lr, true, nil
}

func (c *Cache) SetLastRate(ctx context.Context, rate float64, at time.Time) error {
	b, err := json.Marshal(LastRate{Rate: rate, TS: at.UnixMilli()})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, KeyLastRate, string(b))
}

// Making returns the stored making charge. A stored value that is not a finite, non-negative
// number is removed.
func (c *Cache) Making(ctx context.Context) (float64, bool, error) {
	raw, ok, err := c.store.Get(ctx, KeyMaking)
	if err != nil || !ok {
		return 0, false, err
	}
	v, perr := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if perr != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false, c.store.Remove(ctx, KeyMaking)
	}
	return v, true, nil
}

func (c *Cache) SetMaking(ctx context.Context, v float64) error {
	return c.store.Set(ctx, KeyMaking, strconv.FormatFloat(v, 'f', -1, 64))
}

func (c *Cache) ClearMaking(ctx context.Context) error {
	return c.store.Remove(ctx, KeyMaking)
}

func (c *Cache) Refresh(ctx context.Context) (Refresh, bool, error) {
	v, ok, err := c.store.Get(ctx, KeyRefreshVal)
	if err != nil || !ok {
		return Refresh{}, false, err
	}
	u, _, err := c.store.Get(ctx, KeyRefreshUnit)
	if err != nil {
		return Refresh{}, false, err
	}
	return Refresh{Value: v, Unit: u}, true, nil
}

func (c *Cache) SetRefresh(ctx context.Context, r Refresh) error {
	if err := c.store.Set(ctx, KeyRefreshVal, r.Value); err != nil {
		return err
	}
	return c.store.Set(ctx, KeyRefreshUnit, r.Unit)
}

func (c *Cache) ClearRefresh(ctx context.Context) error {
	return errors.Join(
		c.store.Remove(ctx, KeyRefreshVal),
		c.store.Remove(ctx, KeyRefreshUnit),
	)
}

// History restores the stored chart points: invalid points are dropped, duplicates by TS keep
// the last one, the result is sorted ascending.
func (c *Cache) History(ctx context.Context) ([]Point, error) {
	raw, ok, err := c.store.Get(ctx, KeyChartPoints)
	if err != nil || !ok {
		return nil, err
	}
	var pts []Point
	if err := json.Unmarshal([]byte(raw), &pts); err != nil {
		return nil, nil
	}
	return NormalizePoints(pts), nil
}

func (c *Cache) SetHistory(ctx context.Context, pts []Point) error {
	pts = TrimPoints(pts, MaxStoredPoints)
	b, err := json.Marshal(pts)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return c.store.Set(ctx, KeyChartPoints, string(b))
}

func NormalizePoints(pts []Point) []Point {
	byTS := make(map[int64]Point, len(pts))
	for _, p := range pts {
		if p.TS <= 0 || math.IsNaN(p.Rate) || math.IsInf(p.Rate, 0) {
			continue
		}
		if p.Time == "" {
			p.Time = time.UnixMilli(p.TS).Format("15:04:05")
		}
		byTS[p.TS] = p
	}
	out := make([]Point, 0, len(byTS))
	for _, p := range byTS {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TS < out[j].TS })
	return out
}

// TrimPoints keeps the newest max points.
func TrimPoints(pts []Point, max int) []Point {
	if max <= 0 || len(pts) <= max {
		return pts
	}
	return pts[len(pts)-max:]
}
