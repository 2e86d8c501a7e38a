package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/Armin-kho/gold-live-rates/internal/db"
)

// LiveWindow is how many points the live chart keeps.
const LiveWindow = 120

type Range string

const (
	Range1D  Range = "1D"
	Range1M  Range = "1M"
	Range1Y  Range = "1Y"
	RangeAll Range = "ALL"
)

func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToUpper(strings.TrimSpace(s))); r {
	case "":
		return Range1D, nil
	case Range1D, Range1M, Range1Y, RangeAll:
		return r, nil
	}
	return "", fmt.Errorf("unknown range %q (want 1D, 1M, 1Y or ALL)", s)
}

// Span is the look-back of the range; ALL has none.
func (r Range) Span() (time.Duration, bool) {
	switch r {
	case Range1D:
		return 24 * time.Hour, true
	case Range1M:
		return 30 * 24 * time.Hour, true
	case Range1Y:
		return 365 * 24 * time.Hour, true
	}
	return 0, false
}

func filterRange(pts []db.Point, r Range, now time.Time) []db.Point {
	span, ok := r.Span()
	if !ok {
		return append([]db.Point(nil), pts...)
	}
	from := now.Add(-span).UnixMilli()
	out := make([]db.Point, 0, len(pts))
	for _, p := range pts {
		if p.TS >= from {
			out = append(out, p)
		}
	}
	return out
}
