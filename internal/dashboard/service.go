package dashboard

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Armin-kho/gold-live-rates/internal/db"
	"github.com/Armin-kho/gold-live-rates/internal/feed"
	"github.com/Armin-kho/gold-live-rates/internal/items"
	"github.com/Armin-kho/gold-live-rates/internal/logger"
	"github.com/Armin-kho/gold-live-rates/internal/rates"
	"github.com/Armin-kho/gold-live-rates/internal/sources"
	"github.com/Armin-kho/gold-live-rates/internal/tracker"
	"github.com/Armin-kho/gold-live-rates/internal/utils"
)

const (
	UnitSeconds = "seconds"
	UnitMinutes = "minutes"

	// MinRefresh is the shortest accepted poll interval.
	MinRefresh = time.Second

	persistTimeout = 5 * time.Second
)

var ErrNoRate = errors.New("no gold rate yet")

type Options struct {
	Variant Variant
	Display Display
	// Digits "hi" renders Devanagari numerals.
	Digits string
	Cache  *db.Cache
	// Countdown reports whole seconds until the next primary fetch.
	Countdown func() int
	Now       func() time.Time
}

// Service owns every piece of dashboard state. Pollers feed it through the Apply* methods;
// the HTTP surface reads Snapshot and calls the setters.
type Service struct {
	mu      sync.Mutex
	variant Variant
	display Display
	digits  string
	cache   *db.Cache
	blink   *tracker.BlinkTracker
	status  *tracker.StatusTracker
	nowFn   func() time.Time

	countdown func() int
	onRefresh func(time.Duration)
	listeners []func(Snapshot)

	making      float64
	makingInput string
	refresh     time.Duration
	refreshIn   db.Refresh

	base       feed.Value
	silver     feed.Value
	spot       feed.Value
	fx         feed.Value
	lastUpdate time.Time
	fromCache  bool
	fxErr      error
	history    []db.Point
}

func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Cache == nil {
		opts.Cache = db.NewCache(db.NewMemoryStore())
	}
	if opts.Variant.Name == "" {
		opts.Variant = Live
	}
	s := &Service{
		variant:   opts.Variant,
		display:   opts.Display,
		digits:    opts.Digits,
		cache:     opts.Cache,
		blink:     tracker.NewBlinkTracker(opts.Variant.BlinkDecay),
		status:    tracker.NewStatusTracker(opts.Variant.DefaultRefresh),
		nowFn:     opts.Now,
		countdown: opts.Countdown,
		making:    opts.Variant.DefaultMaking,
		refresh:   opts.Variant.DefaultRefresh,
		refreshIn: db.Refresh{Unit: UnitSeconds},
	}
	if err := s.restore(ctx); err != nil {
		return nil, err
	}
	s.status.SetInterval(s.refresh)
	return s, nil
}

// restore loads the persisted settings, chart history and the last known rate. The cached
// rate is shown immediately and seeds the change detectors without marking.
func (s *Service) restore(ctx context.Context) error {
	if v, ok, err := s.cache.Making(ctx); err != nil {
		return err
	} else if ok {
		s.making = v
		s.makingInput = formatInput(v)
	}

	if r, ok, err := s.cache.Refresh(ctx); err != nil {
		return err
	} else if ok {
		if d, unit, valid := parseRefresh(r.Value, r.Unit); valid {
			s.refresh = d
			s.refreshIn = db.Refresh{Value: strings.TrimSpace(r.Value), Unit: unit}
		}
	}

	pts, err := s.cache.History(ctx)
	if err != nil {
		return err
	}
	s.history = db.TrimPoints(pts, db.MaxStoredPoints)

	lr, ok, err := s.cache.LastRate(ctx)
	if err != nil {
		return err
	}
	if ok {
		s.base = feed.Some(lr.Rate)
		s.lastUpdate = lr.Time()
		s.fromCache = true
		s.seedDerived(lr.Rate)
		logger.Infof("[dashboard] restored cached rate %.2f from %s", lr.Rate, utils.DateTime(lr.Time()))
	}
	return nil
}

func (s *Service) seedDerived(base float64) {
	for _, tp := range rates.Table(base, s.making) {
		s.blink.Seed(items.TierIDs[string(tp.Tier)], tp.Per10g)
	}
	s.blink.Seed(items.Coin, rates.GoldCoin(base))
}

func (s *Service) Variant() Variant { return s.variant }

func (s *Service) Status() tracker.Status { return s.status.Status() }

// StatusTracker exposes the tracker so callers can hook transitions.
func (s *Service) StatusTracker() *tracker.StatusTracker { return s.status }

// OnRefreshChange registers the callback that re-times the primary poller. It is called
// without the service lock held.
func (s *Service) OnRefreshChange(fn func(time.Duration)) {
	s.mu.Lock()
	s.onRefresh = fn
	s.mu.Unlock()
}

// OnUpdate registers a listener for every applied primary reading.
func (s *Service) OnUpdate(fn func(Snapshot)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Service) SetCountdown(fn func() int) {
	s.mu.Lock()
	s.countdown = fn
	s.mu.Unlock()
}

func (s *Service) Refresh() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

func (s *Service) Making() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.making
}

// ApplyReading folds one successful primary fetch into the state.
func (s *Service) ApplyReading(snap sources.Snapshot) {
	s.mu.Lock()
	r := snap.Reading
	at := snap.FetchedAt
	if at.IsZero() {
		at = s.nowFn()
	}

	changed := false
	for _, d := range []tracker.Direction{
		s.blink.Observe(items.Rate24K, r.Gold, true),
		s.blink.Observe(items.Silver, r.Silver.V, r.Silver.OK),
		s.blink.Observe(items.Spot, r.Spot.V, r.Spot.OK),
	} {
		if d != tracker.None {
			changed = true
		}
	}
	for _, tp := range rates.Table(r.Gold, s.making) {
		if tp.Tier == rates.Tier24K {
			continue
		}
		s.blink.Observe(items.TierIDs[string(tp.Tier)], tp.Per10g, true)
	}
	s.blink.Observe(items.Coin, rates.GoldCoin(r.Gold), true)

	s.base = feed.Some(r.Gold)
	s.silver = r.Silver
	s.spot = r.Spot
	s.lastUpdate = at
	s.fromCache = false

	s.history = append(s.history, db.Point{TS: at.UnixMilli(), Rate: r.Gold, Time: utils.TimeHHMMSS(at)})
	s.history = db.TrimPoints(s.history, db.MaxStoredPoints)
	history := append([]db.Point(nil), s.history...)
	s.mu.Unlock()

	s.status.RecordSuccess(changed)

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.cache.SetLastRate(ctx, r.Gold, at); err != nil {
		logger.Warnf("[dashboard] persist last rate: %v", err)
	}
	if err := s.cache.SetHistory(ctx, history); err != nil {
		logger.Warnf("[dashboard] persist history: %v", err)
	}
	s.notify()
}

// ApplyFeedFailure keeps the last good values on screen; only the status reacts.
func (s *Service) ApplyFeedFailure(err error) {
	s.status.RecordFailure(err)
}

func (s *Service) ApplyFX(q sources.FXQuote) {
	s.mu.Lock()
	d := s.blink.Observe(items.USDINR, q.Rate, true)
	s.fx = feed.Some(q.Rate)
	s.fxErr = nil
	s.mu.Unlock()
	if d != tracker.None {
		s.status.RecordChange()
	}
}

// ApplyFXFailure clears the USD/INR value; the primary status is not affected.
func (s *Service) ApplyFXFailure(err error) {
	s.mu.Lock()
	s.fx = feed.Value{}
	s.fxErr = err
	s.mu.Unlock()
}

// Tick is the periodic staleness check.
func (s *Service) Tick() tracker.Status {
	return s.status.Evaluate()
}

// SetMaking applies user input. Valid input is persisted; anything else clears the stored
// value and falls back to the variant default. It returns the effective charge.
func (s *Service) SetMaking(ctx context.Context, input string) (float64, bool, error) {
	s.mu.Lock()
	v, ok := rates.NormalizeMaking(input, s.variant.DefaultMaking)
	s.making = v
	if ok {
		s.makingInput = strings.TrimSpace(input)
	} else {
		s.makingInput = ""
	}
	s.mu.Unlock()

	var err error
	if ok {
		err = s.cache.SetMaking(ctx, v)
	} else {
		err = s.cache.ClearMaking(ctx)
	}
	return v, ok, err
}

// SetRefresh applies a new poll interval. Invalid input resets to the variant default and
// removes the stored setting. Either way the primary poller restarts at once.
func (s *Service) SetRefresh(ctx context.Context, value, unit string) (time.Duration, bool, error) {
	d, unit, ok := parseRefresh(value, unit)

	s.mu.Lock()
	if ok {
		s.refreshIn = db.Refresh{Value: strings.TrimSpace(value), Unit: unit}
	} else {
		d = s.variant.DefaultRefresh
		s.refreshIn = db.Refresh{Unit: UnitSeconds}
	}
	s.refresh = d
	stored := s.refreshIn
	cb := s.onRefresh
	s.mu.Unlock()

	var err error
	if ok {
		err = s.cache.SetRefresh(ctx, stored)
	} else {
		err = s.cache.ClearRefresh(ctx)
	}
	s.status.SetInterval(d)
	if cb != nil {
		cb(d)
	}
	return d, ok, err
}

// parseRefresh accepts a positive finite value; any unit other than minutes means seconds.
func parseRefresh(value, unit string) (time.Duration, string, bool) {
	unit = strings.ToLower(strings.TrimSpace(unit))
	if unit != UnitMinutes {
		unit = UnitSeconds
	}
	v, ok := feed.ParseNumber(value)
	if !ok || v <= 0 {
		return 0, unit, false
	}
	scale := time.Second
	if unit == UnitMinutes {
		scale = time.Minute
	}
	d := time.Duration(v * float64(scale))
	if d < MinRefresh {
		d = MinRefresh
	}
	return d, unit, true
}

func (s *Service) History(r Range) []db.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterRange(s.history, r, s.nowFn())
}

// Pricing quotes the jewellery table against the current rate and making charge.
func (s *Service) Pricing(rows []rates.Row) (rates.Invoice, error) {
	s.mu.Lock()
	base, making := s.base, s.making
	s.mu.Unlock()
	if !base.OK {
		return rates.Invoice{}, ErrNoRate
	}
	return rates.QuoteRows(rows, base.V, making), nil
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() Snapshot {
	snap := Snapshot{
		Variant:     s.variant.Name,
		Display:     s.display,
		Status:      s.status.Status(),
		FromCache:   s.fromCache,
		Making:      s.making,
		MakingInput: s.makingInput,
		Refresh: RefreshView{
			Seconds: s.refresh.Seconds(),
			Value:   s.refreshIn.Value,
			Unit:    s.refreshIn.Unit,
		},
	}
	if err := s.status.LastError(); err != nil {
		snap.LastError = err.Error()
	}
	if s.fxErr != nil {
		snap.FXError = s.fxErr.Error()
	}
	if !s.lastUpdate.IsZero() {
		t := s.lastUpdate
		snap.LastUpdate = &t
	}
	if s.countdown != nil {
		snap.NextFetchIn = s.countdown()
	}

	snap.Base = s.cell(items.Rate24K, s.base, items.UnitINR)
	for _, t := range rates.Tiers {
		id := items.TierIDs[string(t)]
		row := TierRow{Tier: t, ItemID: id}
		if s.base.OK {
			p := rates.Derive(t, s.base.V, s.making)
			row.Per10g = s.cell(id, feed.Some(p.Per10g), items.UnitINR)
			row.Per1g = s.plain(feed.Some(p.Per1g), items.UnitINR)
		} else {
			row.Per10g = s.plain(feed.Value{}, items.UnitINR)
			row.Per1g = s.plain(feed.Value{}, items.UnitINR)
		}
		snap.Tiers = append(snap.Tiers, row)
	}

	if s.variant.ShowCards {
		coin := feed.Value{}
		if s.base.OK {
			coin = feed.Some(rates.GoldCoin(s.base.V))
		}
		c := s.cell(items.Coin, coin, items.UnitINR)
		snap.Coin = &c

		sc := SilverCells{
			Per1kg: s.cell(items.Silver, s.silver, items.UnitINR),
			Per10g: s.plain(feed.Value{}, items.UnitINR),
			Per1g:  s.plain(feed.Value{}, items.UnitINR),
		}
		if s.silver.OK {
			sv := rates.DeriveSilver(s.silver.V)
			sc.Per10g = s.plain(feed.Some(sv.Per10g), items.UnitINR)
			sc.Per1g = s.plain(feed.Some(sv.Per1g), items.UnitINR)
		}
		snap.Silver = &sc

		spot := s.cell(items.Spot, s.spot, items.UnitUSD)
		snap.Spot = &spot
		fx := s.cell(items.USDINR, s.fx, "rate")
		snap.FX = &fx
	}

	live := s.history
	if len(live) > LiveWindow {
		live = live[len(live)-LiveWindow:]
	}
	snap.Points = append([]db.Point{}, live...)
	return snap
}

func (s *Service) cell(id string, v feed.Value, unit string) Cell {
	c := s.plain(v, unit)
	c.Direction = s.blink.Direction(id)
	return c
}

func (s *Service) plain(v feed.Value, unit string) Cell {
	if !v.OK || math.IsNaN(v.V) || math.IsInf(v.V, 0) {
		return Cell{Text: utils.Placeholder}
	}
	return Cell{Value: v.V, OK: true, Text: utils.FormatNumber(v.V, unit, s.digits)}
}

func (s *Service) notify() {
	s.mu.Lock()
	if len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	ls := append(([]func(Snapshot))(nil), s.listeners...)
	s.mu.Unlock()
	for _, fn := range ls {
		fn(snap)
	}
}

func formatInput(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
