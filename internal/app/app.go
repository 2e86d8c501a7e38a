package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/Armin-kho/gold-live-rates/internal/config"
	"github.com/Armin-kho/gold-live-rates/internal/dashboard"
	"github.com/Armin-kho/gold-live-rates/internal/db"
	"github.com/Armin-kho/gold-live-rates/internal/feed"
	"github.com/Armin-kho/gold-live-rates/internal/httpapi"
	"github.com/Armin-kho/gold-live-rates/internal/items"
	"github.com/Armin-kho/gold-live-rates/internal/logger"
	"github.com/Armin-kho/gold-live-rates/internal/metrics"
	"github.com/Armin-kho/gold-live-rates/internal/notify"
	"github.com/Armin-kho/gold-live-rates/internal/scheduler"
	"github.com/Armin-kho/gold-live-rates/internal/sources"
	"github.com/Armin-kho/gold-live-rates/internal/tracker"
	"github.com/Armin-kho/gold-live-rates/internal/utils"
)

// ErrNoBackup is returned when the configured store cannot be snapshotted.
var ErrNoBackup = errors.New("backups need the sqlite store")

const refreshApplyTimeout = 5 * time.Second

type transition struct {
	from, to tracker.Status
	err      error
}

// App wires the store, upstream pollers, dashboard state, notifier and HTTP surface.
type App struct {
	cfg *config.Config

	store  db.Store
	closer io.Closer
	sqlite *db.SQLite

	svc      *dashboard.Service
	sources  *sources.Manager
	feedPoll *scheduler.Poller[sources.Snapshot]
	fxPoll   *scheduler.Poller[sources.FXQuote]
	notifier *notify.Notifier
	server   *httpapi.Server
	cron     *cron.Cron

	transitions chan transition
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	logger.SetLevel(cfg.LogLevel)

	a := &App{cfg: cfg, transitions: make(chan transition, 8)}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	variant, err := dashboard.VariantByName(cfg.Variant)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.svc, err = dashboard.New(ctx, dashboard.Options{
		Variant: variant,
		Display: dashboard.Display(cfg.Display),
		Digits:  cfg.Digits,
		Cache:   db.NewCache(a.store),
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	labels, err := feedLabels(cfg.Feed)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	feedURL := cfg.Feed.URL
	if feedURL == "" {
		feedURL = sources.DefaultFeedURL
	}
	a.sources = sources.NewManager(sources.ManagerConfig{
		FeedURL:     feedURL,
		Labels:      labels,
		FXEndpoints: fxEndpoints(cfg.FX.Endpoints),
		Timeout:     cfg.Feed.Timeout,
	}, metrics.ObserveFetch)

	a.feedPoll = scheduler.NewPoller("feed", a.svc.Refresh(), a.sources.FetchFeed)
	a.feedPoll.Apply = a.svc.ApplyReading
	a.feedPoll.Fail = a.svc.ApplyFeedFailure
	a.svc.SetCountdown(a.feedPoll.Countdown().Remaining)
	a.svc.OnRefreshChange(func(d time.Duration) {
		rctx, cancel := context.WithTimeout(context.Background(), refreshApplyTimeout)
		defer cancel()
		a.feedPoll.SetInterval(rctx, d)
	})

	if cfg.FX.Enabled && variant.ShowCards {
		a.fxPoll = scheduler.NewPoller("fx", cfg.FX.Interval, a.sources.FetchFX)
		a.fxPoll.Apply = a.svc.ApplyFX
		a.fxPoll.Fail = a.svc.ApplyFXFailure
	}

	if cfg.Telegram.Token != "" {
		bot, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.Debug)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		start, end := cfg.Telegram.QuietHours()
		a.notifier = notify.New(bot, notify.Config{
			ChannelID:      cfg.Telegram.ChannelID,
			AdminIDs:       cfg.Telegram.AdminIDs,
			PostMode:       cfg.Telegram.PostMode,
			Digits:         cfg.Digits,
			ThresholdType:  cfg.Telegram.ThresholdType,
			ThresholdValue: cfg.Telegram.ThresholdValue,
			QuietStart:     start,
			QuietEnd:       end,
			MinInterval:    cfg.Telegram.MinInterval,
		}, a.store)
		logger.Infof("[app] telegram authorized as @%s", bot.Self.UserName)
	}

	status := a.svc.StatusTracker()
	metrics.SetStatus(string(status.Status()))
	status.OnChange(func(from, to tracker.Status) {
		metrics.SetStatus(string(to))
		logger.Infof("[app] status %s -> %s", from, to)
		select {
		case a.transitions <- transition{from: from, to: to, err: status.LastError()}:
		default:
			logger.Warnf("[app] status transition %s -> %s dropped", from, to)
		}
	})
	a.svc.OnUpdate(a.publish)

	if cfg.Backup.Cron != "" {
		if err := a.scheduleBackups(cfg.Backup); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.server = httpapi.NewServer(cfg.HTTP.Addr, httpapi.NewHandler(a.svc, cfg.Digits), cfg.HTTP.ShutdownTimeout)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.cfg.Store.Driver {
	case "redis":
		rc := a.cfg.Store.Redis
		r, err := db.OpenRedis(ctx, rc.Addr, rc.Password, rc.DB, rc.Prefix)
		if err != nil {
			return err
		}
		a.store, a.closer = r, r
	case "memory":
		a.store = db.NewMemoryStore()
	default:
		s, err := db.Open(a.cfg.Store.Path)
		if err != nil {
			return err
		}
		a.store, a.closer, a.sqlite = s, s, s
	}
	logger.Infof("[app] store %s ready", a.cfg.Store.Driver)
	return nil
}

func feedLabels(fc config.FeedConfig) (feed.Labels, error) {
	labels := feed.DefaultLabels()
	for _, o := range []struct {
		name string
		expr string
		dst  **regexp.Regexp
	}{
		{"gold_label", fc.GoldLabel, &labels.Gold},
		{"silver_label", fc.SilverLabel, &labels.Silver},
		{"spot_label", fc.SpotLabel, &labels.Spot},
	} {
		if o.expr == "" {
			continue
		}
		re, err := regexp.Compile(o.expr)
		if err != nil {
			return feed.Labels{}, fmt.Errorf("feed.%s: %w", o.name, err)
		}
		*o.dst = re
	}
	return labels, nil
}

func fxEndpoints(in []config.FXEndpoint) []sources.FXEndpoint {
	out := make([]sources.FXEndpoint, 0, len(in))
	for _, ep := range in {
		if ep.URL == "" {
			continue
		}
		out = append(out, sources.FXEndpoint{Name: ep.Name, URL: ep.URL, Path: ep.Path})
	}
	return out
}

func (a *App) publish(snap dashboard.Snapshot) {
	setRate := func(id string, c *dashboard.Cell) {
		if c != nil && c.OK {
			metrics.SetRate(id, c.Value)
		} else {
			metrics.ClearRate(id)
		}
	}
	for i := range snap.Tiers {
		setRate(snap.Tiers[i].ItemID, &snap.Tiers[i].Per10g)
	}
	setRate(items.Coin, snap.Coin)
	if snap.Silver != nil {
		setRate(items.Silver, &snap.Silver.Per1kg)
	} else {
		setRate(items.Silver, nil)
	}
	setRate(items.Spot, snap.Spot)
	setRate(items.USDINR, snap.FX)

	if a.notifier != nil {
		a.notifier.Enqueue(snap)
	}
}

func (a *App) scheduleBackups(bc config.BackupConfig) error {
	if a.sqlite == nil {
		return ErrNoBackup
	}
	a.cron = cron.New(cron.WithLocation(utils.ISTLoc()))
	_, err := a.cron.AddFunc(bc.Cron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		path, err := a.Backup(ctx, "")
		if err != nil {
			logger.Errorf("[backup] %v", err)
			return
		}
		logger.Infof("[backup] wrote %s", path)
	})
	if err != nil {
		return fmt.Errorf("backup.cron: %w", err)
	}
	return nil
}

// Backup snapshots the sqlite store to dst, or to a timestamped file in the backup dir.
func (a *App) Backup(ctx context.Context, dst string) (string, error) {
	if a.sqlite == nil {
		return "", ErrNoBackup
	}
	if dst == "" {
		dst = db.BackupName(a.cfg.Backup.Dir, utils.NowIST())
	}
	if err := a.sqlite.BackupTo(ctx, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (a *App) Dashboard() *dashboard.Service { return a.svc }

// Run blocks until ctx is done or a component fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	return a.run(ctx, ln)
}

func (a *App) run(ctx context.Context, ln net.Listener) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.server.Serve(ctx, ln); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	group.Go(func() error { return a.feedPoll.Run(ctx) })
	if a.fxPoll != nil {
		group.Go(func() error { return a.fxPoll.Run(ctx) })
	}
	group.Go(func() error {
		t := time.NewTicker(tracker.EvaluateEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				a.svc.Tick()
			}
		}
	})
	group.Go(func() error { return a.watchTransitions(ctx) })
	if a.notifier != nil {
		group.Go(func() error { return a.notifier.Run(ctx) })
	}
	if a.cron != nil {
		a.cron.Start()
		group.Go(func() error {
			<-ctx.Done()
			<-a.cron.Stop().Done()
			return nil
		})
	}

	logger.Infof("[app] running variant=%s refresh=%s", a.svc.Variant().Name, a.svc.Refresh())
	return group.Wait()
}

func (a *App) watchTransitions(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-a.transitions:
			if a.notifier != nil {
				a.notifier.StatusChanged(ctx, t.from, t.to, t.err)
			}
		}
	}
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
