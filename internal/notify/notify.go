package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/Armin-kho/gold-live-rates/internal/dashboard"
	"github.com/Armin-kho/gold-live-rates/internal/db"
	"github.com/Armin-kho/gold-live-rates/internal/items"
	"github.com/Armin-kho/gold-live-rates/internal/logger"
	"github.com/Armin-kho/gold-live-rates/internal/metrics"
	"github.com/Armin-kho/gold-live-rates/internal/render"
	"github.com/Armin-kho/gold-live-rates/internal/tracker"
	"github.com/Armin-kho/gold-live-rates/internal/utils"
)

const (
	PostModeEdit = "edit"
	PostModeNew  = "new"

	ThresholdAbs = "abs"
	ThresholdPct = "pct"

	keyLastMessageID = "notify_last_message_id"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

func NewTelegram(token string, debug bool) (*tgbotapi.BotAPI, error) {
	b, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	b.Debug = debug
	return b, nil
}

type Config struct {
	ChannelID int64
	AdminIDs  []int64
	PostMode  string
	Digits    string
	// A channel post goes out only when a tracked value moved at least this much.
	ThresholdType  string
	ThresholdValue float64
	// Quiet hours in minutes since IST midnight; equal values disable them.
	QuietStart   int
	QuietEnd     int
	MinInterval  time.Duration
	FailCooldown time.Duration
}

// Notifier posts the rate message to a channel and alerts admins about feed health.
type Notifier struct {
	sender  Sender
	cfg     Config
	store   db.Store
	limiter *rate.Limiter
	nowFn   func() time.Time

	pending chan dashboard.Snapshot

	mu         sync.Mutex
	lastValues map[string]float64
	lastFail   time.Time
}

func New(sender Sender, cfg Config, store db.Store) *Notifier {
	if cfg.PostMode == "" {
		cfg.PostMode = PostModeEdit
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 5 * time.Second
	}
	if cfg.FailCooldown <= 0 {
		cfg.FailCooldown = 30 * time.Minute
	}
	if store == nil {
		store = db.NewMemoryStore()
	}
	return &Notifier{
		sender:     sender,
		cfg:        cfg,
		store:      store,
		limiter:    rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		nowFn:      time.Now,
		pending:    make(chan dashboard.Snapshot, 1),
		lastValues: map[string]float64{},
	}
}

// Enqueue hands over the latest snapshot without blocking; an unsent older one is replaced.
func (n *Notifier) Enqueue(snap dashboard.Snapshot) {
	if n.cfg.ChannelID == 0 {
		return
	}
	for {
		select {
		case n.pending <- snap:
			return
		default:
		}
		select {
		case <-n.pending:
		default:
		}
	}
}

// Run publishes queued snapshots until ctx is done, at most one per MinInterval.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-n.pending:
			if err := n.limiter.Wait(ctx); err != nil {
				return nil
			}
			// a newer snapshot may have arrived while waiting
			select {
			case newer := <-n.pending:
				snap = newer
			default:
			}
			if err := n.Publish(ctx, snap); err != nil {
				logger.Warnf("[notify] publish failed: %v", err)
			}
		}
	}
}

// Publish posts the snapshot if it is outside quiet hours and a tracked value moved enough.
func (n *Notifier) Publish(ctx context.Context, snap dashboard.Snapshot) error {
	now := n.nowFn()
	if utils.InQuietHours(utils.MinuteOfDay(now), n.cfg.QuietStart, n.cfg.QuietEnd) {
		return nil
	}
	out := render.BuildMessage(snap, n.cfg.Digits, now)
	current := trackedValues(out)

	n.mu.Lock()
	trigger := n.anyTriggerChanged(current)
	n.mu.Unlock()
	if !trigger {
		return nil
	}

	_, err := n.postOrEdit(ctx, out.Text)
	metrics.ObserveNotification("channel", err)
	if err != nil {
		return err
	}

	n.mu.Lock()
	for id, v := range current {
		n.lastValues[id] = v
	}
	n.mu.Unlock()
	return nil
}

func trackedValues(out render.Output) map[string]float64 {
	vals := map[string]float64{}
	for _, ln := range out.Lines {
		it, ok := items.ByID(ln.ItemID)
		if !ok || !it.Tracked || !ln.HasValue {
			continue
		}
		vals[ln.ItemID] = ln.Value
	}
	return vals
}

// anyTriggerChanged must be called with n.mu held.
func (n *Notifier) anyTriggerChanged(current map[string]float64) bool {
	for id, cur := range current {
		prev, ok := n.lastValues[id]
		if !ok {
			return true
		}
		delta := cur - prev
		if delta < 0 {
			delta = -delta
		}
		if delta == 0 {
			continue
		}
		switch n.cfg.ThresholdType {
		case ThresholdPct:
			if prev == 0 || delta/prev*100 >= n.cfg.ThresholdValue {
				return true
			}
		default:
			if delta >= n.cfg.ThresholdValue {
				return true
			}
		}
	}
	return false
}

func (n *Notifier) postOrEdit(ctx context.Context, text string) (int, error) {
	chatID := n.cfg.ChannelID
	if n.cfg.PostMode == PostModeEdit {
		raw, ok, err := n.store.Get(ctx, keyLastMessageID)
		if err != nil {
			logger.Warnf("[notify] read last message id: %v", err)
		}
		if mid, perr := strconv.Atoi(raw); ok && perr == nil && mid > 0 {
			edit := tgbotapi.NewEditMessageText(chatID, mid, text)
			edit.DisableWebPagePreview = true
			_, err := n.sender.Request(edit)
			if err == nil || strings.Contains(err.Error(), "message is not modified") {
				return mid, nil
			}
			logger.Debugf("[notify] edit %d failed, posting new: %v", mid, err)
		}
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	sent, err := n.sender.Send(msg)
	if err != nil {
		return 0, err
	}
	if err := n.store.Set(ctx, keyLastMessageID, strconv.Itoa(sent.MessageID)); err != nil {
		logger.Warnf("[notify] save last message id: %v", err)
	}
	return sent.MessageID, nil
}

// StatusChanged alerts admins when the feed goes offline (at most once per cooldown) and
// when it recovers.
func (n *Notifier) StatusChanged(ctx context.Context, from, to tracker.Status, lastErr error) {
	switch {
	case to == tracker.StatusOffline:
		n.mu.Lock()
		now := n.nowFn()
		if !n.lastFail.IsZero() && now.Sub(n.lastFail) < n.cfg.FailCooldown {
			n.mu.Unlock()
			return
		}
		n.lastFail = now
		n.mu.Unlock()
		text := "⚠️ Gold feed is offline"
		if lastErr != nil {
			text += "\nError: " + lastErr.Error()
		}
		n.NotifyAdmins(ctx, text)
	case from == tracker.StatusOffline:
		n.NotifyAdmins(ctx, "✅ Gold feed is back ("+string(to)+")")
	}
}

func (n *Notifier) NotifyAdmins(ctx context.Context, text string) {
	for _, id := range n.cfg.AdminIDs {
		if ctx.Err() != nil {
			return
		}
		msg := tgbotapi.NewMessage(id, text)
		_, err := n.sender.Send(msg)
		metrics.ObserveNotification("admin", err)
		if err != nil {
			logger.Warnf("[notify] admin %d: %v", id, err)
		}
	}
}
