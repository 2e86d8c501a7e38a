package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Armin-kho/gold-live-rates/internal/dashboard"
	"github.com/Armin-kho/gold-live-rates/internal/db"
	"github.com/Armin-kho/gold-live-rates/internal/feed"
	"github.com/Armin-kho/gold-live-rates/internal/sources"
	"github.com/Armin-kho/gold-live-rates/internal/tracker"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *mockSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	resp, _ := args.Get(0).(*tgbotapi.APIResponse)
	return resp, args.Error(1)
}

var noon = time.Date(2025, 10, 22, 6, 30, 0, 0, time.UTC) // 12:00 IST

func snapshot(t *testing.T, gold float64) dashboard.Snapshot {
	t.Helper()
	svc, err := dashboard.New(context.Background(), dashboard.Options{Variant: dashboard.Classic})
	require.NoError(t, err)
	svc.ApplyReading(sources.Snapshot{Reading: feed.Reading{Gold: gold}, FetchedAt: noon})
	return svc.Snapshot()
}

func newNotifier(s Sender, cfg Config, store db.Store) *Notifier {
	n := New(s, cfg, store)
	n.nowFn = func() time.Time { return noon }
	return n
}

func TestPublishPostsThenEdits(t *testing.T) {
	s := &mockSender{}
	store := db.NewMemoryStore()
	n := newNotifier(s, Config{ChannelID: -100}, store)
	ctx := context.Background()

	s.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
		return c.ChatID == -100
	})).Return(tgbotapi.Message{MessageID: 42}, nil).Once()
	require.NoError(t, n.Publish(ctx, snapshot(t, 110000)))

	s.On("Request", mock.MatchedBy(func(c tgbotapi.EditMessageTextConfig) bool {
		return c.MessageID == 42 && c.ChatID == -100
	})).Return(&tgbotapi.APIResponse{Ok: true}, nil).Once()
	require.NoError(t, n.Publish(ctx, snapshot(t, 110500)))

	s.AssertExpectations(t)
	mid, ok, _ := store.Get(ctx, keyLastMessageID)
	assert.True(t, ok)
	assert.Equal(t, "42", mid)
}

func TestPublishSkipsUnchanged(t *testing.T) {
	s := &mockSender{}
	n := newNotifier(s, Config{ChannelID: -100, PostMode: PostModeNew}, nil)
	ctx := context.Background()

	s.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 1}, nil).Once()
	require.NoError(t, n.Publish(ctx, snapshot(t, 110000)))
	require.NoError(t, n.Publish(ctx, snapshot(t, 110000)))
	s.AssertNumberOfCalls(t, "Send", 1)
}

func TestPublishThreshold(t *testing.T) {
	s := &mockSender{}
	n := newNotifier(s, Config{ChannelID: -100, PostMode: PostModeNew, ThresholdType: ThresholdPct, ThresholdValue: 1}, nil)
	ctx := context.Background()

	s.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 1}, nil)
	require.NoError(t, n.Publish(ctx, snapshot(t, 100000)))
	require.NoError(t, n.Publish(ctx, snapshot(t, 100500)))
	require.NoError(t, n.Publish(ctx, snapshot(t, 101000)))
	s.AssertNumberOfCalls(t, "Send", 2)
}

func TestPublishQuietHours(t *testing.T) {
	s := &mockSender{}
	n := newNotifier(s, Config{ChannelID: -100, QuietStart: 11 * 60, QuietEnd: 13 * 60}, nil)
	require.NoError(t, n.Publish(context.Background(), snapshot(t, 110000)))
	s.AssertNotCalled(t, "Send", mock.Anything)
}

func TestEditFailureFallsBackToPost(t *testing.T) {
	s := &mockSender{}
	store := db.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), keyLastMessageID, "7"))
	n := newNotifier(s, Config{ChannelID: -100}, store)

	s.On("Request", mock.Anything).Return(nil, errors.New("Bad Request: message to edit not found")).Once()
	s.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 8}, nil).Once()
	require.NoError(t, n.Publish(context.Background(), snapshot(t, 110000)))

	s.AssertExpectations(t)
	mid, _, _ := store.Get(context.Background(), keyLastMessageID)
	assert.Equal(t, "8", mid)
}

func TestStatusChangedCooldown(t *testing.T) {
	s := &mockSender{}
	n := newNotifier(s, Config{AdminIDs: []int64{1, 2}}, nil)
	ctx := context.Background()

	s.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
		return c.Text == "⚠️ Gold feed is offline\nError: http 502"
	})).Return(tgbotapi.Message{}, nil).Twice()
	n.StatusChanged(ctx, tracker.StatusLive, tracker.StatusOffline, errors.New("http 502"))
	// inside the cooldown nothing more is sent
	n.StatusChanged(ctx, tracker.StatusStable, tracker.StatusOffline, errors.New("http 502"))

	s.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
		return c.Text == "✅ Gold feed is back (live)"
	})).Return(tgbotapi.Message{}, nil).Twice()
	n.StatusChanged(ctx, tracker.StatusOffline, tracker.StatusLive, nil)

	s.AssertExpectations(t)
	s.AssertNumberOfCalls(t, "Send", 4)
}

func TestEnqueueKeepsLatest(t *testing.T) {
	n := New(&mockSender{}, Config{ChannelID: -100}, nil)
	n.Enqueue(dashboard.Snapshot{Variant: "a"})
	n.Enqueue(dashboard.Snapshot{Variant: "b"})
	got := <-n.pending
	assert.Equal(t, "b", got.Variant)
}

func TestEnqueueWithoutChannel(t *testing.T) {
	n := New(&mockSender{}, Config{}, nil)
	n.Enqueue(dashboard.Snapshot{})
	assert.Len(t, n.pending, 0)
}
