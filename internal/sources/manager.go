package sources

import (
	"context"
	"time"

	"github.com/Armin-kho/gold-live-rates/internal/feed"
)

const (
	SourceFeed = "feed"
	SourceFX   = "fx"
)

// Observer is told about every finished fetch, successful or not.
type Observer func(source string, took time.Duration, err error)

type ManagerConfig struct {
	FeedURL     string
	Labels      feed.Labels
	FXEndpoints []FXEndpoint
	Timeout     time.Duration
}

// Manager owns the shared transport and both upstreams.
type Manager struct {
	feed    *FeedSource
	fx      *FXSource
	observe Observer
}

func NewManager(cfg ManagerConfig, observe Observer) *Manager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.Labels.Gold == nil {
		cfg.Labels = feed.DefaultLabels()
	}
	client := NewClient(cfg.Timeout)
	if observe == nil {
		observe = func(string, time.Duration, error) {}
	}
	return &Manager{
		feed:    NewFeedSource(client, cfg.FeedURL, cfg.Labels),
		fx:      NewFXSource(client, cfg.FXEndpoints),
		observe: observe,
	}
}

func (m *Manager) FetchFeed(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	snap, err := m.feed.Fetch(ctx)
	m.observe(SourceFeed, time.Since(start), err)
	return snap, err
}

func (m *Manager) FetchFX(ctx context.Context) (FXQuote, error) {
	start := time.Now()
	q, err := m.fx.Fetch(ctx)
	m.observe(SourceFX, time.Since(start), err)
	return q, err
}
