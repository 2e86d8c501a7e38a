package sources

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Armin-kho/gold-live-rates/internal/feed"
)

const DefaultFeedURL = "https://bcast.sagarjewellers.co.in:7768/VOTSBroadcastStreaming/Services/xml/GetLiveRateByTemplateID/sagar"

// FeedSource reads the plain-text broadcast and extracts gold, silver and spot.
type FeedSource struct {
	client *Client
	url    string
	labels feed.Labels
	nowFn  func() time.Time
}

func NewFeedSource(client *Client, url string, labels feed.Labels) *FeedSource {
	if url == "" {
		url = DefaultFeedURL
	}
	return &FeedSource{client: client, url: url, labels: labels, nowFn: time.Now}
}

func (s *FeedSource) URL() string { return s.url }

// Fetch adds a `_=<unix ms>` cache-buster to every request. Parse failures come back as
// *feed.ParseError wrapped with the source URL.
func (s *FeedSource) Fetch(ctx context.Context) (Snapshot, error) {
	now := s.nowFn()
	body, err := s.client.Get(ctx, s.url, map[string]string{
		"_": strconv.FormatInt(now.UnixMilli(), 10),
	})
	if err != nil {
		return Snapshot{}, err
	}
	r, err := feed.Parse(string(body), s.labels)
	if err != nil {
		return Snapshot{}, fmt.Errorf("feed %s: %w", s.url, err)
	}
	return Snapshot{Reading: r, FetchedAt: now}, nil
}
