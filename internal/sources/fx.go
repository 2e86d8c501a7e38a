package sources

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tidwall/gjson"
)

// FXEndpoint is one USD→INR provider. Path is the gjson path of the INR rate in its body.
type FXEndpoint struct {
	Name string
	URL  string
	Path string
}

func DefaultFXEndpoints() []FXEndpoint {
	return []FXEndpoint{
		{Name: "exchangerate.host", URL: "https://api.exchangerate.host/latest?base=USD&symbols=INR", Path: "rates.INR"},
		{Name: "open.er-api.com", URL: "https://open.er-api.com/v6/latest/USD", Path: "rates.INR"},
	}
}

var ErrNoFXRate = errors.New("no usable USD/INR rate")

// FXSource tries each endpoint in order until one yields a finite positive rate.
type FXSource struct {
	client    *Client
	endpoints []FXEndpoint
	nowFn     func() time.Time
}

func NewFXSource(client *Client, endpoints []FXEndpoint) *FXSource {
	if len(endpoints) == 0 {
		endpoints = DefaultFXEndpoints()
	}
	return &FXSource{client: client, endpoints: endpoints, nowFn: time.Now}
}

func (s *FXSource) Fetch(ctx context.Context) (FXQuote, error) {
	var errs []error
	for _, ep := range s.endpoints {
		rate, err := s.fetchOne(ctx, ep)
		if err == nil {
			return FXQuote{Rate: rate, Provider: ep.Name, FetchedAt: s.nowFn()}, nil
		}
		if ctx.Err() != nil {
			return FXQuote{}, ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", ep.Name, err))
	}
	return FXQuote{}, fmt.Errorf("%w: %w", ErrNoFXRate, errors.Join(errs...))
}

func (s *FXSource) fetchOne(ctx context.Context, ep FXEndpoint) (float64, error) {
	body, err := s.client.Get(ctx, ep.URL, nil)
	if err != nil {
		return 0, err
	}
	res := gjson.GetBytes(body, ep.Path)
	if !res.Exists() {
		return 0, fmt.Errorf("missing %s", ep.Path)
	}
	v := res.Float()
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("bad %s: %s", ep.Path, res.Raw)
	}
	return v, nil
}
