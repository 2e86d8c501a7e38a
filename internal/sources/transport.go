package sources

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "Mozilla/5.0 (compatible; GoldLiveRates/1.0; +https://github.com/Armin-kho/gold-live-rates)"

// Client is the shared HTTP transport for every upstream.
type Client struct {
	r *resty.Client
}

func NewClient(timeout time.Duration) *Client {
	r := resty.New()
	r.SetTimeout(timeout)
	r.SetHeader("User-Agent", userAgent)
	r.SetHeader("Cache-Control", "no-cache")
	return &Client{r: r}
}

// Get returns the body of a 2xx response. Anything else is a *TransportError; a cancelled ctx
// surfaces as an error that matches context.Canceled.
func (c *Client) Get(ctx context.Context, url string, query map[string]string) ([]byte, error) {
	resp, err := c.r.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(url)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	if !resp.IsSuccess() {
		snip := strings.TrimSpace(string(resp.Body()))
		if len(snip) > 200 {
			snip = snip[:200]
		}
		return nil, &TransportError{URL: url, Status: resp.StatusCode(), Err: statusError(snip)}
	}
	return resp.Body(), nil
}

type statusError string

func (s statusError) Error() string { return string(s) }
