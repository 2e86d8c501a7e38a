package sources

import (
	"fmt"
	"time"

	"github.com/Armin-kho/gold-live-rates/internal/feed"
)

// Snapshot is one successful read of the primary feed.
type Snapshot struct {
	Reading   feed.Reading
	FetchedAt time.Time
}

// FXQuote is one successful USD→INR lookup.
type FXQuote struct {
	Rate      float64
	Provider  string
	FetchedAt time.Time
}

// TransportError is a request that never produced a usable body: the connection failed or the
// upstream answered with a non-2xx status.
type TransportError struct {
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("GET %s: http %d", e.URL, e.Status)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
