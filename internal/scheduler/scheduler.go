package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Armin-kho/gold-live-rates/internal/logger"
)

type State string

const (
	StateIdle         State = "idle"
	StateFetching     State = "fetching"
	StateScheduled    State = "scheduled"
	StateRetryPending State = "retry-pending"
)

// Poller drives fetch → apply cycles at a fixed interval. A failed cycle is retried after the
// same interval. Fetch runs on its own goroutine with a per-cycle context; Apply and Fail run on
// the poller goroutine and only for the current cycle, so a superseded cycle never applies.
type Poller[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
	Apply func(T)
	Fail  func(error)

	mu        sync.Mutex
	interval  time.Duration
	state     State
	countdown *Countdown
	resetCh   chan time.Duration
}

type cycleResult[T any] struct {
	gen int
	val T
	err error
}

func NewPoller[T any](name string, interval time.Duration, fetch func(ctx context.Context) (T, error)) *Poller[T] {
	return &Poller[T]{
		Name:      name,
		Fetch:     fetch,
		interval:  interval,
		state:     StateIdle,
		countdown: NewCountdown(),
		resetCh:   make(chan time.Duration),
	}
}

func (p *Poller[T]) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

func (p *Poller[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller[T]) Countdown() *Countdown { return p.countdown }

func (p *Poller[T]) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// SetInterval aborts the in-flight cycle, drops the pending timer and starts a fresh cycle
// that continues at d. It blocks until the running loop picks the change up or ctx ends.
func (p *Poller[T]) SetInterval(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case p.resetCh <- d:
	case <-ctx.Done():
	}
}

// Run blocks until ctx is done. The first fetch starts immediately.
func (p *Poller[T]) Run(ctx context.Context) error {
	results := make(chan cycleResult[T])
	timer := time.NewTimer(0)
	defer timer.Stop()

	var (
		gen         int
		cancelCycle context.CancelFunc = func() {}
	)
	defer func() { cancelCycle() }()

	start := func() {
		gen++
		cycle := gen
		cctx, cancel := context.WithCancel(ctx)
		cancelCycle = cancel
		p.setState(StateFetching)
		cycleID := uuid.NewString()
		logger.Debugf("[%s] cycle %d start id=%s", p.Name, cycle, cycleID)
		go func() {
			v, err := p.Fetch(cctx)
			select {
			case results <- cycleResult[T]{gen: cycle, val: v, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	schedule := func(next State) {
		d := p.Interval()
		timer.Reset(d)
		p.countdown.Reset(d)
		p.setState(next)
	}

	for {
		select {
		case <-ctx.Done():
			p.setState(StateIdle)
			return nil

		case <-timer.C:
			start()

		case r := <-results:
			if r.gen != gen {
				continue
			}
			cancelCycle()
			if r.err != nil {
				if errors.Is(r.err, context.Canceled) && ctx.Err() != nil {
					continue
				}
				logger.Warnf("[%s] fetch failed: %v", p.Name, r.err)
				if p.Fail != nil {
					p.Fail(r.err)
				}
				schedule(StateRetryPending)
				continue
			}
			if p.Apply != nil {
				p.Apply(r.val)
			}
			schedule(StateScheduled)

		case d := <-p.resetCh:
			p.mu.Lock()
			p.interval = d
			p.mu.Unlock()
			cancelCycle()
			// invalidate whatever is in flight
			gen++
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			logger.Infof("[%s] interval set to %s", p.Name, d)
			start()
		}
	}
}
