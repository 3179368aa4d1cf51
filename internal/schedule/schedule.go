// Package schedule drives cooperative work on the editor's single logical
// thread.
package schedule

import (
	"context"
	"time"
)

// Timer is a periodic trigger that can be switched on and off. Work driven
// by it runs only while it is enabled.
type Timer interface {
	Enabled() bool
	SetEnabled(on bool)
}

// Manual is a Timer that only records its state. Hosts that tick by hand
// and tests use it.
type Manual struct {
	on bool
}

func (m *Manual) Enabled() bool      { return m.on }
func (m *Manual) SetEnabled(on bool) { m.on = on }

// Ticker is a Timer backed by a time.Ticker. It is not safe for concurrent
// use; enable, disable and read it from the loop goroutine.
type Ticker struct {
	interval time.Duration
	t        *time.Ticker
}

// NewTicker returns a disabled ticker firing every interval once enabled.
func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{interval: interval}
}

func (t *Ticker) Enabled() bool { return t.t != nil }

func (t *Ticker) SetEnabled(on bool) {
	switch {
	case on && t.t == nil:
		t.t = time.NewTicker(t.interval)
	case !on && t.t != nil:
		t.t.Stop()
		t.t = nil
	}
}

// C returns the tick channel, nil while disabled. A nil channel never
// becomes ready in a select.
func (t *Ticker) C() <-chan time.Time {
	if t.t == nil {
		return nil
	}
	return t.t.C
}

// Loop serializes posted functions and ticks on one goroutine, the one
// calling Run.
type Loop struct {
	posts  chan func()
	ticker *Ticker
}

// NewLoop returns a loop driven by ticker.
func NewLoop(ticker *Ticker) *Loop {
	return &Loop{posts: make(chan func(), 64), ticker: ticker}
}

// Ticker returns the loop's ticker.
func (l *Loop) Ticker() *Ticker { return l.ticker }

// Post queues fn to run on the loop. It may be called from any goroutine
// and blocks only while the queue is full.
func (l *Loop) Post(fn func()) {
	l.posts <- fn
}

// Run executes posted functions and calls tick on every tick of an enabled
// ticker until ctx is done.
func (l *Loop) Run(ctx context.Context, tick func()) error {
	return l.run(ctx, tick, false)
}

// RunUntilIdle is Run that also returns once the ticker is disabled and no
// posted function is waiting.
func (l *Loop) RunUntilIdle(ctx context.Context, tick func()) error {
	return l.run(ctx, tick, true)
}

func (l *Loop) run(ctx context.Context, tick func(), untilIdle bool) error {
	defer l.ticker.SetEnabled(false)
	for {
		if untilIdle && !l.ticker.Enabled() {
			select {
			case fn := <-l.posts:
				fn()
				continue
			default:
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.posts:
			fn()
		case <-l.ticker.C():
			tick()
		}
	}
}
