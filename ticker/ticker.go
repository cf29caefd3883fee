// Package ticker provides a start/stop/resettable alternative to
// time.Ticker, plus a mock implementation that lets tests fire ticks on
// demand instead of waiting on a wall-clock interval.
package ticker

import "time"

// Ticker is the tick source Runner drives its loop from. Unlike a raw
// time.Ticker, it can be stopped and later resumed without losing the
// configured interval.
type Ticker interface {
	// Ticks returns the channel ticks are delivered on.
	Ticks() <-chan time.Time

	// Start begins ticking at the configured interval.
	Start()

	// Stop halts ticking. Ticks can be resumed with Start.
	Stop()
}

// intervalTicker is a Ticker backed directly by time.Ticker.
type intervalTicker struct {
	interval time.Duration
	ticker   *time.Ticker
	ch       chan time.Time
}

// New returns a Ticker that delivers a tick every interval once Start is
// called.
func New(interval time.Duration) Ticker {
	return &intervalTicker{interval: interval, ch: make(chan time.Time, 1)}
}

func (t *intervalTicker) Ticks() <-chan time.Time {
	return t.ch
}

func (t *intervalTicker) Start() {
	if t.ticker != nil {
		return
	}
	t.ticker = time.NewTicker(t.interval)

	go func() {
		src := t.ticker
		if src == nil {
			return
		}
		for tick := range src.C {
			select {
			case t.ch <- tick:
			default:
			}
		}
	}()
}

func (t *intervalTicker) Stop() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	t.ticker = nil
}

// Mock is a Ticker driven entirely by test code calling Tick, with no
// wall-clock dependency.
type Mock struct {
	ch      chan time.Time
	running bool
}

// NewMock returns a stopped mock Ticker.
func NewMock() *Mock {
	return &Mock{ch: make(chan time.Time, 1)}
}

func (m *Mock) Ticks() <-chan time.Time { return m.ch }

// Start marks the mock ticker as accepting Tick calls. Tick delivers
// regardless of Start/Stop state; Start/Stop only exist to satisfy Ticker.
func (m *Mock) Start() { m.running = true }

// Stop marks the mock ticker as not running.
func (m *Mock) Stop() { m.running = false }

// Tick delivers now on the ticker's channel. The channel holds one tick,
// so Tick returns at once when it is empty and blocks only while an
// earlier tick is still unconsumed.
func (m *Mock) Tick(now time.Time) {
	m.ch <- now
}
