package host

import (
	"sync"
	"time"
)

// Clock is the runtime's source of wall time and tick cadence.
type Clock interface {
	NowMs() int64
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type systemClock struct{}

func SystemClock() Clock { return systemClock{} }

func (systemClock) NowMs() int64 { return time.Now().UnixMilli() }

func (systemClock) NewTicker(d time.Duration) Ticker { return systemTicker{time.NewTicker(d)} }

type systemTicker struct{ t *time.Ticker }

func (t systemTicker) C() <-chan time.Time { return t.t.C }
func (t systemTicker) Stop()               { t.t.Stop() }

// FakeClock is a manually driven Clock. Fire delivers one tick and blocks
// until the runtime has received it.
type FakeClock struct {
	mu    sync.Mutex
	now   int64
	ch    chan time.Time
	ready chan struct{}
	once  sync.Once
}

func NewFakeClock(nowMs int64) *FakeClock {
	return &FakeClock{now: nowMs, ch: make(chan time.Time), ready: make(chan struct{})}
}

func (c *FakeClock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Set(nowMs int64) {
	c.mu.Lock()
	c.now = nowMs
	c.mu.Unlock()
}

func (c *FakeClock) Advance(ms int64) {
	c.mu.Lock()
	c.now += ms
	c.mu.Unlock()
}

func (c *FakeClock) NewTicker(time.Duration) Ticker {
	c.once.Do(func() { close(c.ready) })
	return fakeTicker{c.ch}
}

// Fire waits for a ticker to exist, then sends one tick.
func (c *FakeClock) Fire() {
	<-c.ready
	c.ch <- time.UnixMilli(c.NowMs())
}

type fakeTicker struct{ ch chan time.Time }

func (t fakeTicker) C() <-chan time.Time { return t.ch }
func (t fakeTicker) Stop()               {}
