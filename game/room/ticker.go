package room

import "time"

// Ticker is the clock a room steps on
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker for the given interval
type TickerFunc func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.Ticker
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// ManualTicker only ticks when told to. Tick blocks until the room has
// taken the tick.
type ManualTicker struct {
	ch chan time.Time
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time)}
}

func (m *ManualTicker) C() <-chan time.Time { return m.ch }
func (m *ManualTicker) Stop()               {}

// Tick delivers one tick, giving up once done is closed
func (m *ManualTicker) Tick(done <-chan struct{}) bool {
	select {
	case m.ch <- time.Now():
		return true
	case <-done:
		return false
	}
}

// Func returns a TickerFunc that always hands out m
func (m *ManualTicker) Func() TickerFunc {
	return func(time.Duration) Ticker { return m }
}
