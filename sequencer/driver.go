package sequencer

import (
	"sync"
	"time"
)

const (
	DefaultTickInterval = 10 * time.Millisecond
	// MaxTickInterval keeps the tick period well inside LookAhead
	MaxTickInterval = 25 * time.Millisecond
)

// Driver calls fn periodically until the returned stop func is called.
// Stop must not wait for a running fn to return.
type Driver interface {
	Start(fn func()) (stop func())
}

// TickerDriver drives the scheduler from a time.Ticker
type TickerDriver struct {
	Interval time.Duration
}

func (d TickerDriver) Start(fn func()) func() {
	interval := d.Interval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	interval = min(interval, MaxTickInterval)

	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
