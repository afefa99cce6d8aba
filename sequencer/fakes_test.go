package sequencer

import (
	"sync"

	"go-fillin/pattern"
)

type fakeClock struct {
	mu      sync.Mutex
	now     float64
	inits   int
	initErr error
}

func (c *fakeClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inits++
	return c.initErr
}

func (c *fakeClock) set(t float64) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// manualDriver fires only when the test says so
type manualDriver struct {
	mu    sync.Mutex
	fn    func()
	stops int
}

func (d *manualDriver) Start(fn func()) func() {
	d.mu.Lock()
	d.fn = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		d.stops++
		d.mu.Unlock()
	}
}

// fire runs the most recently started callback, even after stop
func (d *manualDriver) fire() {
	d.mu.Lock()
	fn := d.fn
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type hit struct {
	inst pattern.Instrument
	at   float64
}

type recorder struct {
	mu      sync.Mutex
	hits    []hit
	volume  float64
	flushes int
}

func (r *recorder) Trigger(inst pattern.Instrument, at float64) {
	r.mu.Lock()
	r.hits = append(r.hits, hit{inst, at})
	r.mu.Unlock()
}

func (r *recorder) SetVolume(v float64) {
	r.mu.Lock()
	r.volume = v
	r.mu.Unlock()
}

func (r *recorder) Volume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

func (r *recorder) Flush() {
	r.mu.Lock()
	r.flushes++
	r.mu.Unlock()
}

func (r *recorder) snapshot() []hit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]hit(nil), r.hits...)
}
