package sequencer

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"go-fillin/pattern"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

type rig struct {
	clock  *fakeClock
	driver *manualDriver
	voice  *recorder
	sched  *Scheduler
	steps  []int
	tempo  int
	grid   pattern.Grid
	mu     sync.Mutex
}

func newRig(g pattern.Grid) *rig {
	r := &rig{
		clock:  &fakeClock{},
		driver: &manualDriver{},
		voice:  &recorder{},
		tempo:  120,
		grid:   g,
	}
	r.sched = NewScheduler(SchedulerConfig{
		Clock:  r.clock,
		Driver: r.driver,
		Grid: func() pattern.Grid {
			r.mu.Lock()
			defer r.mu.Unlock()
			return r.grid
		},
		Tempo: func() int {
			r.mu.Lock()
			defer r.mu.Unlock()
			return r.tempo
		},
		Voices: []Voice{r.voice},
		OnStep: func(step int) { r.steps = append(r.steps, step) },
	})
	return r
}

func (r *rig) advance(to float64) {
	r.clock.set(to)
	r.driver.fire()
}

func everyStep(inst pattern.Instrument) pattern.Grid {
	var g pattern.Grid
	for s := range pattern.NumSteps {
		g.SetSteps(inst, s)
	}
	return g
}

func TestStepDuration(t *testing.T) {
	tests := map[int]float64{
		120: 0.125,
		60:  0.25,
		200: 0.075,
		0:   0.125,
		-40: 0.125,
	}
	for tempo, want := range tests {
		if got := StepDuration(tempo); !near(got, want) {
			t.Errorf("StepDuration(%d): got %v, want %v", tempo, got, want)
		}
	}
}

func TestStartSchedulesFirstStepNow(t *testing.T) {
	var g pattern.Grid
	g.SetColumn(0, pattern.Kick, pattern.Crash)
	g.SetSteps(pattern.Snare, 1)
	r := newRig(g)
	r.clock.set(5)

	if err := r.sched.Start(); err != nil {
		t.Fatal(err)
	}
	hits := r.voice.snapshot()
	want := []hit{{pattern.Crash, 5}, {pattern.Kick, 5}}
	if len(hits) != len(want) {
		t.Fatalf("got %v, want %v", hits, want)
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Errorf("hit %d: got %v, want %v", i, hits[i], want[i])
		}
	}
	if !near(r.sched.NextEventTime(), 5.125) {
		t.Errorf("next event: got %v, want 5.125", r.sched.NextEventTime())
	}
}

func TestLookAheadWindow(t *testing.T) {
	r := newRig(everyStep(pattern.ClosedHiHat))
	r.sched.Start()
	if len(r.steps) != 1 {
		t.Fatalf("after start: got steps %v, want [0]", r.steps)
	}

	r.advance(0.02) // window ends at 0.12, step 1 is at 0.125
	if len(r.steps) != 1 {
		t.Errorf("step 1 scheduled early: %v", r.steps)
	}
	r.advance(0.03)
	if len(r.steps) != 2 || r.steps[1] != 1 {
		t.Errorf("got steps %v, want [0 1]", r.steps)
	}
	hits := r.voice.snapshot()
	if !near(hits[1].at, 0.125) {
		t.Errorf("step 1 at %v, want 0.125", hits[1].at)
	}
}

func TestCatchUpAfterStall(t *testing.T) {
	r := newRig(everyStep(pattern.Kick))
	r.sched.Start()
	r.advance(1.0)

	// steps 1..8 fall at 0.125..1.0, step 9 at 1.125 is past the window
	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	if len(r.steps) != len(want) {
		t.Fatalf("got %v, want %v", r.steps, want)
	}
	for i, hit := range r.voice.snapshot() {
		if !near(hit.at, float64(i)*0.125) {
			t.Errorf("hit %d at %v, want %v", i, hit.at, float64(i)*0.125)
		}
	}
}

func TestMonotonicCursor(t *testing.T) {
	r := newRig(everyStep(pattern.Kick))
	r.sched.Start()

	prev := r.sched.NextEventTime()
	for now := 0.0; now < 10; now += 0.016 {
		r.advance(now)
		next := r.sched.NextEventTime()
		if next < prev {
			t.Fatalf("next event went back: %v -> %v", prev, next)
		}
		prev = next
	}

	if len(r.steps) < 64 {
		t.Fatalf("only %d steps", len(r.steps))
	}
	for i, step := range r.steps {
		if step != i%pattern.NumSteps {
			t.Fatalf("step %d: got %d, want %d", i, step, i%pattern.NumSteps)
		}
	}
	hits := r.voice.snapshot()
	for i := 1; i < len(hits); i++ {
		if !(hits[i].at > hits[i-1].at) {
			t.Fatalf("hit %d at %v not after %v", i, hits[i].at, hits[i-1].at)
		}
	}
}

func TestTempoChangeAppliesToNextStep(t *testing.T) {
	r := newRig(everyStep(pattern.Kick))
	r.sched.Start() // step 0 at 0, step 1 due at 0.125

	r.mu.Lock()
	r.tempo = 60
	r.mu.Unlock()

	r.advance(0.05) // schedules step 1
	if !near(r.sched.NextEventTime(), 0.125+0.25) {
		t.Errorf("next event: got %v, want 0.375", r.sched.NextEventTime())
	}
}

func TestNonPositiveTempoStillAdvances(t *testing.T) {
	r := newRig(everyStep(pattern.Kick))
	r.tempo = 0
	r.sched.Start()
	r.advance(1)
	if got := r.sched.NextEventTime(); got <= 1 || math.IsInf(got, 0) {
		t.Errorf("next event: got %v", got)
	}
}

func TestStopSilencesStaleTicks(t *testing.T) {
	r := newRig(everyStep(pattern.Kick))
	r.sched.Start()
	r.sched.Stop()

	if r.driver.stops != 1 {
		t.Errorf("driver stops: got %d, want 1", r.driver.stops)
	}
	before := len(r.voice.snapshot())
	r.advance(3) // a tick that was already queued
	if got := len(r.voice.snapshot()); got != before {
		t.Errorf("got %d hits after stop, want %d", got, before)
	}
	if r.sched.Running() {
		t.Errorf("still running")
	}
}

func TestStopDuringTick(t *testing.T) {
	r := newRig(everyStep(pattern.Kick))
	stopped := make(chan struct{})
	var once sync.Once
	r.sched.AddVoice(voiceFunc(func(pattern.Instrument, float64) {
		once.Do(func() {
			go func() {
				r.sched.Stop()
				close(stopped)
			}()
		})
	}))

	r.sched.Start()
	r.advance(2)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	n := len(r.voice.snapshot())
	r.advance(4)
	r.advance(6)
	if got := len(r.voice.snapshot()); got != n {
		t.Errorf("hits after Stop returned: got %d, want %d", got, n)
	}
}

func TestRestartBeginsAtStepZero(t *testing.T) {
	r := newRig(everyStep(pattern.Kick))
	r.sched.Start()
	r.advance(0.6)
	r.sched.Stop()

	r.steps = nil
	r.clock.set(9)
	r.sched.Start()
	if len(r.steps) == 0 || r.steps[0] != 0 {
		t.Errorf("restart steps: got %v, want [0 ...]", r.steps)
	}
	if !near(r.sched.NextEventTime(), 9.125) {
		t.Errorf("next event: got %v, want 9.125", r.sched.NextEventTime())
	}
}

func TestStartInitsClockLazily(t *testing.T) {
	r := newRig(pattern.Default())
	if r.clock.inits != 0 {
		t.Fatalf("clock opened before first use")
	}
	r.clock.initErr = errors.New("no device")
	if err := r.sched.Start(); err == nil {
		t.Errorf("expected init error")
	}
	if !r.sched.Running() {
		t.Errorf("scheduler should run on a silent clock")
	}
	if r.clock.inits != 1 {
		t.Errorf("inits: got %d, want 1", r.clock.inits)
	}
}

func TestTickerDriver(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	stop := TickerDriver{Interval: time.Millisecond}.Start(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := calls
		mu.Unlock()
		if n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("driver did not tick")
		}
		time.Sleep(time.Millisecond)
	}
	stop()
	stop()

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	n := calls
	mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != n {
		t.Errorf("driver ticked after stop: %d -> %d", n, calls)
	}
}

type voiceFunc func(pattern.Instrument, float64)

func (f voiceFunc) Trigger(inst pattern.Instrument, at float64) { f(inst, at) }
