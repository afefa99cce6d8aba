package sequencer

import (
	"sync"

	"go-fillin/debug"
	"go-fillin/pattern"
)

const (
	// LookAhead is how far past the device clock each tick schedules, in seconds
	LookAhead = 0.1
	// DefaultTempo is used when no usable tempo is available
	DefaultTempo = 120
	// StepsPerBeat makes every step a 16th note
	StepsPerBeat = 4
)

// StepDuration is the length of one step in seconds. A non-positive tempo
// falls back to DefaultTempo so the cursor always moves forward.
func StepDuration(tempo int) float64 {
	if tempo <= 0 {
		tempo = DefaultTempo
	}
	return 60 / float64(tempo) / StepsPerBeat
}

// Clock is the device clock that trigger times refer to. Init opens the
// device on first use and may be called any number of times.
type Clock interface {
	Now() float64
	Init() error
}

// Voice receives scheduled hits
type Voice interface {
	Trigger(inst pattern.Instrument, at float64)
}

// SchedulerConfig wires a Scheduler to its collaborators
type SchedulerConfig struct {
	Clock     Clock
	Driver    Driver
	Grid      func() pattern.Grid
	Tempo     func() int
	Voices    []Voice
	LookAhead float64   // seconds; zero means LookAhead
	OnStep    func(int) // called with each step as it is scheduled
}

// Scheduler walks the grid ahead of the device clock. Every tick it
// schedules all steps that start within the look-ahead window, at their
// exact device time, so timing does not depend on tick jitter.
type Scheduler struct {
	clock     Clock
	driver    Driver
	grid      func() pattern.Grid
	tempo     func() int
	lookAhead float64
	onStep    func(int)

	mu       sync.Mutex
	voices   []Voice
	running  bool
	gen      uint64 // bumped by every Start and Stop
	step     int
	nextTime float64
	stop     func()
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		clock:     cfg.Clock,
		driver:    cfg.Driver,
		grid:      cfg.Grid,
		tempo:     cfg.Tempo,
		lookAhead: cfg.LookAhead,
		onStep:    cfg.OnStep,
		voices:    cfg.Voices,
	}
	if s.lookAhead <= 0 {
		s.lookAhead = LookAhead
	}
	if s.driver == nil {
		s.driver = TickerDriver{}
	}
	if s.tempo == nil {
		s.tempo = func() int { return DefaultTempo }
	}
	return s
}

// AddVoice registers another sink for every hit
func (s *Scheduler) AddVoice(v Voice) {
	s.mu.Lock()
	s.voices = append(s.voices, v)
	s.mu.Unlock()
}

// Start begins playback from step 0 at the current device time. A clock
// that fails to open is reported, but playback still runs on it.
func (s *Scheduler) Start() error {
	err := s.clock.Init()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return err
	}
	s.running = true
	s.gen++
	gen := s.gen
	s.step = 0
	s.nextTime = s.clock.Now()
	s.stop = s.driver.Start(func() { s.tick(gen) })
	s.mu.Unlock()

	debug.Log("sched", "start gen=%d at %.3f", gen, s.nextTime)
	s.tick(gen)
	return err
}

// Stop halts playback. No hit is triggered after Stop returns, even if a
// tick was running when it was called.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.gen++
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	debug.Log("sched", "stop")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextEventTime is the device time of the next unscheduled step
func (s *Scheduler) NextEventTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextTime
}

// TriggerNow sends one hit to every voice at the current device time
func (s *Scheduler) TriggerNow(inst pattern.Instrument) {
	if err := s.clock.Init(); err != nil {
		debug.Log("sched", "audition on silent clock: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	for _, v := range s.voices {
		v.Trigger(inst, now)
	}
}

func (s *Scheduler) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || gen != s.gen {
		return
	}

	now := s.clock.Now()
	grid := s.grid()
	horizon := now + s.lookAhead
	for s.nextTime < horizon {
		step := s.step
		for _, inst := range grid.Column(step) {
			for _, v := range s.voices {
				v.Trigger(inst, s.nextTime)
			}
		}
		if s.onStep != nil {
			s.onStep(step)
		}
		debug.LogEvery(64, "sched", "step %d at %.3f (now %.3f)", step, s.nextTime, now)

		s.step = (s.step + 1) % pattern.NumSteps
		s.nextTime += StepDuration(s.tempo())
	}
}
