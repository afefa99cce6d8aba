package sequencer

import (
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-fillin/debug"
	"go-fillin/midi"
	"go-fillin/pattern"
)

const (
	MinTempo = 60
	MaxTempo = 200
	// DefaultExportPath is where ExportFile writes when given no path
	DefaultExportPath = "cyber_beats.mid"
)

// Mixer is the audio sink: it takes hits and owns the master volume
type Mixer interface {
	Voice
	SetVolume(v float64)
	Volume() float64
}

// Flusher is implemented by sinks that hold hits not yet sounded
type Flusher interface {
	Flush()
}

// Options configure a Manager
type Options struct {
	Tempo        int
	Volume       float64
	LookAhead    float64
	TickInterval time.Duration
	ExportPath   string
	Driver       Driver          // nil means a TickerDriver at TickInterval
	Rand         func(n int) int // preset shuffle; nil means math/rand
}

// Manager is the transport: it owns the grid, tempo and scheduler and is
// the only thing the UI talks to.
type Manager struct {
	mu         sync.RWMutex
	grid       pattern.Grid
	tempo      int
	category   string
	preset     string
	exportPath string
	err        error
	rand       func(n int) int

	mixer     Mixer
	sinks     []Voice
	sched     *Scheduler
	transport sync.Mutex // serializes Play and Stop
	step      atomic.Int32
	playing   atomic.Bool

	midiInputStop chan struct{}

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates a stopped transport loaded with the default preset
func NewManager(clock Clock, mixer Mixer, opts Options) *Manager {
	m := &Manager{
		grid:       pattern.Default(),
		tempo:      clampTempo(opts.Tempo),
		category:   pattern.DefaultCategory,
		preset:     pattern.DefaultPreset,
		exportPath: opts.ExportPath,
		rand:       opts.Rand,
		mixer:      mixer,
		UpdateChan: make(chan struct{}, 1),
	}
	if opts.Tempo == 0 {
		m.tempo = DefaultTempo
	}
	if m.exportPath == "" {
		m.exportPath = DefaultExportPath
	}
	if m.rand == nil {
		m.rand = rand.IntN
	}
	driver := opts.Driver
	if driver == nil {
		driver = TickerDriver{Interval: opts.TickInterval}
	}

	var voices []Voice
	if mixer != nil {
		mixer.SetVolume(clampVolume(opts.Volume))
		voices = append(voices, mixer)
	}
	m.sched = NewScheduler(SchedulerConfig{
		Clock:     clock,
		Driver:    driver,
		Grid:      m.Grid,
		Tempo:     m.Tempo,
		Voices:    voices,
		LookAhead: opts.LookAhead,
		OnStep:    m.onStep,
	})
	return m
}

// AddOutput mirrors every hit to another sink, e.g. a MIDI port
func (m *Manager) AddOutput(v Voice) {
	m.mu.Lock()
	m.sinks = append(m.sinks, v)
	m.mu.Unlock()
	m.sched.AddVoice(v)
}

func (m *Manager) onStep(step int) {
	m.step.Store(int32(step))
	m.notifyUpdate()
}

// Play starts playback from step 0
func (m *Manager) Play() {
	m.transport.Lock()
	defer m.transport.Unlock()
	if m.playing.Swap(true) {
		return
	}
	if err := m.sched.Start(); err != nil {
		m.setErr(err)
	}
	debug.Log("transport", "play tempo=%d", m.Tempo())
	m.notifyUpdate()
}

// Stop stops playback and silences sinks holding queued hits
func (m *Manager) Stop() {
	m.transport.Lock()
	defer m.transport.Unlock()
	if !m.playing.Swap(false) {
		return
	}
	m.sched.Stop()
	m.flushSinks()
	debug.Log("transport", "stop at step %d", m.step.Load())
	m.notifyUpdate()
}

func (m *Manager) TogglePlay() {
	_, playing, _ := m.GetState()
	if playing {
		m.Stop()
	} else {
		m.Play()
	}
}

func (m *Manager) flushSinks() {
	m.mu.RLock()
	sinks := append([]Voice{m.mixer}, m.sinks...)
	m.mu.RUnlock()
	for _, v := range sinks {
		if f, ok := v.(Flusher); ok {
			f.Flush()
		}
	}
}

// SetTempo sets the BPM, clamped to [MinTempo, MaxTempo]. A running
// scheduler picks it up on the next step.
func (m *Manager) SetTempo(bpm int) {
	m.mu.Lock()
	m.tempo = clampTempo(bpm)
	m.mu.Unlock()
	m.notifyUpdate()
}

func (m *Manager) Tempo() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tempo
}

// SetVolume sets the master volume in [0, 1]
func (m *Manager) SetVolume(v float64) {
	if m.mixer == nil {
		return
	}
	m.mixer.SetVolume(clampVolume(v))
	m.notifyUpdate()
}

func (m *Manager) Volume() float64 {
	if m.mixer == nil {
		return 0
	}
	return m.mixer.Volume()
}

// Toggle flips one cell. The edit is heard the next time the step comes round.
func (m *Manager) Toggle(row, step int) error {
	m.mu.Lock()
	err := m.grid.Toggle(row, step)
	if err == nil {
		m.preset = ""
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.notifyUpdate()
	return nil
}

// SetGrid replaces the whole pattern
func (m *Manager) SetGrid(g pattern.Grid) {
	m.mu.Lock()
	m.grid = g
	m.preset = ""
	m.mu.Unlock()
	m.notifyUpdate()
}

// Grid returns a copy of the pattern
func (m *Manager) Grid() pattern.Grid {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.grid
}

// LoadPreset replaces the pattern with a named preset
func (m *Manager) LoadPreset(category, name string) error {
	g, err := pattern.Preset(category, name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.grid = g
	m.category = category
	m.preset = name
	m.mu.Unlock()
	debug.Log("transport", "preset %s / %s", category, name)
	m.notifyUpdate()
	return nil
}

// LoadRandomPreset loads a random variation of a category
func (m *Manager) LoadRandomPreset(category string) error {
	name, g, err := pattern.Random(category, m.rand)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.grid = g
	m.category = category
	m.preset = name
	m.mu.Unlock()
	debug.Log("transport", "random preset %s / %s", category, name)
	m.notifyUpdate()
	return nil
}

// Category is the preset category last selected
func (m *Manager) Category() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.category
}

// SetCategory selects a category without loading a preset
func (m *Manager) SetCategory(category string) error {
	if len(pattern.Variations(category)) == 0 {
		return fault.Wrap(pattern.ErrUnknownPreset,
			fmsg.WithDesc("category "+category, "No such preset category"),
			ftag.With(ftag.NotFound),
		)
	}
	m.mu.Lock()
	m.category = category
	m.mu.Unlock()
	m.notifyUpdate()
	return nil
}

// PresetName is the loaded preset, or "" once the pattern was edited
func (m *Manager) PresetName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.preset
}

// Clear stops playback, empties the pattern and moves the playhead home
func (m *Manager) Clear() {
	m.Stop()
	m.mu.Lock()
	m.grid = pattern.Clear()
	m.preset = ""
	m.mu.Unlock()
	m.step.Store(0)
	m.notifyUpdate()
}

// Export encodes the current pattern and tempo as a Standard MIDI File
func (m *Manager) Export() ([]byte, error) {
	m.mu.RLock()
	g, tempo := m.grid, m.tempo
	m.mu.RUnlock()
	return midi.Encode(g, tempo)
}

// ExportFile writes the export to path, or to the configured path if empty.
// It returns the path written.
func (m *Manager) ExportFile(path string) (string, error) {
	if path == "" {
		m.mu.RLock()
		path = m.exportPath
		m.mu.RUnlock()
	}
	data, err := m.Export()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fault.Wrap(err, fmsg.WithDesc("write export", "Could not save the MIDI file."))
	}
	debug.Log("export", "wrote %d bytes to %s", len(data), path)
	return path, nil
}

// Audition plays one hit right now on every sink
func (m *Manager) Audition(inst pattern.Instrument) {
	if !inst.Valid() {
		return
	}
	m.sched.TriggerNow(inst)
}

// GetState returns the playhead step, transport state and tempo
func (m *Manager) GetState() (step int, playing bool, tempo int) {
	return int(m.step.Load()), m.playing.Load(), m.Tempo()
}

// Err returns and clears the last background error, e.g. a failed audio device
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.err
	m.err = nil
	return err
}

func (m *Manager) setErr(err error) {
	debug.Log("transport", "error: %v", err)
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// SetMIDIInput auditions drum notes arriving on in. Nil detaches.
func (m *Manager) SetMIDIInput(in *midi.Input) {
	m.mu.Lock()
	if m.midiInputStop != nil {
		close(m.midiInputStop)
		m.midiInputStop = nil
	}
	if in == nil {
		m.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	m.midiInputStop = stop
	m.mu.Unlock()

	go m.midiInputLoop(in.Notes(), stop)
}

// midiInputLoop consumes MIDI input and auditions known drum notes
func (m *Manager) midiInputLoop(notes <-chan midi.NoteEvent, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case evt, ok := <-notes:
			if !ok {
				return
			}
			m.HandleNote(evt.Note, evt.Velocity)
		}
	}
}

// HandleNote auditions the instrument mapped to a GM drum note
func (m *Manager) HandleNote(note, velocity uint8) {
	if velocity == 0 {
		return
	}
	inst, ok := pattern.FromNote(note)
	if !ok {
		debug.Log("midi", "ignoring note %d", note)
		return
	}
	m.Audition(inst)
}

// notifyUpdate wakes the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

func clampTempo(bpm int) int {
	return max(MinTempo, min(MaxTempo, bpm))
}

func clampVolume(v float64) float64 {
	return max(0, min(1, v))
}
