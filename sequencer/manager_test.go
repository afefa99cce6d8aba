package sequencer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go-fillin/midi"
	"go-fillin/pattern"
)

func newTestManager(opts Options) (*Manager, *fakeClock, *manualDriver, *recorder) {
	clock := &fakeClock{}
	driver := &manualDriver{}
	mixer := &recorder{}
	opts.Driver = driver
	return NewManager(clock, mixer, opts), clock, driver, mixer
}

func TestNewManagerDefaults(t *testing.T) {
	m, clock, _, mixer := newTestManager(Options{Volume: 0.5})

	if m.Grid() != pattern.Default() {
		t.Errorf("grid: got\n%s\nwant the default preset", m.Grid())
	}
	if m.PresetName() != pattern.DefaultPreset || m.Category() != pattern.DefaultCategory {
		t.Errorf("preset: got %s / %s", m.Category(), m.PresetName())
	}
	step, playing, tempo := m.GetState()
	if step != 0 || playing || tempo != DefaultTempo {
		t.Errorf("state: got %d %v %d", step, playing, tempo)
	}
	if mixer.Volume() != 0.5 {
		t.Errorf("volume: got %v, want 0.5", mixer.Volume())
	}
	if clock.inits != 0 {
		t.Errorf("audio opened before first use")
	}
}

func TestManagerClamps(t *testing.T) {
	m, _, _, _ := newTestManager(Options{Tempo: 500})
	if m.Tempo() != MaxTempo {
		t.Errorf("initial tempo: got %d, want %d", m.Tempo(), MaxTempo)
	}
	tests := map[int]int{30: MinTempo, 60: 60, 133: 133, 200: 200, 999: MaxTempo, -1: MinTempo}
	for in, want := range tests {
		m.SetTempo(in)
		if got := m.Tempo(); got != want {
			t.Errorf("SetTempo(%d): got %d, want %d", in, got, want)
		}
	}

	for in, want := range map[float64]float64{-0.5: 0, 0.3: 0.3, 1.7: 1} {
		m.SetVolume(in)
		if got := m.Volume(); got != want {
			t.Errorf("SetVolume(%v): got %v, want %v", in, got, want)
		}
	}
}

func TestManagerToggle(t *testing.T) {
	m, _, _, _ := newTestManager(Options{})
	before := m.Grid()

	if err := m.Toggle(3, 7); err != nil {
		t.Fatal(err)
	}
	if m.PresetName() != "" {
		t.Errorf("preset name kept after edit: %q", m.PresetName())
	}
	if m.Grid() == before {
		t.Errorf("toggle did not change the grid")
	}
	m.Toggle(3, 7)
	if m.Grid() != before {
		t.Errorf("double toggle did not restore the grid")
	}

	if err := m.Toggle(8, 0); !errors.Is(err, pattern.ErrOutOfRange) {
		t.Errorf("got %v, want ErrOutOfRange", err)
	}
}

func TestManagerPresets(t *testing.T) {
	m, _, _, _ := newTestManager(Options{Rand: func(n int) int { return n - 1 }})

	if err := m.LoadPreset("4-Beat", "Intense Fill"); err != nil {
		t.Fatal(err)
	}
	want, _ := pattern.Preset("4-Beat", "Intense Fill")
	if m.Grid() != want || m.PresetName() != "Intense Fill" {
		t.Errorf("got preset %q", m.PresetName())
	}

	if err := m.LoadPreset("4-Beat", "Nope"); !errors.Is(err, pattern.ErrUnknownPreset) {
		t.Errorf("got %v, want ErrUnknownPreset", err)
	}
	if m.Grid() != want {
		t.Errorf("failed load changed the grid")
	}

	if err := m.LoadRandomPreset("1-Beat"); err != nil {
		t.Fatal(err)
	}
	names := pattern.Variations("1-Beat")
	if m.PresetName() != names[len(names)-1] {
		t.Errorf("random: got %q, want %q", m.PresetName(), names[len(names)-1])
	}

	if err := m.SetCategory("9-Beat"); !errors.Is(err, pattern.ErrUnknownPreset) {
		t.Errorf("got %v, want ErrUnknownPreset", err)
	}
	if err := m.SetCategory("2-Beat"); err != nil || m.Category() != "2-Beat" {
		t.Errorf("SetCategory: %v, %q", err, m.Category())
	}
}

func TestManagerPlayStop(t *testing.T) {
	m, clock, driver, mixer := newTestManager(Options{})
	out := &recorder{}
	m.AddOutput(out)
	clock.set(2)

	m.Play()
	m.Play() // no-op
	if _, playing, _ := m.GetState(); !playing {
		t.Fatalf("not playing")
	}
	if clock.inits != 1 {
		t.Errorf("clock inits: got %d, want 1", clock.inits)
	}

	column := pattern.Default().Column(0)
	if got := len(mixer.snapshot()); got != len(column) {
		t.Errorf("mixer hits: got %d, want %d", got, len(column))
	}
	if got := len(out.snapshot()); got != len(column) {
		t.Errorf("output hits: got %d, want %d", got, len(column))
	}

	clock.set(2.1)
	driver.fire()
	if step, _, _ := m.GetState(); step != 1 {
		t.Errorf("step: got %d, want 1", step)
	}

	m.Stop()
	if _, playing, _ := m.GetState(); playing {
		t.Errorf("still playing")
	}
	if out.flushes != 1 || mixer.flushes != 1 {
		t.Errorf("flushes: out %d mixer %d, want 1 each", out.flushes, mixer.flushes)
	}

	m.TogglePlay()
	if step, playing, _ := m.GetState(); !playing || step != 0 {
		t.Errorf("toggle play: got step %d playing %v", step, playing)
	}
}

func TestManagerClear(t *testing.T) {
	m, clock, driver, _ := newTestManager(Options{})
	m.Play()
	clock.set(0.5)
	driver.fire()

	m.Clear()
	step, playing, _ := m.GetState()
	if playing || step != 0 {
		t.Errorf("after clear: step %d playing %v", step, playing)
	}
	if !m.Grid().Empty() || m.PresetName() != "" {
		t.Errorf("grid not cleared")
	}
}

func TestManagerPlaySilentlyOnDeviceError(t *testing.T) {
	m, clock, _, _ := newTestManager(Options{})
	clock.initErr = errors.New("no audio")

	m.Play()
	if _, playing, _ := m.GetState(); !playing {
		t.Errorf("not playing")
	}
	if err := m.Err(); err == nil {
		t.Errorf("device error not reported")
	}
	if err := m.Err(); err != nil {
		t.Errorf("error not cleared: %v", err)
	}
}

func TestManagerExport(t *testing.T) {
	dir := t.TempDir()
	m, _, _, _ := newTestManager(Options{Tempo: 90, ExportPath: filepath.Join(dir, DefaultExportPath)})
	m.Toggle(0, 15)

	data, err := m.Export()
	if err != nil {
		t.Fatal(err)
	}
	want, _ := midi.Encode(m.Grid(), 90)
	if !bytes.Equal(data, want) {
		t.Errorf("export differs from encoder output")
	}

	// playing does not change the export
	m.Play()
	playing, _ := m.Export()
	if !bytes.Equal(playing, data) {
		t.Errorf("export changed while playing")
	}

	path, err := m.ExportFile("")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "cyber_beats.mid" {
		t.Errorf("path: got %s", path)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(written, data) {
		t.Errorf("file contents differ from export")
	}

	if _, err := m.ExportFile(filepath.Join(dir, "missing", "x.mid")); err == nil {
		t.Errorf("expected write error")
	}
}

func TestManagerHandleNote(t *testing.T) {
	m, clock, _, mixer := newTestManager(Options{})
	clock.set(1.5)

	m.HandleNote(38, 100)
	m.HandleNote(38, 0)
	m.HandleNote(60, 100)

	hits := mixer.snapshot()
	if len(hits) != 1 || hits[0] != (hit{pattern.Snare, 1.5}) {
		t.Errorf("got %v, want one snare at 1.5", hits)
	}
}
