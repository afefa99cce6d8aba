package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"go-fillin/pattern"
)

func newTestBank(sr int) *Bank {
	return NewBank(Options{SampleRate: sr, Volume: 1, Seed: 7})
}

func TestBankClockCountsFrames(t *testing.T) {
	b := newTestBank(1000)
	if b.Now() != 0 {
		t.Errorf("initial clock: got %v", b.Now())
	}
	b.Render(make([]float32, 250))
	b.Render(make([]float32, 250))
	if got := b.Now(); got != 0.5 {
		t.Errorf("clock: got %v, want 0.5", got)
	}
}

func TestBankStartsAtExactFrame(t *testing.T) {
	const sr = 8000
	b := newTestBank(sr)
	b.Trigger(pattern.Crash, 0.01) // frame 80

	buf := make([]float32, 200)
	b.Render(buf)
	for i := 0; i < 80; i++ {
		if buf[i] != 0 {
			t.Fatalf("frame %d before start: got %v", i, buf[i])
		}
	}
	nonzero := false
	for _, s := range buf[80:] {
		if s != 0 {
			nonzero = true
			break
		}
	}
	if !nonzero {
		t.Errorf("no output after start frame")
	}
}

func TestBankStartsAcrossBlocks(t *testing.T) {
	const sr = 8000
	a := newTestBank(sr)
	b := newTestBank(sr)
	a.Trigger(pattern.Kick, 0.02)
	b.Trigger(pattern.Kick, 0.02)

	whole := make([]float32, 400)
	a.Render(whole)

	var split []float32
	for range 8 {
		block := make([]float32, 50)
		b.Render(block)
		split = append(split, block...)
	}
	for i := range whole {
		if whole[i] != split[i] {
			t.Fatalf("frame %d: one block %v, split blocks %v", i, whole[i], split[i])
		}
	}
}

func TestBankLateTriggerStartsNow(t *testing.T) {
	b := newTestBank(8000)
	b.Render(make([]float32, 800))
	b.Trigger(pattern.Kick, 0.01) // long past

	buf := make([]float32, 10)
	b.Render(buf)
	if buf[1] == 0 {
		t.Errorf("late trigger did not sound immediately")
	}
}

func TestBankDropsFinishedVoices(t *testing.T) {
	const sr = 8000
	b := newTestBank(sr)
	b.Trigger(pattern.ClosedHiHat, 0)
	b.Trigger(pattern.Kick, 0)
	b.Trigger(pattern.Crash, 10)
	if b.Active() != 3 {
		t.Fatalf("active: got %d, want 3", b.Active())
	}
	b.Render(make([]float32, sr)) // one second
	if b.Active() != 1 {
		t.Errorf("active after 1s: got %d, want 1", b.Active())
	}
}

func TestBankKickFollowsRecipe(t *testing.T) {
	const sr = 44100
	b := newTestBank(sr)
	b.SetVolume(1)
	b.Trigger(pattern.Kick, 0)

	buf := make([]float32, sr/2+100)
	b.Render(buf)

	if buf[0] != 0 {
		t.Errorf("sine starts at zero phase: got %v", buf[0])
	}
	peak := 0.0
	for _, s := range buf[:sr/100] {
		peak = max(peak, math.Abs(float64(s)))
	}
	if peak < 0.8 || peak > 1 {
		t.Errorf("early peak: got %v", peak)
	}
	for i, s := range buf[sr/2+1:] {
		if s != 0 {
			t.Fatalf("frame %d after end: got %v", sr/2+1+i, s)
		}
	}
}

func TestBankVolumeIsSmooth(t *testing.T) {
	const sr = 44100
	b := NewBank(Options{SampleRate: sr, Volume: DefaultVolume})
	frame := make([]float32, 1)

	trace := []float64{b.Gain()}
	b.SetVolume(0)
	for range sr / 5 {
		b.Render(frame)
		trace = append(trace, b.Gain())
	}
	b.SetVolume(DefaultVolume)
	for range sr / 5 {
		b.Render(frame)
		trace = append(trace, b.Gain())
	}

	// no step bigger than one sample of the smoothing filter from full swing
	limit := DefaultVolume * (1 - math.Exp(-1/(VolumeTimeConstant*sr)))
	for i := 1; i < len(trace); i++ {
		if d := math.Abs(trace[i] - trace[i-1]); d > limit+1e-12 {
			t.Fatalf("step at %d: %v -> %v", i, trace[i-1], trace[i])
		}
	}
	if g := trace[sr/5]; g > 0.001 {
		t.Errorf("gain after 200ms at 0: got %v", g)
	}
	if g := trace[len(trace)-1]; !near(g, DefaultVolume, 0.001) {
		t.Errorf("gain after restore: got %v, want %v", g, DefaultVolume)
	}
	if b.Volume() != DefaultVolume {
		t.Errorf("target: got %v", b.Volume())
	}
}

func TestBankSetVolumeClamps(t *testing.T) {
	b := newTestBank(1000)
	b.SetVolume(3)
	if b.Volume() != 1 {
		t.Errorf("got %v, want 1", b.Volume())
	}
	b.SetVolume(-1)
	if b.Volume() != 0 {
		t.Errorf("got %v, want 0", b.Volume())
	}
}

// renderTwoHats renders two closed hi-hats back to back on b
func renderTwoHats(b *Bank) (first, second []float32) {
	n := b.SampleRate() / 20 // one 50 ms hat
	first = make([]float32, n)
	second = make([]float32, n)
	b.Trigger(pattern.ClosedHiHat, 0)
	b.Render(first)
	b.Trigger(pattern.ClosedHiHat, b.Now())
	b.Render(second)
	return first, second
}

func energy(buf []float32) float64 {
	var e float64
	for _, s := range buf {
		e += float64(s) * float64(s)
	}
	return e
}

func TestBankCachedNoiseRepeats(t *testing.T) {
	b := NewBank(Options{SampleRate: DefaultSampleRate, Volume: 1, CacheNoise: true, Seed: 3})
	first, second := renderTwoHats(b)

	if energy(first) == 0 {
		t.Fatalf("hi-hat rendered silence")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("frame %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestBankFreshNoisePerHit(t *testing.T) {
	b := NewBank(Options{SampleRate: DefaultSampleRate, Volume: 1, Seed: 3})
	first, second := renderTwoHats(b)

	if energy(first) == 0 || energy(second) == 0 {
		t.Fatalf("hi-hat rendered silence")
	}
	same := 0
	for i := range first {
		if first[i] == second[i] {
			same++
		}
	}
	if same > len(first)/100 {
		t.Errorf("%d of %d frames repeat between hits", same, len(first))
	}
}

func TestBankHiHatIsZeroMeanNoise(t *testing.T) {
	b := NewBank(Options{SampleRate: DefaultSampleRate, Volume: 1, Seed: 11})
	out, _ := renderTwoHats(b)

	var sum float64
	for _, s := range out {
		sum += float64(s)
	}
	mean := sum / float64(len(out))
	rms := math.Sqrt(energy(out) / float64(len(out)))
	if math.Abs(mean) > 0.02 {
		t.Errorf("mean: got %v, want ~0", mean)
	}
	if rms < 0.02 || rms > 0.6 {
		t.Errorf("rms: got %v", rms)
	}

	// the 8 kHz high-pass leaves no slow drift: neighbouring samples
	// are mostly of opposite sign or uncorrelated
	var lag1 float64
	for i := 1; i < len(out); i++ {
		lag1 += float64(out[i]) * float64(out[i-1])
	}
	if corr := lag1 / energy(out); corr > 0.5 {
		t.Errorf("lag-1 correlation %v, want high-passed noise", corr)
	}
}

func TestReaderWritesStereoFloat(t *testing.T) {
	b := newTestBank(8000)
	b.Trigger(pattern.Snare, 0)
	r := b.Reader()

	p := make([]byte, 100*bytesPerFrame+3)
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 100*bytesPerFrame {
		t.Fatalf("read %d bytes, want %d", n, 100*bytesPerFrame)
	}
	for i := range 100 {
		l := binary.LittleEndian.Uint32(p[i*bytesPerFrame:])
		rr := binary.LittleEndian.Uint32(p[i*bytesPerFrame+4:])
		if l != rr {
			t.Fatalf("frame %d: channels differ", i)
		}
		if s := math.Float32frombits(l); s < -1 || s > 1 {
			t.Fatalf("frame %d: unclipped %v", i, s)
		}
	}
	if got := b.Now(); got != 100.0/8000 {
		t.Errorf("clock: got %v", got)
	}
}
