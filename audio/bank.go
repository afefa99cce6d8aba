package audio

import (
	"context"
	"encoding/binary"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go-fillin/debug"
	"go-fillin/pattern"
)

const (
	DefaultSampleRate = 44100
	DefaultVolume     = 0.5
	ChannelCount      = 2
	bytesPerFrame     = 4 * ChannelCount // float32 LE per channel
)

// Options configure a Bank
type Options struct {
	SampleRate int
	Volume     float64
	// CacheNoise reuses one noise buffer for every hit instead of
	// generating a fresh one per trigger.
	CacheNoise bool
	// Seed fixes the noise generator. Zero seeds from the runtime.
	Seed uint64
}

// Bank synthesizes and mixes voices. Its clock is the number of frames
// rendered so far, so trigger times are sample accurate.
type Bank struct {
	mu     sync.Mutex
	sr     float64
	frames int64
	voices []*voice
	gain   *SmoothedGain
	rnd    *rand.Rand
	cached []float32
	mix    []float64
}

func NewBank(opts Options) *Bank {
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	vol := clamp01(opts.Volume)
	var src rand.Source
	if opts.Seed != 0 {
		src = rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	b := &Bank{
		sr:   float64(opts.SampleRate),
		gain: NewSmoothedGain(vol, VolumeTimeConstant, float64(opts.SampleRate)),
		rnd:  rand.New(src),
	}
	if opts.CacheNoise {
		b.cached = NewNoise(opts.SampleRate, b.rnd)
	}
	return b
}

func (b *Bank) SampleRate() int {
	return int(b.sr)
}

// Init satisfies the scheduler's clock contract. A bank is always ready.
func (b *Bank) Init() error {
	return nil
}

// Now is the bank clock in seconds
func (b *Bank) Now() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(b.frames) / b.sr
}

// Trigger starts one hit of inst at bank time at. A time already rendered
// starts on the next frame.
func (b *Bank) Trigger(inst pattern.Instrument, at float64) {
	r := RecipeFor(inst)
	if r.Duration() == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	start := int64(math.Round(at * b.sr))
	if start < b.frames {
		debug.LogEvery(50, "audio", "late trigger %v by %d frames", inst, b.frames-start)
		start = b.frames
	}
	b.voices = append(b.voices, newVoice(r, start, b.sr, b.noise))
}

// noise returns a buffer for one noise component; b.mu must be held
func (b *Bank) noise() []float32 {
	if b.cached != nil {
		return b.cached
	}
	return NewNoise(int(b.sr), b.rnd)
}

// SetVolume moves the master gain toward v
func (b *Bank) SetVolume(v float64) {
	b.mu.Lock()
	b.gain.SetTarget(clamp01(v))
	b.mu.Unlock()
}

// Volume is the master gain target
func (b *Bank) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gain.Target()
}

// Gain is the current, smoothed master gain
func (b *Bank) Gain() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gain.Value()
}

// Active is the number of voices still sounding or waiting to start
func (b *Bank) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.voices)
}

// Render mixes the next len(dst) mono frames and advances the clock
func (b *Bank) Render(dst []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(dst)
	if cap(b.mix) < n {
		b.mix = make([]float64, n)
	}
	mix := b.mix[:n]
	clear(mix)

	end := b.frames + int64(n)
	live := b.voices[:0]
	for _, v := range b.voices {
		if v.start >= end {
			live = append(live, v)
			continue
		}
		for i := max(v.start-b.frames, 0); i < int64(n) && !v.done(); i++ {
			mix[i] += v.next(b.sr)
		}
		if !v.done() {
			live = append(live, v)
		}
	}
	clear(b.voices[len(live):])
	b.voices = live

	for i := range dst {
		dst[i] = float32(mix[i] * b.gain.Next())
	}
	b.frames = end
}

// Reader streams the bank as interleaved float32 little-endian stereo,
// the format the audio device is opened with.
func (b *Bank) Reader() *Reader {
	return &Reader{bank: b}
}

type Reader struct {
	bank *Bank
	buf  []float32
}

func (r *Reader) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames {
		r.buf = make([]float32, frames)
	}
	buf := r.buf[:frames]
	r.bank.Render(buf)
	for i, s := range buf {
		putStereoF32(p, i, s)
	}
	return frames * bytesPerFrame, nil
}

// putStereoF32 writes one clipped sample to both channels of frame i
func putStereoF32(p []byte, i int, s float32) {
	s = max(-1, min(1, s))
	v := math.Float32bits(s)
	binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], v)
	binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], v)
}

// Drain renders and discards audio in real time until ctx is done. It keeps
// the bank clock moving when there is no device to pull from it.
func (b *Bank) Drain(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buf := make([]float32, 0, int(b.sr*period.Seconds())*2)
	last := time.Now()
	owed := 0.0
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			owed += now.Sub(last).Seconds() * b.sr
			last = now
			n := int(owed)
			owed -= float64(n)
			if cap(buf) < n {
				buf = make([]float32, n)
			}
			b.Render(buf[:n])
		}
	}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
