package audio

import "math"

type toneState struct {
	Tone
	phase float64
}

type noiseState struct {
	Noise
	buf    []float32
	filter *Biquad
}

// voice is one playing instance of a recipe. It starts at an absolute
// sample index of the bank clock and is dropped once all components end.
type voice struct {
	start  int64
	length int64
	pos    int64 // samples rendered so far
	tones  []toneState
	noises []noiseState
}

func newVoice(r Recipe, start int64, sr float64, noise func() []float32) *voice {
	v := &voice{
		start:  start,
		length: int64(math.Ceil(r.Duration() * sr)),
	}
	for _, t := range r.Tones {
		v.tones = append(v.tones, toneState{Tone: t})
	}
	for _, n := range r.Noises {
		v.noises = append(v.noises, noiseState{
			Noise:  n,
			buf:    noise(),
			filter: Highpass(n.HighpassHz, sr),
		})
	}
	return v
}

func (v *voice) done() bool {
	return v.pos >= v.length
}

// next renders the voice's next sample
func (v *voice) next(sr float64) float64 {
	t := float64(v.pos) / sr
	v.pos++

	out := 0.0
	for i := range v.tones {
		o := &v.tones[i]
		if t >= o.Duration {
			continue
		}
		out += math.Sin(o.phase) * ExpRamp(o.Gain, Floor, t, o.Duration)
		o.phase += 2 * math.Pi * ExpRamp(o.StartHz, o.EndHz, t, o.Duration) / sr
		if o.phase > 2*math.Pi {
			o.phase -= 2 * math.Pi
		}
	}
	for i := range v.noises {
		n := &v.noises[i]
		if t >= n.Duration {
			continue
		}
		idx := int(v.pos - 1)
		if idx >= len(n.buf) {
			continue
		}
		out += n.filter.Process(float64(n.buf[idx])) * ExpRamp(n.Gain, Floor, t, n.Duration)
	}
	return out
}
