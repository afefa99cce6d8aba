package audio

import (
	"math"
	"math/rand/v2"
)

// ExpRamp is the value of a geometric ramp from v0 to v1 over d seconds,
// t seconds in. Past the end it holds v1.
func ExpRamp(v0, v1, t, d float64) float64 {
	if d <= 0 || t >= d {
		return v1
	}
	if t <= 0 || v0 == v1 {
		return v0
	}
	return v0 * math.Pow(v1/v0, t/d)
}

// Biquad is a direct form I second-order filter
type Biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// highpassQ is the default filter Q, in dB
const highpassQ = 1.0

// Highpass builds a high-pass filter with Web Audio BiquadFilterNode coefficients
func Highpass(cutoff, sampleRate float64) *Biquad {
	f := &Biquad{}
	norm := cutoff / (sampleRate / 2)
	switch {
	case norm >= 1:
		// above Nyquist: nothing passes
		return f
	case norm <= 0:
		f.b0 = 1
		return f
	}

	w0 := math.Pi * norm
	alpha := math.Sin(w0) / (2 * math.Pow(10, highpassQ/20))
	cos := math.Cos(w0)
	a0 := 1 + alpha

	f.b0 = (1 + cos) / 2 / a0
	f.b1 = -(1 + cos) / a0
	f.b2 = (1 + cos) / 2 / a0
	f.a1 = -2 * cos / a0
	f.a2 = (1 - alpha) / a0
	return f
}

// Process filters one sample
func (f *Biquad) Process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// NoiseSeconds is the length of a noise buffer
const NoiseSeconds = 2

// NewNoise fills a buffer with independent uniform samples in [-1, 1]
func NewNoise(sampleRate int, rnd *rand.Rand) []float32 {
	buf := make([]float32, sampleRate*NoiseSeconds)
	for i := range buf {
		buf[i] = float32(rnd.Float64()*2 - 1)
	}
	return buf
}
