package audio

import "go-fillin/pattern"

// Floor is where every exponential ramp ends. Ramps never reach zero.
const Floor = 0.01

// Tone is a sine oscillator component. StartHz == EndHz means a fixed pitch,
// otherwise the pitch ramps exponentially over Duration.
type Tone struct {
	StartHz  float64
	EndHz    float64
	Duration float64 // seconds
	Gain     float64 // start gain, ramps exponentially to Floor
}

// Noise is a high-passed white noise component
type Noise struct {
	HighpassHz float64
	Duration   float64
	Gain       float64
}

// Recipe is the fixed synthesis recipe of one instrument
type Recipe struct {
	Tones  []Tone
	Noises []Noise
}

// Duration is the length of the longest component
func (r Recipe) Duration() float64 {
	d := 0.0
	for _, t := range r.Tones {
		d = max(d, t.Duration)
	}
	for _, n := range r.Noises {
		d = max(d, n.Duration)
	}
	return d
}

func tom(base float64) Recipe {
	return Recipe{Tones: []Tone{{StartHz: base, EndHz: base * 0.5, Duration: 0.4, Gain: 0.8}}}
}

var recipes = [pattern.NumInstruments]Recipe{
	pattern.Kick: {
		Tones: []Tone{{StartHz: 150, EndHz: 0.01, Duration: 0.5, Gain: 1}},
	},
	pattern.Snare: {
		Tones:  []Tone{{StartHz: 250, EndHz: 250, Duration: 0.1, Gain: 0.5}},
		Noises: []Noise{{HighpassHz: 1000, Duration: 0.2, Gain: 0.8}},
	},
	pattern.ClosedHiHat: {
		Noises: []Noise{{HighpassHz: 8000, Duration: 0.05, Gain: 0.6}},
	},
	pattern.OpenHiHat: {
		Noises: []Noise{{HighpassHz: 8000, Duration: 0.3, Gain: 0.5}},
	},
	pattern.LowTom:  tom(100),
	pattern.MidTom:  tom(150),
	pattern.HighTom: tom(200),
	pattern.Crash: {
		Noises: []Noise{{HighpassHz: 2000, Duration: 1.5, Gain: 0.8}},
	},
}

// RecipeFor returns the recipe of an instrument
func RecipeFor(inst pattern.Instrument) Recipe {
	if !inst.Valid() {
		return Recipe{}
	}
	return recipes[inst]
}
