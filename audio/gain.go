package audio

import "math"

// VolumeTimeConstant is how fast the master gain follows volume changes, in seconds
const VolumeTimeConstant = 0.02

// SmoothedGain approaches its target exponentially, one sample at a time,
// so a volume change never steps the output.
type SmoothedGain struct {
	value  float64
	target float64
	coeff  float64
}

func NewSmoothedGain(initial, tau, sampleRate float64) *SmoothedGain {
	g := &SmoothedGain{value: initial, target: initial, coeff: 1}
	if tau > 0 && sampleRate > 0 {
		g.coeff = 1 - math.Exp(-1/(tau*sampleRate))
	}
	return g
}

func (g *SmoothedGain) SetTarget(v float64) {
	g.target = v
}

func (g *SmoothedGain) Target() float64 {
	return g.target
}

func (g *SmoothedGain) Value() float64 {
	return g.value
}

// Next advances one sample and returns the gain for it
func (g *SmoothedGain) Next() float64 {
	g.value += (g.target - g.value) * g.coeff
	return g.value
}
