package sequencer

import (
	"context"
	"sync"
	"time"

	"go-fillin/debug"
	"go-fillin/midi"
	"go-fillin/pattern"
)

// LED refresh rate
const ledFPS = 30

// Control row buttons
const (
	padPage1 = 0 // steps 1-8
	padPage2 = 1 // steps 9-16
	padPlay  = 7
)

var (
	ledOff      = [3]uint8{0, 0, 0}
	ledActive   = [3]uint8{0, 200, 200}
	ledPlayhead = [3]uint8{180, 180, 60}
	ledHit      = [3]uint8{255, 80, 180}
	ledPage     = [3]uint8{255, 200, 0}
	ledPageDim  = [3]uint8{40, 60, 120}
	ledPlaying  = [3]uint8{0, 255, 0}
	ledStopped  = [3]uint8{180, 60, 60}
	ledAudition = [3]uint8{180, 80, 40}
)

// PadSurface puts the grid on an 8x8 controller, one page of eight steps
// at a time. Grid row 0 is the top pad row. The scene column auditions its
// row; the control row switches pages and starts or stops playback.
type PadSurface struct {
	mgr  *Manager
	ctrl midi.Controller

	mu       sync.Mutex
	page     int
	prevLEDs map[[2]int]midi.LEDUpdate // for diffing
}

func NewPadSurface(mgr *Manager, ctrl midi.Controller) *PadSurface {
	return &PadSurface{
		mgr:      mgr,
		ctrl:     ctrl,
		prevLEDs: make(map[[2]int]midi.LEDUpdate),
	}
}

// Run handles pad presses and refreshes LEDs until ctx is done or the
// controller closes its pad channel
func (p *PadSurface) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	pads := p.ctrl.PadEvents()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-pads:
			if !ok {
				return
			}
			p.HandlePad(ev.Row, ev.Col)
			p.Flush()
		case <-ticker.C:
			p.Flush()
		}
	}
}

func (p *PadSurface) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// HandlePad applies one pad press
func (p *PadSurface) HandlePad(row, col int) {
	switch {
	case row == midi.ControlRow:
		switch col {
		case padPage1, padPage2:
			p.mu.Lock()
			p.page = col
			p.mu.Unlock()
		case padPlay:
			p.mgr.TogglePlay()
		}
	case col == midi.SceneCol:
		p.mgr.Audition(pattern.Rows[gridRow(row)])
	case row >= 0 && row < midi.PadRows && col >= 0 && col < midi.PadCols:
		step := p.Page()*midi.PadCols + col
		if err := p.mgr.Toggle(gridRow(row), step); err != nil {
			debug.Log("midi", "pad %d,%d: %v", row, col, err)
		}
	}
}

// gridRow flips pad rows, which count up from the bottom
func gridRow(padRow int) int {
	return midi.PadRows - 1 - padRow
}

// Render returns the full LED state for the current grid and playhead
func (p *PadSurface) Render() []midi.LEDUpdate {
	g := p.mgr.Grid()
	step, playing, _ := p.mgr.GetState()
	page := p.Page()

	var leds []midi.LEDUpdate
	for row := range midi.PadRows {
		for col := range midi.PadCols {
			s := page*midi.PadCols + col
			active := g[gridRow(row)][s]
			atHead := playing && s == step

			color := ledOff
			switch {
			case active && atHead:
				color = ledHit
			case active:
				color = ledActive
			case atHead:
				color = ledPlayhead
			}
			leds = append(leds, midi.LEDUpdate{Row: row, Col: col, Color: color})
		}
		leds = append(leds, midi.LEDUpdate{Row: row, Col: midi.SceneCol, Color: ledAudition})
	}

	for i, c := range []int{padPage1, padPage2} {
		color := ledPageDim
		if i == page {
			color = ledPage
		}
		leds = append(leds, midi.LEDUpdate{Row: midi.ControlRow, Col: c, Color: color})
	}
	play := midi.LEDUpdate{Row: midi.ControlRow, Col: padPlay, Color: ledStopped}
	if playing {
		play.Color, play.Channel = ledPlaying, midi.ChannelPulse
	}
	leds = append(leds, play)
	return leds
}

// Flush sends only changed LEDs to the controller (diffing + batching)
func (p *PadSurface) Flush() {
	newLEDs := p.Render()

	p.mu.Lock()
	var updates []midi.LEDUpdate
	for _, led := range newLEDs {
		key := [2]int{led.Row, led.Col}
		// Only send if changed
		if prev, ok := p.prevLEDs[key]; !ok || prev != led {
			updates = append(updates, led)
		}
		p.prevLEDs[key] = led
	}
	p.mu.Unlock()

	if len(updates) > 0 {
		if err := p.ctrl.SetLEDBatch(updates); err != nil {
			debug.Log("midi", "leds: %v", err)
		}
	}
}
