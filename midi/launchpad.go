package midi

import (
	"sync"
	"sync/atomic"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-fillin/debug"
)

// Launchpad X programmer mode layout: pad (row, col) is note
// (row+1)*10 + col+1 with row 0 at the bottom, the scene column is
// col 8 and the top control row sends CC 91-98.
const (
	topRowCC   = 91
	lpSysEx    = 0x0C // Launchpad X device id in Novation SysEx
	lpPadQueue = 32
)

var novation = []byte{0x00, 0x20, 0x29, 0x02, lpSysEx}

// Launchpad is a Novation Launchpad X used as a pad grid
type Launchpad struct {
	id   string
	send func(gomidi.Message) error
	stop func()
	sent atomic.Uint64

	mu     sync.Mutex
	closed bool
	pads   chan PadEvent
}

// OpenLaunchpad opens the in and out ports matching portName
func OpenLaunchpad(portName string) (*Launchpad, error) {
	out, err := findOutPort(portName)
	if err != nil {
		return nil, err
	}
	in, err := findInPort(portName)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open launchpad output"))
	}

	lp := NewLaunchpad(out.String(), send)
	lp.stop, err = gomidi.ListenTo(in, lp.receive)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open launchpad input"))
	}
	debug.Log("midi", "launchpad on %s", lp.id)
	return lp, nil
}

// NewLaunchpad puts the device behind send into programmer mode
func NewLaunchpad(id string, send func(gomidi.Message) error) *Launchpad {
	lp := &Launchpad{id: id, send: send, pads: make(chan PadEvent, lpPadQueue)}
	for _, cmd := range [][]byte{
		{0x00, 0x7F},       // programmer layout
		{0x08, 0x7F},       // full brightness
		{0x0A, 0x01, 0x01}, // LEDs driven by the host
	} {
		if err := send(gomidi.SysEx(append(append([]byte{}, novation...), cmd...))); err != nil {
			debug.Log("midi", "launchpad setup: %v", err)
		}
	}
	return lp
}

func (lp *Launchpad) receive(msg gomidi.Message, _ int32) {
	var ch, key, val uint8
	row, col := -1, -1
	switch {
	case msg.GetNoteOn(&ch, &key, &val) && val > 0:
		row, col = padAt(key)
	case msg.GetControlChange(&ch, &key, &val) && val > 0:
		if key >= topRowCC && key < topRowCC+PadCols {
			row, col = ControlRow, int(key-topRowCC)
		}
	}
	if row < 0 {
		return
	}

	lp.mu.Lock()
	defer lp.mu.Unlock()
	if lp.closed {
		return
	}
	select {
	case lp.pads <- PadEvent{Row: row, Col: col, Velocity: val}:
	default:
		debug.Log("midi", "pad queue full, dropped %d,%d", row, col)
	}
}

func (lp *Launchpad) ID() string {
	return lp.id
}

// PadEvents delivers presses until Close
func (lp *Launchpad) PadEvents() <-chan PadEvent {
	return lp.pads
}

// SetLEDBatch lights each pad with the nearest palette color
func (lp *Launchpad) SetLEDBatch(updates []LEDUpdate) error {
	for _, u := range updates {
		if err := lp.send(gomidi.NoteOn(u.Channel, padNote(u.Row, u.Col), nearestColor(u.Color))); err != nil {
			return fault.Wrap(err, fmsg.With("set launchpad led"))
		}
	}
	if n := lp.sent.Add(uint64(len(updates))); n%500 < uint64(len(updates)) {
		debug.Log("midi", "%d leds sent", n)
	}
	return nil
}

// Close turns every LED off and stops listening
func (lp *Launchpad) Close() error {
	var off []LEDUpdate
	for row := range PadRows {
		for col := 0; col <= SceneCol; col++ {
			off = append(off, LEDUpdate{Row: row, Col: col})
		}
	}
	for col := range PadCols {
		off = append(off, LEDUpdate{Row: ControlRow, Col: col})
	}
	err := lp.SetLEDBatch(off)

	if lp.stop != nil {
		lp.stop()
	}
	lp.mu.Lock()
	defer lp.mu.Unlock()
	if !lp.closed {
		lp.closed = true
		close(lp.pads)
	}
	return err
}

// padNote is the note (or top row CC number) that addresses a pad's LED
func padNote(row, col int) uint8 {
	if row == ControlRow {
		return uint8(topRowCC + col)
	}
	return uint8((row+1)*10 + col + 1)
}

// padAt is the inverse of padNote; (-1, -1) for notes off the grid
func padAt(note uint8) (row, col int) {
	if note >= topRowCC && note < topRowCC+PadCols {
		return ControlRow, int(note - topRowCC)
	}
	row, col = int(note/10)-1, int(note%10)-1
	if row < 0 || row >= PadRows || col < 0 || col > SceneCol {
		return -1, -1
	}
	return row, col
}

// Approximate RGB of the Launchpad X palette entries the UI uses
var lpPalette = []struct {
	vel uint8
	rgb [3]uint8
}{
	{0, [3]uint8{0, 0, 0}},
	{5, [3]uint8{255, 0, 0}},
	{6, [3]uint8{255, 80, 80}},
	{7, [3]uint8{180, 60, 60}},
	{9, [3]uint8{255, 100, 0}},
	{11, [3]uint8{180, 80, 40}},
	{13, [3]uint8{255, 200, 0}},
	{17, [3]uint8{0, 180, 0}},
	{19, [3]uint8{0, 100, 0}},
	{21, [3]uint8{0, 255, 0}},
	{37, [3]uint8{0, 200, 200}},
	{43, [3]uint8{40, 60, 120}},
	{45, [3]uint8{0, 100, 255}},
	{49, [3]uint8{150, 0, 200}},
	{53, [3]uint8{255, 80, 180}},
	{97, [3]uint8{180, 180, 60}},
	{119, [3]uint8{255, 255, 255}},
}

// nearestColor picks the palette velocity closest to rgb
func nearestColor(rgb [3]uint8) uint8 {
	best, bestDist := uint8(0), -1
	for _, p := range lpPalette {
		d := 0
		for i := range rgb {
			diff := int(rgb[i]) - int(p.rgb[i])
			d += diff * diff
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = p.vel, d
		}
	}
	return best
}
