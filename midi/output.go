package midi

import (
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-fillin/debug"
	"go-fillin/pattern"
)

// Clock reports the device time, in seconds, that trigger times refer to
type Clock interface {
	Now() float64
}

// DefaultGate is how long a mirrored hit is held before note-off
const DefaultGate = 50 * time.Millisecond

// Output mirrors scheduled triggers to an external MIDI port on the drum
// channel. Each trigger waits until its device time, then sends note-on and
// a note-off after the gate.
type Output struct {
	name  string
	send  func(gomidi.Message) error
	clock Clock
	gate  time.Duration

	mu      sync.Mutex
	pending map[*time.Timer]struct{}
	closed  bool
}

// OpenOutput opens the named output port
func OpenOutput(portName string, clock Clock) (*Output, error) {
	outPort, err := findOutPort(portName)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(outPort)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open output"))
	}
	debug.Log("midi", "mirroring triggers to %s", outPort.String())
	o := NewOutput(send, clock)
	o.name = outPort.String()
	return o, nil
}

// NewOutput wraps any sender, e.g. one returned by gomidi.SendTo
func NewOutput(send func(gomidi.Message) error, clock Clock) *Output {
	return &Output{
		send:    send,
		clock:   clock,
		gate:    DefaultGate,
		pending: make(map[*time.Timer]struct{}),
	}
}

func (o *Output) Name() string {
	return o.name
}

// SetGate changes the note length of mirrored hits
func (o *Output) SetGate(d time.Duration) {
	o.mu.Lock()
	o.gate = d
	o.mu.Unlock()
}

// Trigger schedules one hit at device time at
func (o *Output) Trigger(inst pattern.Instrument, at float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	delay := time.Duration((at - o.clock.Now()) * float64(time.Second))
	if delay < 0 {
		delay = 0
	}
	gate := o.gate

	o.after(delay, func() {
		o.emit(VoiceOn(inst))
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.closed {
			return
		}
		o.after(gate, func() { o.emit(VoiceOff(inst)) })
	})
}

// after arms a tracked timer; o.mu must be held
func (o *Output) after(d time.Duration, fn func()) {
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		o.mu.Lock()
		_, live := o.pending[t]
		delete(o.pending, t)
		o.mu.Unlock()
		if live {
			fn()
		}
	})
	o.pending[t] = struct{}{}
}

func (o *Output) emit(msg gomidi.Message) {
	if err := o.send(msg); err != nil {
		debug.Log("midi", "send %v: %v", msg, err)
	}
}

// Flush drops hits that have not fired yet and silences the drum channel
func (o *Output) Flush() {
	o.mu.Lock()
	for t := range o.pending {
		t.Stop()
		delete(o.pending, t)
	}
	o.mu.Unlock()

	for _, inst := range pattern.Instruments() {
		o.emit(VoiceOff(inst))
	}
}

// Pending reports how many hits are waiting to be sent
func (o *Output) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

func (o *Output) Close() error {
	o.Flush()
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	return nil
}
