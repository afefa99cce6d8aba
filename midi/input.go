package midi

import (
	"sync"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-fillin/debug"
)

// Input listens to a MIDI input port (pads, keyboard) for notes
type Input struct {
	id       string
	stopFunc func()

	mu       sync.Mutex
	closed   bool
	noteChan chan NoteEvent
}

// OpenInput starts listening on the named input port
func OpenInput(portName string) (*Input, error) {
	inPort, err := findInPort(portName)
	if err != nil {
		return nil, err
	}

	in := newInput(inPort.String())
	stop, err := gomidi.ListenTo(inPort, in.receive)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("open input"))
	}
	in.stopFunc = stop
	debug.Log("midi", "listening on %s", in.id)
	return in, nil
}

func newInput(id string) *Input {
	return &Input{id: id, noteChan: make(chan NoteEvent, 32)}
}

func (in *Input) receive(msg gomidi.Message, timestampms int32) {
	var channel, note, velocity uint8
	if !msg.GetNoteOn(&channel, &note, &velocity) || velocity == 0 {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	select {
	case in.noteChan <- NoteEvent{Note: note, Velocity: velocity, Channel: channel}:
	default:
		// Drop if channel full
	}
}

func (in *Input) ID() string {
	return in.id
}

// Notes returns incoming note-ons. Closed by Close.
func (in *Input) Notes() <-chan NoteEvent {
	return in.noteChan
}

// Close stops listening. Safe to call more than once.
func (in *Input) Close() error {
	in.mu.Lock()
	stop := in.stopFunc
	in.stopFunc = nil
	in.mu.Unlock()
	if stop != nil {
		stop()
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.closed {
		in.closed = true
		close(in.noteChan)
	}
	return nil
}
