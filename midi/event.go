package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-fillin/pattern"
)

const (
	// PPQ is the export resolution in ticks per quarter note
	PPQ = 480
	// TicksPerStep is one 16th-note grid step
	TicksPerStep = PPQ / 4
	// GateTicks is the fixed length of every exported hit
	GateTicks = 110
	// Velocity of every exported and mirrored hit
	Velocity = 100
	// DrumChannel is GM channel 10, zero-based
	DrumChannel = 9
)

// Event is one timed message of the exported track
type Event struct {
	Tick    uint32
	Message gomidi.Message
}

// VoiceOn is the drum-channel note-on for an instrument
func VoiceOn(inst pattern.Instrument) gomidi.Message {
	return gomidi.NoteOn(DrumChannel, inst.Note(), Velocity)
}

// VoiceOff is the drum-channel note-off for an instrument
func VoiceOff(inst pattern.Instrument) gomidi.Message {
	return gomidi.NoteOff(DrumChannel, inst.Note())
}

// NoteEvent is sent when a note arrives on a MIDI input
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// Error is a midi package error
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrTempo        Error = "midi: tempo out of range"
	ErrVLQ          Error = "midi: malformed variable-length quantity"
	ErrPortNotFound Error = "midi: port not found"
	ErrTimeout      Error = "midi: port scan timed out"
)
