package pattern

import "strings"

// Instrument identifies one of the eight fixed percussion voices
type Instrument int

const (
	Kick Instrument = iota
	Snare
	ClosedHiHat
	OpenHiHat
	LowTom
	MidTom
	HighTom
	Crash
)

// NumInstruments is the number of percussion voices
const NumInstruments = 8

var instrumentNames = [NumInstruments]string{
	"Kick",
	"Snare",
	"Closed Hi-hat",
	"Open Hi-hat",
	"Low Tom",
	"Mid Tom",
	"High Tom",
	"Crash",
}

// General MIDI percussion notes (channel 10)
var gmNotes = [NumInstruments]uint8{
	36, // Kick
	38, // Snare
	42, // Closed HH
	46, // Open HH
	41, // Low Tom
	47, // Mid Tom
	50, // High Tom
	49, // Crash
}

// Valid reports whether i is one of the eight instruments
func (i Instrument) Valid() bool {
	return i >= 0 && i < NumInstruments
}

func (i Instrument) String() string {
	if !i.Valid() {
		return "Unknown"
	}
	return instrumentNames[i]
}

// Note returns the GM percussion note used for export and MIDI out
func (i Instrument) Note() uint8 {
	if !i.Valid() {
		return 0
	}
	return gmNotes[i]
}

// Instruments returns all instruments in enum order
func Instruments() []Instrument {
	out := make([]Instrument, NumInstruments)
	for i := range out {
		out[i] = Instrument(i)
	}
	return out
}

// FromNote maps a GM percussion note back to an instrument
func FromNote(note uint8) (Instrument, bool) {
	for i, n := range gmNotes {
		if n == note {
			return Instrument(i), true
		}
	}
	return 0, false
}

// ByName looks up an instrument by display name, case-insensitive.
// "Hi Tom" is accepted as an alias for High Tom.
func ByName(name string) (Instrument, bool) {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "Hi Tom") {
		return HighTom, true
	}
	for i, n := range instrumentNames {
		if strings.EqualFold(n, name) {
			return Instrument(i), true
		}
	}
	return 0, false
}
