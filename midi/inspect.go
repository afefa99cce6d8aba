package midi

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-fillin/pattern"
)

// Note is a note on/off read back from a file
type Note struct {
	Tick     uint32
	On       bool
	Channel  uint8
	Key      uint8
	Velocity uint8
}

// Listing is a decoded summary of a MIDI file
type Listing struct {
	PPQ    uint16
	Tracks int
	BPM    float64
	Notes  []Note
}

// Inspect decodes a file with the gomidi SMF reader
func Inspect(data []byte) (*Listing, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.With("read midi file"),
			ftag.With(ftag.InvalidArgument),
		)
	}

	l := &Listing{Tracks: len(s.Tracks)}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		l.PPQ = mt.Resolution()
	}

	for _, track := range s.Tracks {
		var tick uint32
		for _, ev := range track {
			tick += ev.Delta

			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				if l.BPM == 0 {
					l.BPM = bpm
				}
				continue
			}

			msg := gomidi.Message(ev.Message)
			var ch, key, vel uint8
			switch {
			case msg.GetNoteOn(&ch, &key, &vel):
				l.Notes = append(l.Notes, Note{Tick: tick, On: vel > 0, Channel: ch, Key: key, Velocity: vel})
			case msg.GetNoteOff(&ch, &key, &vel):
				l.Notes = append(l.Notes, Note{Tick: tick, Channel: ch, Key: key, Velocity: vel})
			}
		}
	}
	return l, nil
}

// Grid rebuilds the step grid from the note-on events of a listing.
// Notes off the 16-step grid or not in the drum table are skipped.
func (l *Listing) Grid() pattern.Grid {
	var g pattern.Grid
	perStep := uint32(TicksPerStep)
	if l.PPQ > 0 {
		perStep = uint32(l.PPQ) / 4
	}
	for _, n := range l.Notes {
		if !n.On || n.Tick%perStep != 0 {
			continue
		}
		inst, ok := pattern.FromNote(n.Key)
		if !ok {
			continue
		}
		g.SetSteps(inst, int(n.Tick/perStep))
	}
	return g
}

func (l *Listing) String() string {
	var out strings.Builder
	out.WriteString(fmt.Sprintf("tracks: %d  ppq: %d  bpm: %.2f\n", l.Tracks, l.PPQ, l.BPM))
	for _, n := range l.Notes {
		kind := "off"
		if n.On {
			kind = "on "
		}
		name := "?"
		if inst, ok := pattern.FromNote(n.Key); ok {
			name = inst.String()
		}
		out.WriteString(fmt.Sprintf("%6d  %s  ch%-2d  %3d %-14s vel %d\n", n.Tick, kind, n.Channel+1, n.Key, name, n.Velocity))
	}
	return out.String()
}
