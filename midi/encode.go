package midi

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"go-fillin/debug"
	"go-fillin/pattern"
)

var (
	headerMagic = []byte("MThd")
	trackMagic  = []byte("MTrk")
	endOfTrack  = []byte{0x00, 0xFF, 0x2F, 0x00}
)

const (
	headerLength = 6
	formatSingle = 0
	trackCount   = 1
	maxTempoUS   = 0xFFFFFF // 24-bit meta payload
)

// MicrosecondsPerBeat converts BPM to the tempo meta value, round(60e6 / bpm)
func MicrosecondsPerBeat(tempo int) (uint32, error) {
	if tempo <= 0 {
		return 0, badTempo(tempo)
	}
	us := math.Round(60_000_000 / float64(tempo))
	if us < 1 || us > maxTempoUS {
		return 0, badTempo(tempo)
	}
	return uint32(us), nil
}

// Events lists the note events of a grid sorted by tick. Events are built
// step by step in row order, and the sort is stable, so simultaneous
// events keep that order.
func Events(g pattern.Grid) []Event {
	var events []Event
	for step := 0; step < pattern.NumSteps; step++ {
		for row := 0; row < pattern.NumRows; row++ {
			if !g[row][step] {
				continue
			}
			inst := pattern.Rows[row]
			tick := uint32(step * TicksPerStep)
			events = append(events,
				Event{Tick: tick, Message: VoiceOn(inst)},
				Event{Tick: tick + GateTicks, Message: VoiceOff(inst)},
			)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Tick < events[j].Tick
	})
	return events
}

// TrackData builds the MTrk payload: tempo meta event, delta-prefixed
// messages, end of track.
func TrackData(g pattern.Grid, tempo int) ([]byte, error) {
	us, err := MicrosecondsPerBeat(tempo)
	if err != nil {
		return nil, err
	}

	data := []byte{0x00, 0xFF, 0x51, 0x03, byte(us >> 16), byte(us >> 8), byte(us)}

	var last uint32
	for _, e := range Events(g) {
		data = AppendVLQ(data, e.Tick-last)
		data = append(data, e.Message...)
		last = e.Tick
	}
	return append(data, endOfTrack...), nil
}

// Encode serializes the grid as a single-track Standard MIDI File.
// Output is a pure function of (grid, tempo).
func Encode(g pattern.Grid, tempo int) ([]byte, error) {
	track, err := TrackData(g, tempo)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 14+8+len(track))
	out = append(out, headerMagic...)
	out = binary.BigEndian.AppendUint32(out, headerLength)
	out = binary.BigEndian.AppendUint16(out, formatSingle)
	out = binary.BigEndian.AppendUint16(out, trackCount)
	out = binary.BigEndian.AppendUint16(out, PPQ)

	out = append(out, trackMagic...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(track)))
	out = append(out, track...)

	debug.Log("export", "encoded %d hits at %d bpm, %d bytes", g.Active(), tempo, len(out))
	return out, nil
}

func badTempo(tempo int) error {
	return fault.Wrap(ErrTempo,
		fmsg.WithDesc(fmt.Sprintf("tempo %d", tempo), "Tempo must be a positive BPM"),
		ftag.With(ftag.InvalidArgument),
	)
}
