package pattern

import (
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	NumRows  = NumInstruments
	NumSteps = 16
)

// Rows is the display order of the grid, top to bottom.
// Playback does not depend on it; export ties break by it.
var Rows = [NumRows]Instrument{
	Crash,
	HighTom,
	MidTom,
	LowTom,
	OpenHiHat,
	ClosedHiHat,
	Snare,
	Kick,
}

// Grid is 8 instrument rows x 16 steps. The array type keeps every cell present.
type Grid [NumRows][NumSteps]bool

// RowOf returns the row index of an instrument (-1 if invalid)
func RowOf(inst Instrument) int {
	for row, i := range Rows {
		if i == inst {
			return row
		}
	}
	return -1
}

// Instrument returns the instrument shown on a row, or -1 (invalid) for
// a row off the grid
func (g Grid) Instrument(row int) Instrument {
	if row < 0 || row >= NumRows {
		return -1
	}
	return Rows[row]
}

// At reports whether the cell is set. Out-of-range cells read as false.
func (g Grid) At(row, step int) bool {
	if !inRange(row, step) {
		return false
	}
	return g[row][step]
}

// Set writes a single cell
func (g *Grid) Set(row, step int, on bool) error {
	if !inRange(row, step) {
		return outOfRange(row, step)
	}
	g[row][step] = on
	return nil
}

// Toggle flips a single cell
func (g *Grid) Toggle(row, step int) error {
	if !inRange(row, step) {
		return outOfRange(row, step)
	}
	g[row][step] = !g[row][step]
	return nil
}

// SetSteps turns on the given steps for an instrument
func (g *Grid) SetSteps(inst Instrument, steps ...int) {
	row := RowOf(inst)
	if row < 0 {
		return
	}
	for _, s := range steps {
		if s >= 0 && s < NumSteps {
			g[row][s] = true
		}
	}
}

// SetColumn turns on one step for several instruments
func (g *Grid) SetColumn(step int, insts ...Instrument) {
	for _, inst := range insts {
		g.SetSteps(inst, step)
	}
}

// Active counts the set cells
func (g Grid) Active() int {
	n := 0
	for row := range g {
		for step := range g[row] {
			if g[row][step] {
				n++
			}
		}
	}
	return n
}

// Empty reports whether no cell is set
func (g Grid) Empty() bool {
	return g.Active() == 0
}

// Column returns the instruments set at a step, in row order
func (g Grid) Column(step int) []Instrument {
	var out []Instrument
	if step < 0 || step >= NumSteps {
		return out
	}
	for row := 0; row < NumRows; row++ {
		if g[row][step] {
			out = append(out, Rows[row])
		}
	}
	return out
}

// FromRows builds a grid from externally shaped data.
// Any other shape than 8x16 is rejected, never padded or truncated.
func FromRows(rows [][]bool) (Grid, error) {
	var g Grid
	if len(rows) != NumRows {
		return g, badShape(fmt.Sprintf("got %d rows", len(rows)))
	}
	for r, row := range rows {
		if len(row) != NumSteps {
			return g, badShape(fmt.Sprintf("row %d has %d steps", r, len(row)))
		}
		copy(g[r][:], row)
	}
	return g, nil
}

// Rows returns the grid as slices (for callers that want [][]bool)
func (g Grid) Rows() [][]bool {
	out := make([][]bool, NumRows)
	for r := range g {
		out[r] = append([]bool(nil), g[r][:]...)
	}
	return out
}

// Parse reads the text form produced by String: one line per row,
// 'x' for a hit and '.' for a rest. '#', 'X', '1' and '-', '0' are also accepted.
func Parse(lines []string) (Grid, error) {
	var g Grid
	var rows []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			rows = append(rows, l)
		}
	}
	if len(rows) != NumRows {
		return g, badShape(fmt.Sprintf("got %d rows", len(rows)))
	}
	for r, line := range rows {
		if len(line) != NumSteps {
			return g, badShape(fmt.Sprintf("row %d has %d steps", r, len(line)))
		}
		for s, c := range line {
			switch c {
			case 'x', 'X', '#', '1':
				g[r][s] = true
			case '.', '-', '0':
			default:
				return g, badShape(fmt.Sprintf("row %d step %d: unexpected %q", r, s, c))
			}
		}
	}
	return g, nil
}

func (g Grid) String() string {
	var out strings.Builder
	for r := range g {
		for s := range g[r] {
			if g[r][s] {
				out.WriteByte('x')
			} else {
				out.WriteByte('.')
			}
		}
		out.WriteByte('\n')
	}
	return out.String()
}

func inRange(row, step int) bool {
	return row >= 0 && row < NumRows && step >= 0 && step < NumSteps
}

func outOfRange(row, step int) error {
	return fault.Wrap(ErrOutOfRange,
		fmsg.With(fmt.Sprintf("row %d step %d", row, step)),
		ftag.With(ftag.InvalidArgument),
	)
}

func badShape(detail string) error {
	return fault.Wrap(ErrShape,
		fmsg.WithDesc(detail, "Patterns must have 8 rows of 16 steps"),
		ftag.With(ftag.InvalidArgument),
	)
}
