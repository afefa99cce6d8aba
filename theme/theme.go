package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"go-fillin/pattern"
)

// Role is what a color is used for. Each role sits at a fixed position on
// the palette ramp.
type Role int

const (
	BG Role = iota
	Surface
	Muted
	FG
	Accent
	Active
	Cursor
	Warning
	Success
	numRoles
)

var rolePos = [numRoles]float64{
	BG:      0,
	Surface: 0.1,
	Muted:   0.2,
	FG:      0.33,
	Accent:  0.45,
	Active:  0.55,
	Cursor:  0.78,
	Warning: 0.9,
	Success: 1,
}

// Glyphs drawn in grid cells and meters
type Symbols struct {
	StepEmpty, StepActive, StepPlayhead       rune
	CursorEmpty, CursorActive, CursorPlayhead rune
	MeterFull, MeterEmpty                     rune
}

var DefaultSymbols = Symbols{
	StepEmpty:      '·',
	StepActive:     '●',
	StepPlayhead:   '▶',
	CursorEmpty:    '○',
	CursorActive:   '◉',
	CursorPlayhead: '▷',
	MeterFull:      '█',
	MeterEmpty:     '░',
}

// Theme resolves roles and instruments to terminal colors once, up front
type Theme struct {
	Palette *Palette
	Symbols Symbols

	roles [numRoles]lipgloss.Color
	insts [pattern.NumInstruments]lipgloss.Color
}

func New(palette *Palette) *Theme {
	t := &Theme{Palette: palette, Symbols: DefaultSymbols}
	for r, pos := range rolePos {
		t.roles[r] = hex(palette.Lookup(pos))
	}
	// spread the voices across the bright end of the ramp
	for _, inst := range pattern.Instruments() {
		pos := rolePos[Accent] + (1-rolePos[Accent])*float64(inst)/float64(pattern.NumInstruments-1)
		t.insts[inst] = hex(palette.Lookup(pos))
	}
	return t
}

func (t *Theme) Get(r Role) lipgloss.Color {
	if r < 0 || r >= numRoles {
		return t.roles[FG]
	}
	return t.roles[r]
}

func (t *Theme) Instrument(inst pattern.Instrument) lipgloss.Color {
	if !inst.Valid() {
		return t.roles[FG]
	}
	return t.insts[inst]
}

// Color returns the ramp color at any position 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return hex(t.Palette.Lookup(norm))
}

func hex(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
