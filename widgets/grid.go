package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-fillin/pattern"
	"go-fillin/theme"
)

const (
	// LabelWidth is the column taken by row names, including the gap
	LabelWidth = 15
	// cellWidth is one step glyph plus its trailing space
	cellWidth = 2
	// beatGap separates groups of four steps
	beatGap = 1
)

// GridView is what RenderGrid needs to draw one frame
type GridView struct {
	Grid       pattern.Grid
	Step       int  // playhead
	Playing    bool // playhead only drawn while playing
	CursorRow  int
	CursorStep int
	ShowCursor bool
}

// RenderGrid renders the pattern, one instrument per line, with the
// playhead column and the edit cursor
func RenderGrid(th *theme.Theme, v GridView) string {
	label := lipgloss.NewStyle().Width(LabelWidth).Foreground(th.Get(theme.FG))
	dim := lipgloss.NewStyle().Foreground(th.Get(theme.Muted))
	head := lipgloss.NewStyle().Foreground(th.Get(theme.Warning))
	cursor := lipgloss.NewStyle().Foreground(th.Get(theme.Cursor)).Bold(true)

	var lines []string
	lines = append(lines, strings.Repeat(" ", LabelWidth)+renderRuler(dim, head, v))

	for row := range pattern.NumRows {
		inst := pattern.Rows[row]
		on := lipgloss.NewStyle().Foreground(th.Instrument(inst))

		var line strings.Builder
		line.WriteString(label.Render(inst.String()))
		for step := range pattern.NumSteps {
			if step > 0 && step%4 == 0 {
				line.WriteString(strings.Repeat(" ", beatGap))
			}
			active := v.Grid[row][step]
			atHead := v.Playing && step == v.Step
			atCursor := v.ShowCursor && row == v.CursorRow && step == v.CursorStep

			var glyph rune
			style := dim
			switch {
			case atCursor && active:
				glyph, style = th.Symbols.CursorActive, cursor
			case atCursor && atHead:
				glyph, style = th.Symbols.CursorPlayhead, cursor
			case atCursor:
				glyph, style = th.Symbols.CursorEmpty, cursor
			case active:
				glyph, style = th.Symbols.StepActive, on
				if atHead {
					style = style.Bold(true).Reverse(true)
				}
			case atHead:
				glyph, style = th.Symbols.StepPlayhead, head
			default:
				glyph = th.Symbols.StepEmpty
			}
			line.WriteString(style.Render(string(glyph)))
			line.WriteString(" ")
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// renderRuler numbers the beats above the grid and marks the playhead
func renderRuler(dim, head lipgloss.Style, v GridView) string {
	var out strings.Builder
	for step := range pattern.NumSteps {
		if step > 0 && step%4 == 0 {
			out.WriteString(strings.Repeat(" ", beatGap))
		}
		mark := " "
		if step%4 == 0 {
			mark = fmt.Sprint(step/4 + 1)
		}
		if v.Playing && step == v.Step {
			out.WriteString(head.Render("▼"))
		} else {
			out.WriteString(dim.Render(mark))
		}
		out.WriteString(" ")
	}
	return out.String()
}

// CellAt maps a position relative to the grid's top-left corner (ruler
// line included) to a cell
func CellAt(x, y int) (row, step int, ok bool) {
	row = y - 1
	if row < 0 || row >= pattern.NumRows {
		return 0, 0, false
	}
	x -= LabelWidth
	if x < 0 {
		return 0, 0, false
	}
	const group = 4*cellWidth + beatGap
	beat := x / group
	within := x % group
	if beat >= pattern.NumSteps/4 || within >= 4*cellWidth || within%cellWidth != 0 {
		return 0, 0, false
	}
	return row, beat*4 + within/cellWidth, true
}

// RenderMeter renders a horizontal bar for a value in [0, 1]
func RenderMeter(th *theme.Theme, value float64, width int) string {
	value = max(0, min(1, value))
	full := int(value*float64(width) + 0.5)
	on := lipgloss.NewStyle().Foreground(th.Get(theme.Success))
	off := lipgloss.NewStyle().Foreground(th.Get(theme.Muted))
	return on.Render(strings.Repeat(string(th.Symbols.MeterFull), full)) +
		off.Render(strings.Repeat(string(th.Symbols.MeterEmpty), width-full))
}

// RenderPresetBar lists the categories, highlighting the selected one,
// followed by the loaded preset name
func RenderPresetBar(th *theme.Theme, categories []string, selected, preset string) string {
	sel := lipgloss.NewStyle().Foreground(th.Get(theme.BG)).Background(th.Get(theme.Accent)).Padding(0, 1)
	other := lipgloss.NewStyle().Foreground(th.Get(theme.FG)).Padding(0, 1)
	name := lipgloss.NewStyle().Foreground(th.Get(theme.Accent)).Italic(true)

	var parts []string
	for _, c := range categories {
		if c == selected {
			parts = append(parts, sel.Render(c))
		} else {
			parts = append(parts, other.Render(c))
		}
	}
	if preset == "" {
		preset = "custom"
	}
	return strings.Join(parts, "") + "  " + name.Render(preset)
}
