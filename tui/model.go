package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Southclaws/fault/fmsg"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-fillin/debug"
	"go-fillin/pattern"
	"go-fillin/sequencer"
	"go-fillin/theme"
	"go-fillin/widgets"
)

const (
	tempoStep  = 5
	volumeStep = 0.05
	meterWidth = 10
)

// layoutBounds holds cached layout info
type layoutBounds struct {
	gridTop int
}

type Model struct {
	Manager    *sequencer.Manager
	Theme      *theme.Theme
	OutputName string // mirrored MIDI port, shown in the header
	// ControllerName is the pad controller, if one is attached
	ControllerName string
	help           help.Model
	cursorRow      int
	cursorStep     int
	unmuted        float64
	status         string
	statusErr      bool
	quitting       bool
	bounds         *layoutBounds
}

type UpdateMsg struct{}

func NewModel(manager *sequencer.Manager, th *theme.Theme) Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.Get(theme.Accent))
	h.Styles.FullKey = h.Styles.ShortKey
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.Get(theme.Muted))
	h.Styles.FullDesc = h.Styles.ShortDesc
	return Model{
		Manager:   manager,
		Theme:     th,
		help:      h,
		cursorRow: pattern.RowOf(pattern.Kick),
		unmuted:   manager.Volume(),
		bounds:    &layoutBounds{},
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Manager)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if row, step, ok := widgets.CellAt(msg.X, msg.Y-m.bounds.gridTop); ok {
				m.cursorRow, m.cursorStep = row, step
				m.toggle()
			}
		}

	case UpdateMsg:
		if err := m.Manager.Err(); err != nil {
			m.setErr(err)
		}
		return m, ListenForUpdates(m.Manager)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		m.Manager.Stop()
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		m.cursorRow = (m.cursorRow + pattern.NumRows - 1) % pattern.NumRows
	case key.Matches(msg, keys.Down):
		m.cursorRow = (m.cursorRow + 1) % pattern.NumRows
	case key.Matches(msg, keys.Left):
		m.cursorStep = (m.cursorStep + pattern.NumSteps - 1) % pattern.NumSteps
	case key.Matches(msg, keys.Right):
		m.cursorStep = (m.cursorStep + 1) % pattern.NumSteps

	case key.Matches(msg, keys.Toggle):
		m.toggle()
	case key.Matches(msg, keys.Audition):
		g := m.Manager.Grid()
		m.Manager.Audition(g.Instrument(m.cursorRow))

	case key.Matches(msg, keys.Play):
		m.Manager.TogglePlay()
	case key.Matches(msg, keys.TempoUp):
		m.Manager.SetTempo(m.Manager.Tempo() + tempoStep)
	case key.Matches(msg, keys.TempoDown):
		m.Manager.SetTempo(m.Manager.Tempo() - tempoStep)

	case key.Matches(msg, keys.VolUp):
		m.Manager.SetVolume(m.Manager.Volume() + volumeStep)
	case key.Matches(msg, keys.VolDown):
		m.Manager.SetVolume(m.Manager.Volume() - volumeStep)
	case key.Matches(msg, keys.Mute):
		if v := m.Manager.Volume(); v > 0 {
			m.unmuted = v
			m.Manager.SetVolume(0)
		} else {
			m.Manager.SetVolume(max(m.unmuted, volumeStep))
		}

	case key.Matches(msg, keys.Category):
		m.nextCategory()
	case key.Matches(msg, keys.Next):
		m.nextPreset()
	case key.Matches(msg, keys.Random):
		if err := m.Manager.LoadRandomPreset(m.Manager.Category()); err != nil {
			m.setErr(err)
		} else {
			m.setStatus("loaded " + m.Manager.PresetName())
		}
	case key.Matches(msg, keys.Clear):
		m.Manager.Clear()
		m.setStatus("cleared")

	case key.Matches(msg, keys.Export):
		path, err := m.Manager.ExportFile("")
		if err != nil {
			m.setErr(err)
		} else {
			m.setStatus("saved " + path)
		}

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) toggle() {
	if err := m.Manager.Toggle(m.cursorRow, m.cursorStep); err != nil {
		m.setErr(err)
	}
}

func (m *Model) nextCategory() {
	cats := pattern.Categories()
	i := slices.Index(cats, m.Manager.Category())
	cat := cats[(i+1)%len(cats)]
	if err := m.Manager.LoadPreset(cat, pattern.Variations(cat)[0]); err != nil {
		m.setErr(err)
		return
	}
	m.setStatus("loaded " + m.Manager.PresetName())
}

func (m *Model) nextPreset() {
	cat := m.Manager.Category()
	names := pattern.Variations(cat)
	if len(names) == 0 {
		return
	}
	i := slices.Index(names, m.Manager.PresetName())
	if err := m.Manager.LoadPreset(cat, names[(i+1)%len(names)]); err != nil {
		m.setErr(err)
		return
	}
	m.setStatus("loaded " + m.Manager.PresetName())
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

// setErr shows the user-facing part of err
func (m *Model) setErr(err error) {
	debug.Log("ui", "%v", err)
	issue := fmsg.GetIssue(err)
	if issue == "" {
		issue = err.Error()
	}
	m.status, m.statusErr = issue, true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	step, playing, tempo := m.Manager.GetState()

	// Styles
	titleStyle := lipgloss.NewStyle().Foreground(m.Theme.Get(theme.Accent)).Bold(true)
	playStyle := lipgloss.NewStyle().Foreground(m.Theme.Get(theme.Muted))
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Get(theme.Muted))
	statusStyle := lipgloss.NewStyle().Foreground(m.Theme.Get(theme.FG))
	if playing {
		playStyle = lipgloss.NewStyle().Foreground(m.Theme.Get(theme.Success)).Bold(true)
	}
	if m.statusErr {
		statusStyle = lipgloss.NewStyle().Foreground(m.Theme.Get(theme.Warning))
	}

	playState := "■ STOP"
	if playing {
		playState = "▶ PLAY"
	}

	outStatus := ""
	if m.OutputName != "" {
		outStatus = dimStyle.Render("  midi:" + m.OutputName)
	}
	if m.ControllerName != "" {
		outStatus += dimStyle.Render("  LP")
	}

	header := fmt.Sprintf("%s  %s  %3d bpm  step %02d  vol %s%s",
		titleStyle.Render("FILL-IN"),
		playStyle.Render(playState),
		tempo, step+1,
		widgets.RenderMeter(m.Theme, m.Manager.Volume(), meterWidth),
		outStatus,
	)

	presets := widgets.RenderPresetBar(m.Theme, pattern.Categories(), m.Manager.Category(), m.Manager.PresetName())

	grid := widgets.RenderGrid(m.Theme, widgets.GridView{
		Grid:       m.Manager.Grid(),
		Step:       step,
		Playing:    playing,
		CursorRow:  m.cursorRow,
		CursorStep: m.cursorStep,
		ShowCursor: true,
	})

	// Compute layout bounds
	m.bounds.gridTop = 1 + lipgloss.Height(header) + 1 + lipgloss.Height(presets) + 1

	// Build output
	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(presets)
	out.WriteString("\n\n")
	out.WriteString(grid)
	out.WriteString("\n\n")
	out.WriteString(statusStyle.Render(m.status))
	out.WriteString("\n")
	out.WriteString(m.help.View(keys))

	return out.String()
}
