package tui

import "github.com/charmbracelet/bubbles/key"

// Key builds a binding whose help shows the first key
func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Toggle    key.Binding
	Audition  key.Binding
	Play      key.Binding
	TempoUp   key.Binding
	TempoDown key.Binding
	VolUp     key.Binding
	VolDown   key.Binding
	Mute      key.Binding
	Category  key.Binding
	Next      key.Binding
	Random    key.Binding
	Clear     key.Binding
	Export    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Up:        Key("up", "k", "up"),
	Down:      Key("down", "j", "down"),
	Left:      Key("left", "h", "left"),
	Right:     Key("right", "l", "right"),
	Toggle:    key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle step")),
	Audition:  Key("audition row", "a"),
	Play:      Key("play/stop", "p"),
	TempoUp:   Key("tempo +5", "+", "="),
	TempoDown: Key("tempo -5", "-", "_"),
	VolUp:     Key("volume +", "]"),
	VolDown:   Key("volume -", "["),
	Mute:      Key("mute", "m"),
	Category:  Key("next category", "c", "tab"),
	Next:      Key("next preset", "n"),
	Random:    Key("random preset", "r"),
	Clear:     Key("clear", "x"),
	Export:    Key("export .mid", "e"),
	Help:      Key("more keys", "?"),
	Quit:      Key("quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Play, k.TempoUp, k.TempoDown, k.Random, k.Export, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Toggle, k.Audition},
		{k.Play, k.TempoUp, k.TempoDown, k.VolUp, k.VolDown, k.Mute},
		{k.Category, k.Next, k.Random, k.Clear, k.Export},
		{k.Help, k.Quit},
	}
}
