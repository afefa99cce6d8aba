package pattern

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Generator fills an empty grid with a pattern
type Generator func(g *Grid)

// Variation is a named pattern within a category
type Variation struct {
	Name     string
	Generate Generator
}

// Category groups variations under a time-feel heading
type Category struct {
	Name       string
	Variations []Variation
}

// DefaultCategory and DefaultPreset are loaded at startup
const (
	DefaultCategory = "1-Beat"
	DefaultPreset   = "No.1 1-Beat 1"
)

var (
	allExceptSnare = []Instrument{Crash, HighTom, MidTom, LowTom, OpenHiHat, ClosedHiHat, Kick}
	allExceptKick  = []Instrument{Crash, HighTom, MidTom, LowTom, OpenHiHat, ClosedHiHat, Snare}
)

func oneBeat(g *Grid) {
	g.SetSteps(Kick, 0, 8, 10)
	g.SetSteps(Snare, 4, 12, 13)
	g.SetSteps(ClosedHiHat, 0, 2, 4, 6, 8, 10)
	g.SetSteps(HighTom, 14)
}

// Presets is the preset library, in menu order
var Presets = []Category{
	{Name: "1-Beat", Variations: []Variation{
		{Name: "No.1 1-Beat 1", Generate: oneBeat},
		{Name: "Variation 2", Generate: func(g *Grid) {
			oneBeat(g)
			g.SetSteps(LowTom, 15)
		}},
		{Name: "Variation 3", Generate: func(g *Grid) {
			g.SetColumn(0, allExceptSnare...)
			g.SetColumn(2, ClosedHiHat)
			g.SetColumn(4, allExceptKick...)
			g.SetColumn(6, ClosedHiHat)
			g.SetColumn(8, allExceptSnare...)
			g.SetColumn(10, ClosedHiHat, Kick)
			g.SetColumn(12, allExceptKick...)
			g.SetColumn(14, Snare, HighTom)
		}},
	}},
	{Name: "2-Beat", Variations: []Variation{
		{Name: "Simple 2-Beat", Generate: func(g *Grid) {
			g.SetSteps(ClosedHiHat, 0, 2, 4, 6)
			g.SetSteps(Kick, 0)
			g.SetSteps(Snare, 4, 8, 10, 12, 14)
			g.SetSteps(LowTom, 9, 11, 13, 15)
		}},
	}},
	{Name: "3-Beat", Variations: []Variation{
		{Name: "Triplet Fill", Generate: func(g *Grid) {
			g.SetSteps(Kick, 0, 2, 4)
			g.SetSteps(HighTom, 4, 8, 10, 12, 14)
			g.SetSteps(MidTom, 9, 11, 13, 15)
		}},
	}},
	{Name: "4-Beat", Variations: []Variation{
		{Name: "Intense Fill", Generate: func(g *Grid) {
			g.SetSteps(Kick, 0, 2, 8, 10)
			g.SetSteps(Snare, 4, 12, 13)
			g.SetSteps(ClosedHiHat, 0, 2, 4, 6, 8, 10, 12, 14)
			g.SetSteps(OpenHiHat, 0, 4, 8, 12)
			g.SetSteps(LowTom, 4, 5, 10, 11)
			g.SetSteps(MidTom, 2, 5, 11, 12)
			g.SetSteps(HighTom, 2, 6, 10, 11)
			g.SetSteps(Crash, 0, 8, 9)
		}},
	}},
}

// Categories returns the category names in menu order
func Categories() []string {
	names := make([]string, len(Presets))
	for i, c := range Presets {
		names[i] = c.Name
	}
	return names
}

// Variations returns the variation names of a category (nil if unknown)
func Variations(category string) []string {
	c, ok := findCategory(category)
	if !ok {
		return nil
	}
	names := make([]string, len(c.Variations))
	for i, v := range c.Variations {
		names[i] = v.Name
	}
	return names
}

// Preset builds a fresh grid for a named variation
func Preset(category, name string) (Grid, error) {
	var g Grid
	c, ok := findCategory(category)
	if !ok {
		return g, unknownPreset(category, name)
	}
	for _, v := range c.Variations {
		if v.Name == name {
			v.Generate(&g)
			return g, nil
		}
	}
	return g, unknownPreset(category, name)
}

// Random picks a variation of a category. pick(n) must return a value in [0, n).
func Random(category string, pick func(n int) int) (string, Grid, error) {
	names := Variations(category)
	if len(names) == 0 {
		return "", Grid{}, unknownPreset(category, "")
	}
	name := names[pick(len(names))]
	g, err := Preset(category, name)
	return name, g, err
}

// Default returns the startup pattern
func Default() Grid {
	g, _ := Preset(DefaultCategory, DefaultPreset)
	return g
}

// Clear returns an empty grid
func Clear() Grid {
	return Grid{}
}

func findCategory(name string) (Category, bool) {
	for _, c := range Presets {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

func unknownPreset(category, name string) error {
	return fault.Wrap(ErrUnknownPreset,
		fmsg.WithDesc(fmt.Sprintf("category %q variation %q", category, name), "No such preset"),
		ftag.With(ftag.NotFound),
	)
}
