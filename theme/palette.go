package theme

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

type RGB [3]uint8

// Palette is an ordered color ramp; Lookup blends along it
type Palette struct {
	Name   string
	Colors []RGB
}

// Cyber is the built-in palette, dark slate through cyan to hot pink
func Cyber() *Palette {
	return &Palette{
		Name: "Cyber",
		Colors: []RGB{
			{0x0f, 0x17, 0x2a}, // slate 900
			{0x1e, 0x29, 0x3b}, // slate 800
			{0x47, 0x55, 0x69}, // slate 600
			{0x94, 0xa3, 0xb8}, // slate 400
			{0x22, 0xd3, 0xee}, // cyan
			{0x34, 0xd3, 0x99}, // emerald
			{0xa7, 0x8b, 0xfa}, // violet
			{0xf4, 0x72, 0xb6}, // pink
			{0xfb, 0x92, 0x3c}, // orange
			{0xfa, 0xcc, 0x15}, // yellow
		},
	}
}

// LoadGPL reads a GIMP palette file
func LoadGPL(path string) (*Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("open palette", "Palette file not found, using the built-in colors."))
	}
	defer f.Close()

	p, err := ParseGPL(f)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(path))
	}
	return p, nil
}

// ParseGPL parses the GIMP palette text format: a "GIMP Palette" magic
// line, optional Name/Columns headers and "R G B [label]" rows.
func ParseGPL(r io.Reader) (*Palette, error) {
	p := &Palette{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case lineNo == 1:
			if line != "GIMP Palette" {
				return nil, badPalette("missing GIMP Palette header")
			}
		case line == "" || line[0] == '#':
		case strings.HasPrefix(line, "Name:"):
			p.Name = strings.TrimSpace(line[len("Name:"):])
		case strings.HasPrefix(line, "Columns:"):
		default:
			c, err := parseRGB(strings.Fields(line))
			if err != nil {
				return nil, badPalette(fmt.Sprintf("line %d: %v", lineNo, err))
			}
			p.Colors = append(p.Colors, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fault.Wrap(err, fmsg.With("read palette"))
	}
	if len(p.Colors) == 0 {
		return nil, badPalette("no colors")
	}
	return p, nil
}

func parseRGB(fields []string) (RGB, error) {
	var c RGB
	if len(fields) < 3 {
		return c, fmt.Errorf("want R G B, got %q", strings.Join(fields, " "))
	}
	for i := range c {
		v, err := strconv.ParseUint(fields[i], 10, 8)
		if err != nil {
			return c, fmt.Errorf("channel %q out of 0-255", fields[i])
		}
		c[i] = uint8(v)
	}
	return c, nil
}

func badPalette(msg string) error {
	return fault.Wrap(fault.New(msg), ftag.With(ftag.InvalidArgument))
}

// LoadOrDefault loads a GPL palette, falling back to Cyber when path is
// empty or unusable. The error is returned alongside the fallback.
func LoadOrDefault(path string) (*Palette, error) {
	if path == "" {
		return Cyber(), nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return Cyber(), err
	}
	return p, nil
}

// Lookup blends the two colors around norm, a position 0-1 on the ramp
func (p *Palette) Lookup(norm float64) RGB {
	last := len(p.Colors) - 1
	pos := norm * float64(last)
	if pos <= 0 {
		return p.Colors[0]
	}
	if pos >= float64(last) {
		return p.Colors[last]
	}
	i := int(pos)
	frac := pos - float64(i)
	var out RGB
	for ch := range out {
		a, b := float64(p.Colors[i][ch]), float64(p.Colors[i+1][ch])
		out[ch] = uint8(a + (b-a)*frac)
	}
	return out
}

// Index returns a palette entry without blending, clamped to the ends
func (p *Palette) Index(i int) RGB {
	return p.Colors[max(0, min(i, len(p.Colors)-1))]
}
