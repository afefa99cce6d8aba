package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-fillin/audio"
	"go-fillin/midi"
	"go-fillin/pattern"
	"go-fillin/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "presets":
		listPresets()
	case "show":
		err = showPreset(args)
	case "export":
		err = export(args)
	case "inspect":
		err = inspect(args)
	case "play":
		err = play(args)
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("fillinctl - headless tools for go-fillin")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                         - List MIDI ports")
	fmt.Println("  presets                      - List preset categories and variations")
	fmt.Println("  show CATEGORY NAME           - Print a preset as a grid")
	fmt.Println("  export [flags] [-o FILE]     - Write a .mid file")
	fmt.Println("  inspect FILE                 - Dump a .mid file")
	fmt.Println("  play [flags]                 - Play a pattern without the UI")
}

func listPorts() error {
	fmt.Printf("(waiting up to %v...)\n", midi.ScanTimeout)
	ports, err := midi.Ports(midi.ScanTimeout)
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range ports.Inputs {
		fmt.Printf("  %d: %s\n", i, p)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range ports.Outputs {
		fmt.Printf("  %d: %s\n", i, p)
	}
	return nil
}

func listPresets() {
	for _, cat := range pattern.Categories() {
		fmt.Println(cat)
		for _, name := range pattern.Variations(cat) {
			fmt.Printf("  %s\n", name)
		}
	}
}

func showPreset(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: show CATEGORY NAME")
	}
	g, err := pattern.Preset(args[0], args[1])
	if err != nil {
		return err
	}
	printGrid(g)
	return nil
}

func printGrid(g pattern.Grid) {
	for row, line := range strings.Split(strings.TrimSuffix(g.String(), "\n"), "\n") {
		fmt.Printf("%-14s %s\n", pattern.Rows[row], line)
	}
}

// patternFlags selects a pattern: a preset, or a grid file written by show
type patternFlags struct {
	preset string
	file   string
	tempo  int
}

func (p *patternFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&p.preset, "preset", pattern.DefaultCategory+"/"+pattern.DefaultPreset, "CATEGORY/NAME")
	fs.StringVar(&p.file, "grid", "", "grid file, 8 lines of x and .")
	fs.IntVar(&p.tempo, "tempo", sequencer.DefaultTempo, "BPM")
}

func (p *patternFlags) grid() (pattern.Grid, error) {
	if p.file != "" {
		data, err := os.ReadFile(p.file)
		if err != nil {
			return pattern.Grid{}, err
		}
		var lines []string
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			fields := strings.Fields(line)
			if len(fields) > 0 {
				lines = append(lines, fields[len(fields)-1])
			}
		}
		return pattern.Parse(lines)
	}
	cat, name, ok := strings.Cut(p.preset, "/")
	if !ok {
		return pattern.Grid{}, fmt.Errorf("preset must be CATEGORY/NAME, got %q", p.preset)
	}
	return pattern.Preset(cat, name)
}

func export(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	var pf patternFlags
	pf.register(fs)
	out := fs.String("o", sequencer.DefaultExportPath, "output file")
	fs.Parse(args)

	g, err := pf.grid()
	if err != nil {
		return err
	}
	data, err := midi.Encode(g, pf.tempo)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %d bytes to %s\n", len(data), *out)
	return nil
}

func inspect(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: inspect FILE")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	l, err := midi.Inspect(data)
	if err != nil {
		return err
	}
	fmt.Print(l)
	fmt.Println()
	printGrid(l.Grid())
	return nil
}

func play(args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	var pf patternFlags
	pf.register(fs)
	bars := fs.Int("bars", 4, "number of loops")
	port := fs.String("midi", "", "mirror hits to this MIDI output")
	silent := fs.Bool("silent", false, "no audio device")
	fs.Parse(args)

	g, err := pf.grid()
	if err != nil {
		return err
	}

	bank := audio.NewBank(audio.Options{SampleRate: audio.DefaultSampleRate, Volume: audio.DefaultVolume})
	var clock sequencer.Clock = bank
	if *silent {
		stop := drain(bank)
		defer stop()
	} else {
		dev := audio.NewDevice(bank)
		defer dev.Close()
		clock = dev
	}

	mgr := sequencer.NewManager(clock, bank, sequencer.Options{Tempo: pf.tempo, Volume: audio.DefaultVolume})
	mgr.SetGrid(g)

	if *port != "" {
		out, err := midi.OpenOutput(*port, clock)
		if err != nil {
			return err
		}
		defer out.Close()
		mgr.AddOutput(out)
	}

	loop := time.Duration(sequencer.StepDuration(mgr.Tempo()) * pattern.NumSteps * float64(time.Second))
	fmt.Printf("playing %d bars at %d bpm\n", *bars, mgr.Tempo())
	printGrid(g)

	mgr.Play()
	if err := mgr.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	time.Sleep(time.Duration(*bars) * loop)
	mgr.Stop()
	// let the last hits ring out
	time.Sleep(500 * time.Millisecond)
	return nil
}

// drain runs the bank clock in real time without a device
func drain(bank *audio.Bank) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	go bank.Drain(ctx, 5*time.Millisecond)
	return cancel
}
