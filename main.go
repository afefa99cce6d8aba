package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-fillin/audio"
	"go-fillin/config"
	"go-fillin/debug"
	"go-fillin/midi"
	"go-fillin/sequencer"
	"go-fillin/theme"
	"go-fillin/tui"
)

func main() {
	palettePath := flag.String("palette", "", "GIMP .gpl palette for the UI")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	if env := os.Getenv("FILLIN_DEBUG"); cfg.Debug || env != "" {
		if err := debug.Enable("", debug.ParseCategories(env)...); err != nil {
			fmt.Printf("Debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	palette, err := theme.LoadOrDefault(*palettePath)
	if err != nil {
		debug.Log("ui", "palette: %v", err)
	}
	th := theme.New(palette)

	// Audio: the device opens on first play or audition
	bank := audio.NewBank(audio.Options{
		SampleRate: cfg.Audio.SampleRate,
		Volume:     *cfg.Volume,
		CacheNoise: cfg.Audio.CacheNoise,
	})
	var clock sequencer.Clock = bank
	if cfg.Audio.Disabled {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go bank.Drain(ctx, 5*time.Millisecond)
	} else {
		dev := audio.NewDevice(bank)
		defer dev.Close()
		clock = dev
	}

	manager := sequencer.NewManager(clock, bank, sequencer.Options{
		Tempo:        cfg.Tempo,
		Volume:       *cfg.Volume,
		LookAhead:    cfg.LookAhead(),
		TickInterval: cfg.TickInterval(),
		ExportPath:   cfg.ExportPath,
	})
	if err := manager.LoadPreset(cfg.Preset.Category, cfg.Preset.Name); err != nil {
		debug.Log("config", "preset: %v", err)
	}

	m := tui.NewModel(manager, th)

	// Optional MIDI mirror and audition input
	if cfg.MIDI.OutputPort != "" {
		out, err := midi.OpenOutput(cfg.MIDI.OutputPort, clock)
		if err != nil {
			fmt.Printf("MIDI out: %v\n", err)
		} else {
			out.SetGate(cfg.Gate())
			defer out.Close()
			manager.AddOutput(out)
			m.OutputName = out.Name()
		}
	}
	if cfg.MIDI.InputPort != "" {
		in, err := midi.OpenInput(cfg.MIDI.InputPort)
		if err != nil {
			fmt.Printf("MIDI in: %v\n", err)
		} else {
			defer in.Close()
			manager.SetMIDIInput(in)
		}
	}

	if cfg.MIDI.ControllerPort != "" {
		lp, err := midi.OpenLaunchpad(cfg.MIDI.ControllerPort)
		if err != nil {
			fmt.Printf("Controller: %v\n", err)
		} else {
			defer lp.Close()
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go sequencer.NewPadSurface(manager, lp).Run(ctx)
			m.ControllerName = lp.ID()
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	manager.Stop()
	manager.SetMIDIInput(nil)

	// Remember the session for next time
	cfg.Tempo = manager.Tempo()
	vol := manager.Volume()
	cfg.Volume = &vol
	if name := manager.PresetName(); name != "" {
		cfg.Preset = config.PresetConfig{Category: manager.Category(), Name: name}
	}
	if err := cfg.Save(); err != nil {
		debug.Log("config", "save: %v", err)
	}
}
