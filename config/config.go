package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"go-fillin/pattern"
)

// AudioConfig controls the synthesizer and the scheduler's timing
type AudioConfig struct {
	SampleRate     int  `json:"sampleRate,omitempty"`
	LookAheadMs    int  `json:"lookAheadMs,omitempty"`
	TickIntervalMs int  `json:"tickIntervalMs,omitempty"`
	CacheNoise     bool `json:"cacheNoise,omitempty"`
	Disabled       bool `json:"disabled,omitempty"`
}

// MIDIConfig names the optional external ports
type MIDIConfig struct {
	OutputPort string `json:"outputPort,omitempty"` // mirror hits to this port
	InputPort  string `json:"inputPort,omitempty"`  // audition drum notes from this port
	GateMs     int    `json:"gateMs,omitempty"`
	// ControllerPort is a Launchpad-style pad grid that edits the pattern
	ControllerPort string `json:"controllerPort,omitempty"`
}

// PresetConfig is the pattern loaded at startup
type PresetConfig struct {
	Category string `json:"category,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Tempo      int          `json:"tempo,omitempty"`
	Volume     *float64     `json:"volume,omitempty"`
	Preset     PresetConfig `json:"preset,omitempty"`
	Audio      AudioConfig  `json:"audio,omitempty"`
	MIDI       MIDIConfig   `json:"midi,omitempty"`
	ExportPath string       `json:"exportPath,omitempty"`
	Debug      bool         `json:"debug,omitempty"`
}

const (
	DefaultTempo          = 120
	DefaultVolume         = 0.5
	DefaultSampleRate     = 44100
	DefaultLookAheadMs    = 100
	DefaultTickIntervalMs = 10
	MaxTickIntervalMs     = 25
	DefaultGateMs         = 50
	DefaultExportPath     = "cyber_beats.mid"
)

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	vol := DefaultVolume
	return &Config{
		Tempo:  DefaultTempo,
		Volume: &vol,
		Preset: PresetConfig{Category: pattern.DefaultCategory, Name: pattern.DefaultPreset},
		Audio: AudioConfig{
			SampleRate:     DefaultSampleRate,
			LookAheadMs:    DefaultLookAheadMs,
			TickIntervalMs: DefaultTickIntervalMs,
		},
		MIDI:       MIDIConfig{GateMs: DefaultGateMs},
		ExportPath: DefaultExportPath,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-fillin"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a config file. Missing fields keep their defaults and
// out-of-range values are pulled back into range.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err, fmsg.WithDesc("parse config", "The config file is not valid JSON."))
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize replaces unusable values with defaults
func (c *Config) Normalize() {
	if c.Tempo <= 0 {
		c.Tempo = DefaultTempo
	}
	if c.Volume == nil {
		vol := DefaultVolume
		c.Volume = &vol
	}
	*c.Volume = max(0, min(1, *c.Volume))
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = DefaultSampleRate
	}
	if c.Audio.LookAheadMs <= 0 {
		c.Audio.LookAheadMs = DefaultLookAheadMs
	}
	if c.Audio.TickIntervalMs <= 0 {
		c.Audio.TickIntervalMs = DefaultTickIntervalMs
	}
	c.Audio.TickIntervalMs = min(c.Audio.TickIntervalMs, MaxTickIntervalMs)
	if c.MIDI.GateMs <= 0 {
		c.MIDI.GateMs = DefaultGateMs
	}
	if c.ExportPath == "" {
		c.ExportPath = DefaultExportPath
	}
}

// LookAhead is the scheduling window in seconds
func (c *Config) LookAhead() float64 {
	return float64(c.Audio.LookAheadMs) / 1000
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Audio.TickIntervalMs) * time.Millisecond
}

func (c *Config) Gate() time.Duration {
	return time.Duration(c.MIDI.GateMs) * time.Millisecond
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create config dir"))
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode config"))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fault.Wrap(err, fmsg.With("write config"))
	}
	return nil
}
