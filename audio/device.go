package audio

import (
	"context"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/hajimehoshi/oto/v2"

	"go-fillin/debug"
	"go-fillin/pattern"
)

const (
	// deviceBuffer bounds how far the bank clock runs ahead of the speaker
	deviceBuffer = 20 * time.Millisecond
	drainPeriod  = 5 * time.Millisecond
)

// Device plays a Bank through the system audio output. The output is
// opened on first use, never at construction. If it cannot be opened the
// bank is drained in real time so the clock still advances.
type Device struct {
	bank *Bank

	mu      sync.Mutex
	started bool
	err     error
	ctx     *oto.Context
	player  oto.Player
	cancel  context.CancelFunc
}

func NewDevice(bank *Bank) *Device {
	return &Device{bank: bank}
}

func (d *Device) Bank() *Bank {
	return d.bank
}

// Init opens the output once. Later calls return the first result.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return d.err
	}
	d.started = true

	ctx, ready, err := oto.NewContext(d.bank.SampleRate(), ChannelCount, oto.FormatFloat32LE)
	if err != nil {
		d.err = fault.Wrap(err, fmsg.WithDesc("open audio device", "Audio output unavailable, playing silently."))
		debug.Log("audio", "init failed: %v", err)
		d.drain()
		return d.err
	}
	<-ready

	player := ctx.NewPlayer(d.bank.Reader())
	if s, ok := player.(interface{ SetBufferSize(int) }); ok {
		frames := int(deviceBuffer.Seconds() * float64(d.bank.SampleRate()))
		s.SetBufferSize(frames * bytesPerFrame)
	}
	player.Play()

	d.ctx = ctx
	d.player = player
	debug.Log("audio", "device open at %d Hz", d.bank.SampleRate())
	return nil
}

// drain keeps the clock running without a device; d.mu must be held
func (d *Device) drain() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go d.bank.Drain(ctx, drainPeriod)
}

// Now is the device clock. Before Init it reads zero.
func (d *Device) Now() float64 {
	return d.bank.Now()
}

func (d *Device) Trigger(inst pattern.Instrument, at float64) {
	d.bank.Trigger(inst, at)
}

func (d *Device) SetVolume(v float64) {
	d.bank.SetVolume(v)
}

func (d *Device) Volume() float64 {
	return d.bank.Volume()
}

// Close stops playback. The device cannot be reopened.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = true
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.player != nil {
		err := d.player.Close()
		d.player = nil
		if err != nil {
			return fault.Wrap(err, fmsg.With("close audio device"))
		}
	}
	return nil
}
