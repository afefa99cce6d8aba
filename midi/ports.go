package midi

import (
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ScanTimeout bounds a port scan (CoreMIDI can hang)
const ScanTimeout = 3 * time.Second

// PortList holds the names of the available ports
type PortList struct {
	Inputs  []string
	Outputs []string
}

// Ports lists MIDI ports, giving up after timeout.
// A driver must be registered by the binary (see main.go).
func Ports(timeout time.Duration) (PortList, error) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		var pl PortList
		for _, p := range r.inPorts {
			pl.Inputs = append(pl.Inputs, p.String())
		}
		for _, p := range r.outPorts {
			pl.Outputs = append(pl.Outputs, p.String())
		}
		return pl, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return PortList{}, fault.Wrap(ErrTimeout,
			fmsg.WithDesc("port scan", "MIDI system did not answer"),
			ftag.With(ftag.Internal),
		)
	}
}

// matchPort prefers an exact name, then a case-insensitive substring
func matchPort(names []string, want string) int {
	for i, n := range names {
		if n == want {
			return i
		}
	}
	want = strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return i
		}
	}
	return -1
}

func findOutPort(name string) (drivers.Out, error) {
	outs := gomidi.GetOutPorts()
	names := make([]string, len(outs))
	for i, p := range outs {
		names[i] = p.String()
	}
	if i := matchPort(names, name); i >= 0 {
		return outs[i], nil
	}
	return nil, portNotFound("output", name)
}

func findInPort(name string) (drivers.In, error) {
	ins := gomidi.GetInPorts()
	names := make([]string, len(ins))
	for i, p := range ins {
		names[i] = p.String()
	}
	if i := matchPort(names, name); i >= 0 {
		return ins[i], nil
	}
	return nil, portNotFound("input", name)
}

func portNotFound(kind, name string) error {
	return fault.Wrap(ErrPortNotFound,
		fmsg.WithDesc(kind+" "+name, "No MIDI "+kind+" port named "+name),
		ftag.With(ftag.NotFound),
	)
}
