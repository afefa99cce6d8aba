package midi

// PadEvent is sent when a pad/button is pressed on a grid controller
type PadEvent struct {
	Row, Col int
	Velocity uint8
}

// LEDUpdate sets one pad's colour
type LEDUpdate struct {
	Row, Col int
	Color    [3]uint8
	Channel  uint8
}

// Controller is a grid controller with pad input and LED output
type Controller interface {
	ID() string
	PadEvents() <-chan PadEvent
	SetLEDBatch(updates []LEDUpdate) error
	Close() error
}

// LED modes, sent as the note-on channel
const (
	ChannelStatic uint8 = 0
	ChannelPulse  uint8 = 2
)

// Launchpad grid geometry: an 8x8 grid, a scene column at Col 8 and a
// control row at Row 8
const (
	PadRows    = 8
	PadCols    = 8
	SceneCol   = 8
	ControlRow = 8
)
