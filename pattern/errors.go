package pattern

// Error is a pattern validation error
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrShape         Error = "pattern: grid must have 8 rows of 16 steps"
	ErrOutOfRange    Error = "pattern: cell out of range"
	ErrUnknownPreset Error = "pattern: unknown preset"
)
