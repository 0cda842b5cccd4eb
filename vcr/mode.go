package vcr

// Mode determines whether an engine records real calls to its cassette or
// answers calls from it. The mode is fixed for the lifetime of an engine.
type Mode int

const (
	// Record executes real calls and persists each pair to the cassette.
	Record Mode = iota
	// Replay answers calls from the cassette; the network is never reached.
	Replay
)

func (m Mode) String() string {
	switch m {
	case Record:
		return "record"
	case Replay:
		return "replay"
	default:
		return "unknown"
	}
}
