// Package discovery locates the output path of a running RNBO instance in
// the remote OSCQuery tree.
package discovery

// Feedback is the indicator surface discovery blinks while searching.
type Feedback interface {
	SetIndicators(ratio float64) error
	IndicatorsOff() error
}

// State is the discovery state machine position.
type State int

const (
	Searching State = iota
	Resolved
	TimedOut
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Resolved:
		return "resolved"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of one discovery run.
type Result struct {
	State    State
	Path     string
	Attempts int
}
