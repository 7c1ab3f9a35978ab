package stream

import "time"

// State is the connection state of a Client.
type State string

// Connection states.
const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
	StateError      State = "error"
	StateShutdown   State = "shutdown"
)

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// gaugeValue maps a state to the value exported on the state gauge.
func (s State) gaugeValue() float64 {
	switch s {
	case StateConnecting:
		return 0
	case StateOpen:
		return 1
	case StateClosed:
		return 2
	case StateError:
		return 3
	default:
		return 4
	}
}

// Sink receives decoded stream messages.
type Sink[T any] interface {
	Handle(msg T)
}

// SinkFunc adapts a function to Sink.
type SinkFunc[T any] func(msg T)

// Handle calls f(msg).
func (f SinkFunc[T]) Handle(msg T) {
	f(msg)
}

// Stats is a point-in-time snapshot of client activity.
type Stats struct {
	State        State
	ConnectionID string
	Attempts     int64
	Connects     int64
	Messages     int64
	DecodeErrors int64
	NextBackoff  time.Duration
}
