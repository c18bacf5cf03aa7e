package availability

import "time"

// State is the tri-state backend availability.
type State string

const (
	StateUnknown     State = "unknown"
	StateAvailable   State = "available"
	StateUnavailable State = "unavailable"
)

func (s State) String() string {
	return string(s)
}

// Status is a point-in-time view of the monitor.
type Status struct {
	State       State     `json:"state"`
	LastChecked time.Time `json:"lastChecked,omitempty"`
}

// Observer receives probe and state notifications, e.g. for metrics.
type Observer interface {
	ProbeCompleted(ok bool, took time.Duration)
	StateChanged(s State)
}
