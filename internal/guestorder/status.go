package guestorder

type Status string

const (
	StatusPending       Status = "pending"
	StatusConfirmed     Status = "confirmed"
	StatusInPreparation Status = "in-preparation"
	StatusReady         Status = "ready"
	StatusCompleted     Status = "completed"
	StatusCancelled     Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed: true,
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusInPreparation: true,
		StatusCancelled:     true,
	},
	StatusInPreparation: {
		StatusReady:     true,
		StatusCancelled: true,
	},
	StatusReady: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Step is the position of the status in the fulfilment progress, or -1 for
// cancelled orders.
func (s Status) Step() int {
	switch s {
	case StatusConfirmed:
		return 1
	case StatusInPreparation:
		return 2
	case StatusReady:
		return 3
	case StatusCompleted:
		return 4
	case StatusCancelled:
		return -1
	default:
		return 0
	}
}
