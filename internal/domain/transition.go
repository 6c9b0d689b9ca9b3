package domain

import "errors"

// ErrInvalidTransition is returned for a status change not present in
// the transition table.
var ErrInvalidTransition = errors.New("invalid ride status transition")

// transitions is the fixed ride lifecycle table. Any non-terminal
// status may additionally move to cancelled; see CanTransition.
var transitions = map[RideStatus]RideStatus{
	RideStatusRequested:  RideStatusAccepted,
	RideStatusAccepted:   RideStatusArriving,
	RideStatusArriving:   RideStatusStarted,
	RideStatusStarted:    RideStatusInProgress,
	RideStatusInProgress: RideStatusCompleted,
}

// statusAliases maps driver-facing labels to canonical statuses, so UI
// vocabulary stays decoupled from what is persisted.
var statusAliases = map[string]RideStatus{
	"picked_up": RideStatusStarted,
}

// ParseStatus resolves a status label (canonical or driver-facing
// alias) to its canonical RideStatus.
func ParseStatus(label string) (RideStatus, bool) {
	if s, ok := statusAliases[label]; ok {
		return s, true
	}
	switch s := RideStatus(label); s {
	case RideStatusRequested, RideStatusAccepted, RideStatusArriving,
		RideStatusStarted, RideStatusInProgress, RideStatusCompleted,
		RideStatusCancelled:
		return s, true
	}
	return "", false
}

// CanTransition reports whether from -> to is present in the table.
func CanTransition(from, to RideStatus) bool {
	if to == RideStatusCancelled {
		return !from.IsTerminal()
	}
	return transitions[from] == to
}

// NextStatus validates from -> to and returns the status to persist.
// No other component constructs a new ride status.
func NextStatus(from, to RideStatus) (RideStatus, error) {
	if !CanTransition(from, to) {
		return "", ErrInvalidTransition
	}
	return to, nil
}
