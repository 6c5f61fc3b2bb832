package core

// Execution states. Submissions enter at queued, or scheduled when
// deferred.
const (
	StateScheduled = "scheduled"
	StateQueued    = "queued"
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// validTransitions defines the allowed state transitions.
var validTransitions = map[string][]string{
	StateScheduled: {StateQueued, StateCancelled},
	StateQueued:    {StateRunning, StateCancelled},
	StateRunning:   {StateSucceeded, StateFailed, StateCancelled},
	StateSucceeded: {},
	StateFailed:    {},
	StateCancelled: {},
}

// IsValidState checks whether a string names a known execution state.
func IsValidState(state string) bool {
	_, ok := validTransitions[state]
	return ok
}

// IsValidTransition checks if a state transition is allowed.
func IsValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminalState returns true if the state admits no further transitions.
func IsTerminalState(state string) bool {
	return state == StateSucceeded || state == StateFailed || state == StateCancelled
}

// IsCancellableState returns true if an execution can be cancelled from this state.
func IsCancellableState(state string) bool {
	return state == StateScheduled || state == StateQueued ||
		state == StateRunning
}
