package marker

// State is the tracker's summarized view of an operation's progress. The
// terminal values are never left once entered.
type State = string

const (
	// StatePending is the initial state of a tracker whose submission was
	// accepted but which has not yet observed a poll document.
	StatePending State = "PENDING"
	// StateRunning indicates at least one poll document was observed and the
	// remote operation had not completed at that instant.
	StateRunning State = "RUNNING"
	// StateSucceeded is terminal; the remote service reported completion
	// without failure.
	StateSucceeded State = "SUCCEEDED"
	// StateFailed is terminal; the remote service reported completion with
	// failure.
	StateFailed State = "FAILED"
	// StateInternalError is terminal and local in origin: the initiating
	// response could not be interpreted, so the tracker will never be able to
	// follow the operation. The value is a sentinel that cannot collide with
	// a server-reported phase.
	StateInternalError State = "CITEST_INTERNAL_ERROR"
)

// Terminal reports whether s is one of the states from which a tracker makes
// no further progress.
func Terminal(s State) bool {
	switch s {
	case StateSucceeded, StateFailed, StateInternalError:
		return true
	}
	return false
}
