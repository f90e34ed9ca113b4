package watch

// State is a phase of a single WatchFor call.
type State int32

const (
	// StateIdle means WatchFor has not been called yet.
	StateIdle State = iota
	// StateDelaying means the watcher waits before opening the file.
	StateDelaying
	// StateWatching means the file is open and appended bytes are scanned.
	StateWatching
	// StateMatched is terminal: a line matched the pattern.
	StateMatched
	// StateTimedOut is terminal: the deadline passed without a match.
	StateTimedOut
	// StateFailed is terminal: the file could not be opened or read, or it
	// was removed or truncated while watched.
	StateFailed
	// StateStopped is terminal: the context was cancelled.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDelaying:
		return "delaying"
	case StateWatching:
		return "watching"
	case StateMatched:
		return "matched"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s >= StateMatched
}

// allowed lists the legal transitions. Anything else is a programming error.
var allowed = map[State][]State{
	StateIdle:     {StateDelaying},
	StateDelaying: {StateWatching, StateFailed, StateStopped},
	StateWatching: {StateMatched, StateTimedOut, StateFailed, StateStopped},
}

func canTransition(from, to State) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
