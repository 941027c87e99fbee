package services

// SessionState is the per-client lifecycle state of the session manager.
type SessionState int

const (
	// StateNoSession means no session record is bound to this client.
	StateNoSession SessionState = iota
	// StateValidating means a pointer or creation attempt is being
	// resolved against the store.
	StateValidating
	// StateActive means the pointer names a live, active session record.
	StateActive
)

func (s SessionState) String() string {
	switch s {
	case StateNoSession:
		return "no_session"
	case StateValidating:
		return "validating"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// SessionEvent drives transitions between session states.
type SessionEvent int

const (
	// EventAuthEstablished fires when a user becomes non-nil and the
	// local pointer is about to be resolved.
	EventAuthEstablished SessionEvent = iota
	// EventRecordValid fires when the pointed-to record exists and is
	// active.
	EventRecordValid
	// EventRecordStale fires when the pointer names a missing or
	// non-active record. The manager self-heals by discarding the
	// pointer and taking the creation path; no second validation
	// happens, so recovery is a single retry by construction.
	EventRecordStale
	// EventCreated fires when a fresh record was stored and the pointer
	// updated.
	EventCreated
	// EventCreateFailed fires when the store rejected the new record.
	EventCreateFailed
	// EventTerminated fires when the current session is deleted or the
	// user signs out.
	EventTerminated
)

// nextState is the pure transition function for the session lifecycle.
// Keeping it free of I/O makes the self-healing branch directly testable.
func nextState(s SessionState, e SessionEvent) SessionState {
	switch e {
	case EventAuthEstablished:
		return StateValidating
	case EventRecordValid, EventCreated:
		if s == StateValidating {
			return StateActive
		}
		return s
	case EventRecordStale:
		// Still resolving: the creation path runs next.
		return StateValidating
	case EventCreateFailed:
		return StateNoSession
	case EventTerminated:
		return StateNoSession
	default:
		return s
	}
}
