package auth

// State is the lifecycle position of a login session
type State int

const (
	StateIdle State = iota
	StateAwaitingRedirect
	StateExchangingToken
	StateAuthenticated
	StateFailed
	StateTimedOut
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingRedirect:
		return "awaiting-redirect"
	case StateExchangingToken:
		return "exchanging-token"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed-out"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s >= StateAuthenticated
}

// EventType names the terminal notification of a session
type EventType string

const (
	EventSuccess EventType = "auth-success"
	EventError   EventType = "auth-error"
	EventTimeout EventType = "auth-timeout"
)

// ReasonCancelled is the auth-error reason for an explicit or superseding cancel
const ReasonCancelled = "cancelled"

// Event is emitted once per session on its terminal transition
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Reason    string    `json:"reason,omitempty"`
}
