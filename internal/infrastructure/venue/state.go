package venue

// State is the lifecycle state of one logical connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

// Status is pushed to status observers on every state change. Fatal is set
// only when the reconnect attempt budget is exhausted.
type Status struct {
	Kind    Kind
	State   State
	Attempt int
	Fatal   bool
	Err     string
}
