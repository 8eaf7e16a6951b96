package router

// State is where a connection is in its lifecycle.
type State int

const (
	StateNew State = iota
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the routing state of one connection. It is owned by that
// connection's read loop and must not be shared between goroutines.
type Session struct {
	state    State
	roomID   string
	userID   int64
	username string
}

// NewSession returns a session in StateNew.
func NewSession() *Session {
	return &Session{state: StateNew}
}

func (s *Session) State() State     { return s.state }
func (s *Session) RoomID() string   { return s.roomID }
func (s *Session) UserID() int64    { return s.userID }
func (s *Session) Username() string { return s.username }
