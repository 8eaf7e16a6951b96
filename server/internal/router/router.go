package router

import (
	"log/slog"
	"sync/atomic"

	"github.com/codecollab/relay/pkg/protocol"
	"github.com/codecollab/relay/server/internal/rooms"
)

// Conn is the connection a frame arrived on.
type Conn interface {
	rooms.Participant
}

// Directory is the subset of the room directory the router mutates.
type Directory interface {
	Join(roomID string, userID int64, p rooms.Participant) bool
	Leave(roomID string, userID int64, p rooms.Participant) (removed, deleted bool)
	Broadcast(roomID string, exclude int64, payload []byte) []int64
}

// Counters is a point-in-time copy of the router's message counters.
type Counters struct {
	Joins            uint64
	Leaves           uint64
	Updates          uint64
	Malformed        uint64
	Dropped          uint64
	DeliveryFailures uint64
}

// Router dispatches inbound frames. A single Router is shared by all
// connections; per-connection state lives in Session.
type Router struct {
	rooms Directory

	joins            atomic.Uint64
	leaves           atomic.Uint64
	updates          atomic.Uint64
	malformed        atomic.Uint64
	dropped          atomic.Uint64
	deliveryFailures atomic.Uint64
}

// New creates a Router over the given room directory.
func New(d Directory) *Router {
	return &Router{rooms: d}
}

// Handle processes one inbound frame from c.
func (r *Router) Handle(s *Session, c Conn, data []byte) {
	if s.state == StateClosed {
		return
	}

	msg, err := protocol.Parse(data)
	if err != nil {
		r.malformed.Add(1)
		slog.Warn("router: rejected frame", "conn", c.ID(), "state", s.state, "err", err)
		r.replyError(c, err.Error())
		return
	}

	switch msg.Type {
	case protocol.TypeJoinRoom:
		r.join(s, c, msg)

	case protocol.TypeLeaveRoom:
		// Departure is driven by disconnect only.
		slog.Debug("router: inbound leave_room ignored",
			"conn", c.ID(), "room", msg.RoomID, "user_id", msg.UserID)

	case protocol.TypeCodeUpdate, protocol.TypeCursorUpdate:
		if s.state != StateJoined {
			r.dropped.Add(1)
			slog.Warn("router: update before join dropped",
				"conn", c.ID(), "type", msg.Type, "room", msg.RoomID, "user_id", msg.UserID)
			return
		}
		if msg.RoomID != s.roomID || msg.UserID != s.userID {
			slog.Debug("router: update addressed outside session binding; using bound room",
				"conn", c.ID(), "bound_room", s.roomID, "msg_room", msg.RoomID,
				"bound_user", s.userID, "msg_user", msg.UserID)
		}
		r.updates.Add(1)
		r.broadcast(s.roomID, s.userID, data)
	}
}

// Disconnect runs the departure path for a closing connection: the bound
// room entry is removed and the remaining participants are told. It is safe
// to call more than once.
func (r *Router) Disconnect(s *Session, c Conn) {
	if s.state == StateJoined {
		r.depart(s, c)
	}
	s.state = StateClosed
}

// Counters returns a copy of the message counters.
func (r *Router) Counters() Counters {
	return Counters{
		Joins:            r.joins.Load(),
		Leaves:           r.leaves.Load(),
		Updates:          r.updates.Load(),
		Malformed:        r.malformed.Load(),
		Dropped:          r.dropped.Load(),
		DeliveryFailures: r.deliveryFailures.Load(),
	}
}

func (r *Router) join(s *Session, c Conn, msg *protocol.Message) {
	if s.state == StateJoined && (s.roomID != msg.RoomID || s.userID != msg.UserID) {
		r.depart(s, c)
	}

	s.state = StateJoined
	s.roomID = msg.RoomID
	s.userID = msg.UserID
	s.username = msg.Username

	r.rooms.Join(s.roomID, s.userID, c)
	r.joins.Add(1)
	slog.Info("router: joined room",
		"conn", c.ID(), "room", s.roomID, "user_id", s.userID, "username", s.username)

	notice, err := protocol.JoinNotice(s.roomID, s.userID, s.username)
	if err != nil {
		slog.Error("router: encode join notice", "err", err)
		return
	}
	r.broadcast(s.roomID, s.userID, notice)
}

func (r *Router) depart(s *Session, c Conn) {
	roomID, userID := s.roomID, s.userID
	s.state = StateNew
	s.roomID, s.userID, s.username = "", 0, ""

	removed, _ := r.rooms.Leave(roomID, userID, c)
	if !removed {
		// Another connection holds this user's seat now.
		slog.Debug("router: departure left superseded entry untouched",
			"conn", c.ID(), "room", roomID, "user_id", userID)
		return
	}
	r.leaves.Add(1)
	slog.Info("router: left room", "conn", c.ID(), "room", roomID, "user_id", userID)

	notice, err := protocol.LeaveNotice(roomID, userID)
	if err != nil {
		slog.Error("router: encode leave notice", "err", err)
		return
	}
	r.broadcast(roomID, userID, notice)
}

func (r *Router) broadcast(roomID string, exclude int64, payload []byte) {
	if failed := r.rooms.Broadcast(roomID, exclude, payload); len(failed) > 0 {
		r.deliveryFailures.Add(uint64(len(failed)))
	}
}

func (r *Router) replyError(c Conn, text string) {
	notice, err := protocol.ErrorNotice(text)
	if err != nil {
		slog.Error("router: encode error notice", "err", err)
		return
	}
	if err := c.Send(notice); err != nil {
		slog.Warn("router: could not deliver error notice", "conn", c.ID(), "err", err)
	}
}
