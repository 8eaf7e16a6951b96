package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type is the message discriminator carried in the "type" field.
type Type string

const (
	TypeJoinRoom     Type = "join_room"
	TypeLeaveRoom    Type = "leave_room"
	TypeCodeUpdate   Type = "code_update"
	TypeCursorUpdate Type = "cursor_update"

	// TypeError is server-originated only.
	TypeError Type = "error"
)

// ErrMalformed is returned by Parse for frames that are not valid JSON, carry
// an unknown type, or lack a field their type requires.
var ErrMalformed = errors.New("malformed message")

// Position is a cursor location in the shared buffer.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Message is the decoded form of a client frame.
// Content is set only for code_update, Position only for cursor_update.
type Message struct {
	Type     Type      `json:"type"`
	RoomID   string    `json:"roomId"`
	UserID   int64     `json:"userId"`
	Username string    `json:"username,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Position *Position `json:"position,omitempty"`
}

// joinNotice always carries username, even when it is empty.
type joinNotice struct {
	Type     Type   `json:"type"`
	RoomID   string `json:"roomId"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// ErrorMessage is sent back to a connection whose frame was rejected.
type ErrorMessage struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

// wireMessage mirrors Message with pointer fields so absent keys can be told
// apart from zero values.
type wireMessage struct {
	Type     *string       `json:"type"`
	RoomID   *string       `json:"roomId"`
	UserID   *int64        `json:"userId"`
	Username *string       `json:"username"`
	Content  *string       `json:"content"`
	Position *wirePosition `json:"position"`
}

type wirePosition struct {
	Line   *int `json:"line"`
	Column *int `json:"column"`
}

// Parse decodes and validates one client frame. Any failure wraps ErrMalformed.
func Parse(data []byte) (*Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if w.Type == nil {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	msg := &Message{Type: Type(*w.Type)}
	switch msg.Type {
	case TypeJoinRoom, TypeLeaveRoom, TypeCodeUpdate, TypeCursorUpdate:
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, *w.Type)
	}

	if w.RoomID == nil || *w.RoomID == "" {
		return nil, fmt.Errorf("%w: %s requires roomId", ErrMalformed, msg.Type)
	}
	if w.UserID == nil {
		return nil, fmt.Errorf("%w: %s requires userId", ErrMalformed, msg.Type)
	}
	msg.RoomID = *w.RoomID
	msg.UserID = *w.UserID
	if w.Username != nil {
		msg.Username = *w.Username
	}

	switch msg.Type {
	case TypeJoinRoom:
		if w.Username == nil {
			return nil, fmt.Errorf("%w: join_room requires username", ErrMalformed)
		}
	case TypeCodeUpdate:
		if w.Content == nil {
			return nil, fmt.Errorf("%w: code_update requires content", ErrMalformed)
		}
		msg.Content = w.Content
	case TypeCursorUpdate:
		if w.Position == nil || w.Position.Line == nil || w.Position.Column == nil {
			return nil, fmt.Errorf("%w: cursor_update requires position{line, column}", ErrMalformed)
		}
		msg.Position = &Position{Line: *w.Position.Line, Column: *w.Position.Column}
	}
	return msg, nil
}

// JoinNotice builds the join_room frame sent to the rest of a room when a
// participant joins. It carries no document content.
func JoinNotice(roomID string, userID int64, username string) ([]byte, error) {
	return json.Marshal(joinNotice{
		Type:     TypeJoinRoom,
		RoomID:   roomID,
		UserID:   userID,
		Username: username,
	})
}

// LeaveNotice builds the leave_room frame broadcast when a participant's
// connection goes away.
func LeaveNotice(roomID string, userID int64) ([]byte, error) {
	return json.Marshal(Message{
		Type:   TypeLeaveRoom,
		RoomID: roomID,
		UserID: userID,
	})
}

// ErrorNotice builds an error frame for the originating connection.
func ErrorNotice(text string) ([]byte, error) {
	return json.Marshal(ErrorMessage{Type: TypeError, Message: text})
}
