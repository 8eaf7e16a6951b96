// Package protocol defines the JSON wire format spoken over the relay socket.
// These types are shared by the server and by any Go client.
//
// Every frame is one UTF-8 JSON object with a "type" discriminator:
//
//	join_room      roomId, userId, username
//	leave_room     roomId, userId
//	code_update    roomId, userId, content
//	cursor_update  roomId, userId, position{line, column}
//
// The server also originates "error" frames (sent only to the connection whose
// frame could not be parsed) and "leave_room" frames when a participant's
// connection goes away.
package protocol
