// Package router interprets inbound relay frames and drives the per-connection
// state machine:
//
//	New --join_room--> Joined --join_room/code_update/cursor_update--> Joined
//	New|Joined --disconnect--> Closed
//
// join_room binds a user and room to the connection, adds it to the room
// directory and announces it to the rest of the room. code_update and
// cursor_update are forwarded verbatim to the other participants of the bound
// room; before a join they are dropped with a warning and nothing is sent back.
// Inbound leave_room frames are validated and otherwise ignored: departure is
// driven only by Disconnect. Frames that fail to parse produce exactly one
// error frame to the sender and leave the session untouched.
package router
