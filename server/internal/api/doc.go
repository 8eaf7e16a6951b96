// Package api implements the relay's read-only admin REST API.
//
// Routes (all GET, JSON):
//
//	/api/v1/health      — {"status":"ok","connections":N,"rooms":M}
//	/api/v1/stats       — {"connections":N,"rooms":M,"taken_at":"RFC3339"}
//	/api/v1/rooms       — [{"room_id":"...","participants":K}, ...] sorted by id
//	/api/v1/rooms/{id}  — one room, 404 if it has no participants
//
// The handler only reads from the connection registry and room directory.
package api
