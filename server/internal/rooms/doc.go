// Package rooms implements the room directory: a map from room ID to the set of
// participant connections currently in that room, keyed by user ID.
//
// A room exists exactly while it has at least one participant. It is created
// inside Join and deleted inside the Leave that removes its last participant,
// under the same lock, so no caller ever observes an empty room.
//
// Broadcast delivers a payload to every participant except one excluded user.
// Each recipient is attempted independently with a non-blocking Send; failures
// are collected and returned, never raised.
package rooms
