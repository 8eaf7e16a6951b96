package rooms

import (
	"log/slog"
	"sort"
	"sync"
)

// Participant is a connection as seen by the directory.
// Send must not block; it returns an error when the payload cannot be queued.
type Participant interface {
	ID() string
	Send(data []byte) error
}

// RoomInfo is a read-only summary of one room.
type RoomInfo struct {
	ID           string `json:"room_id"`
	Participants int    `json:"participants"`
}

type room struct {
	id           string
	participants map[int64]Participant
}

// Directory is the process-wide set of rooms. It is safe for concurrent use.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// New creates an empty Directory.
func New() *Directory {
	return &Directory{rooms: make(map[string]*room)}
}

// getOrCreate returns the room for id, creating it if absent.
// Callers must hold d.mu for writing.
func (d *Directory) getOrCreate(id string) (r *room, created bool) {
	if r, ok := d.rooms[id]; ok {
		return r, false
	}
	r = &room{id: id, participants: make(map[int64]Participant)}
	d.rooms[id] = r
	return r, true
}

// Join puts p into roomID under userID, creating the room if needed, and
// reports whether the room was created. An existing entry for userID is
// replaced; the superseded participant is not closed.
func (d *Directory) Join(roomID string, userID int64, p Participant) (created bool) {
	d.mu.Lock()
	r, created := d.getOrCreate(roomID)
	prev, replaced := r.participants[userID]
	r.participants[userID] = p
	count := len(r.participants)
	d.mu.Unlock()

	if created {
		slog.Info("rooms: room created", "room", roomID)
	}
	if replaced && prev != p {
		slog.Warn("rooms: participant replaced by a new connection",
			"room", roomID, "user_id", userID,
			"old_conn", prev.ID(), "new_conn", p.ID())
	}
	slog.Debug("rooms: participant joined", "room", roomID, "user_id", userID, "participants", count)
	return created
}

// Leave removes userID from roomID. If p is non-nil the entry is only removed
// while it still refers to p, so a superseded connection cannot evict the one
// that replaced it. When the last participant goes, the room is deleted in the
// same critical section.
func (d *Directory) Leave(roomID string, userID int64, p Participant) (removed, deleted bool) {
	d.mu.Lock()
	r, ok := d.rooms[roomID]
	if !ok {
		d.mu.Unlock()
		return false, false
	}
	cur, ok := r.participants[userID]
	if !ok || (p != nil && cur != p) {
		d.mu.Unlock()
		return false, false
	}
	delete(r.participants, userID)
	count := len(r.participants)
	if count == 0 {
		delete(d.rooms, roomID)
	}
	d.mu.Unlock()

	slog.Debug("rooms: participant left", "room", roomID, "user_id", userID, "participants", count)
	if count == 0 {
		slog.Info("rooms: room removed", "room", roomID)
	}
	return true, count == 0
}

// Broadcast sends payload to every participant of roomID except exclude and
// returns the user IDs whose delivery failed. A missing room is not an error.
func (d *Directory) Broadcast(roomID string, exclude int64, payload []byte) (failed []int64) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	for userID, p := range r.participants {
		if userID == exclude {
			continue
		}
		if err := p.Send(payload); err != nil {
			slog.Warn("rooms: delivery failed",
				"room", roomID, "user_id", userID, "conn", p.ID(), "err", err)
			failed = append(failed, userID)
		}
	}
	return failed
}

// Size returns the number of rooms.
func (d *Directory) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// Exists reports whether roomID currently has participants.
func (d *Directory) Exists(roomID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.rooms[roomID]
	return ok
}

// Participants returns the participant count of roomID, or 0 if it does not exist.
func (d *Directory) Participants(roomID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if r, ok := d.rooms[roomID]; ok {
		return len(r.participants)
	}
	return 0
}

// List returns a summary of every room, sorted by room ID.
func (d *Directory) List() []RoomInfo {
	d.mu.RLock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for id, r := range d.rooms {
		out = append(out, RoomInfo{ID: id, Participants: len(r.participants)})
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
