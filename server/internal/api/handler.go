package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/codecollab/relay/server/internal/rooms"
)

// ConnCounter reports the number of live connections.
type ConnCounter interface {
	Count() int
}

// RoomLister is the read side of the room directory.
type RoomLister interface {
	Size() int
	Participants(roomID string) int
	List() []rooms.RoomInfo
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	conns ConnCounter
	rooms RoomLister
	mux   *http.ServeMux
	now   func() time.Time
}

// New creates a Handler and registers all routes.
func New(conns ConnCounter, rl RoomLister) http.Handler {
	h := &Handler{conns: conns, rooms: rl, mux: http.NewServeMux(), now: time.Now}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/stats", h.stats)
	h.mux.HandleFunc("/api/v1/rooms", h.listRooms)
	h.mux.HandleFunc("/api/v1/rooms/", h.getRoom) // subtree — extracts {id}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Connections: h.conns.Count(),
		Rooms:       h.rooms.Size(),
	})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, StatsResponse{
		Connections: h.conns.Count(),
		Rooms:       h.rooms.Size(),
		TakenAt:     h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.rooms.List())
}

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/rooms/")
	if id == "" {
		h.listRooms(w, r)
		return
	}

	n := h.rooms.Participants(id)
	if n == 0 {
		jsonErr(w, http.StatusNotFound, "room not found")
		return
	}
	jsonResp(w, http.StatusOK, rooms.RoomInfo{ID: id, Participants: n})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
