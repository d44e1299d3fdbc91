package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"wordroom-server/lobby"
	"wordroom-server/room"
)

// Handler holds dependencies for the HTTP API.
type Handler struct {
	Registry *lobby.Registry
	Rooms    *room.Manager
}

// NewHandler creates an API handler with the given dependencies.
func NewHandler(registry *lobby.Registry, rooms *room.Manager) *Handler {
	return &Handler{Registry: registry, Rooms: rooms}
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// ListRooms returns the public room directory from the lobby registry.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.Registry.Snapshot())
}

// RoomStatus answers a pre-join probe: whether the room exists, how many
// players are in it, its mode, and whether it wants a password.
func (h *Handler) RoomStatus(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("room"))
	if id == "" {
		http.Error(w, "room parameter is required", http.StatusBadRequest)
		return
	}

	type statusResponse struct {
		Exists bool `json:"exists"`
		room.Status
	}
	rm, ok := h.Rooms.Lookup(id)
	if !ok {
		writeJSON(w, statusResponse{Exists: false})
		return
	}
	writeJSON(w, statusResponse{Exists: true, Status: rm.Status()})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "tag", "api", "err", err)
	}
}
