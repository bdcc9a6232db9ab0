package network

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MRamiBalles/JailbreakIdle/internal/engine"
)

// CommandBridge accepts commands over plain HTTP for clients that do not
// hold a WebSocket, and pushes the resulting state to those that do.
type CommandBridge struct {
	hub *Hub
}

// NewCommandBridge creates a bridge that applies commands through hub.
func NewCommandBridge(hub *Hub) *CommandBridge {
	return &CommandBridge{hub: hub}
}

// HandleCommand applies one command.
// POST /api/command
func (cb *CommandBridge) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd engine.Command
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageSize)).Decode(&cmd); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if cmd.Type == "" {
		jsonError(w, "Missing command type", http.StatusBadRequest)
		return
	}

	ack := Ack{Type: string(cmd.Type), Accepted: cb.hub.sim.Apply(cmd)}
	if !ack.Accepted {
		ack.Reason = "rejected"
		writeJSON(w, http.StatusConflict, ack)
		return
	}
	cb.hub.logger.Event("COMMAND", "HTTP", string(cmd.Type))
	cb.hub.BroadcastState()
	writeJSON(w, http.StatusOK, ack)
}

// HandleState returns the current view.
// GET /api/state
func (cb *CommandBridge) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cb.hub.sim.View())
}

// RegisterRoutes mounts the command API and the WebSocket endpoint.
func (cb *CommandBridge) RegisterRoutes(r chi.Router) {
	r.Get("/ws", cb.hub.ServeWs)
	r.Post("/api/command", cb.HandleCommand)
	r.Get("/api/state", cb.HandleState)
}
