// Package network serves the simulation to browser clients over WebSocket
// and a small JSON API.
package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/MRamiBalles/JailbreakIdle/internal/engine"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/config"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/logger"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/metrics"
)

// Simulation is the part of the engine the network layer drives.
type Simulation interface {
	Apply(cmd engine.Command) bool
	View() engine.View
	Events() *events.EventLog
}

// Frame types pushed to clients.
const (
	FrameMessage = "MESSAGE"
	FrameState   = "STATE"
	FrameAck     = "ACK"
)

// Frame is one outbound WebSocket message.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub maintains the set of active clients and broadcasts frames to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex

	sim     Simulation
	logger  *logger.Logger
	metrics *metrics.Collector

	sendBuffer  int
	maxCommands int
}

// NewHub initializes a hub in front of sim.
func NewHub(sim Simulation, log *logger.Logger, m *metrics.Collector, tuning config.Tuning) *Hub {
	if m == nil {
		m = metrics.Get()
	}
	if tuning.BroadcastBuffer <= 0 {
		tuning.BroadcastBuffer = 256
	}
	if tuning.ClientSendBuffer <= 0 {
		tuning.ClientSendBuffer = 64
	}
	return &Hub{
		clients:     make(map[*Client]bool),
		broadcast:   make(chan []byte, tuning.BroadcastBuffer),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		sim:         sim,
		logger:      log,
		metrics:     m,
		sendBuffer:  tuning.ClientSendBuffer,
		maxCommands: tuning.MaxCommandsPerSec,
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					// Slow consumer.
					h.drop(client)
					h.metrics.RecordWSConnection(-1)
					h.metrics.RecordWSError()
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client and closes its queue. Callers hold h.mu.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	client.closed = true
	close(client.send)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues a frame for every client. Frames are dropped when the
// broadcast buffer is full.
func (h *Hub) Broadcast(frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Errorf("failed to serialize %s frame: %v", frame.Type, err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.metrics.RecordWSError()
		h.logger.Warn("broadcast buffer full, dropping frame")
	}
}

// BroadcastState pushes the current view to every client.
func (h *Hub) BroadcastState() {
	h.Broadcast(Frame{Type: FrameState, Data: h.sim.View()})
}

// StartPoller spawns a goroutine that forwards new messages from the log
// and a state frame every interval. State frames are skipped while nobody
// is connected.
func (h *Hub) StartPoller(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	// Messages pushed after this call returns must be forwarded.
	next := h.sim.Events().Len()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, msg := range h.sim.Events().Since(next) {
					h.Broadcast(Frame{Type: FrameMessage, Data: msg})
					next = msg.Seq + 1
				}
				if h.ClientCount() > 0 {
					h.BroadcastState()
				}
			}
		}
	}()
}
