package network

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/JailbreakIdle/internal/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer. Large enough for an IMPORT.
	maxMessageSize = 256 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// PlayerAction is an inbound command frame. Payload carries the command's
// id, kind, value and data fields.
type PlayerAction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Ack answers one PlayerAction.
type Ack struct {
	Type     string `json:"type"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Command converts the frame into an engine command.
func (a PlayerAction) Command() (engine.Command, error) {
	var cmd engine.Command
	if len(a.Payload) > 0 && string(a.Payload) != "null" {
		if err := json.Unmarshal(a.Payload, &cmd); err != nil {
			return cmd, err
		}
	}
	cmd.Type = engine.CommandType(a.Type)
	return cmd, nil
}

// Client is one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	// closed is guarded by hub.mu.
	closed bool

	windowStart time.Time
	windowCount int
}

// NewClient creates a client bound to hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.sendBuffer),
	}
}

// ServeWs upgrades the request and starts the client's pumps. The first
// frame a client receives is the current state.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.metrics.RecordWSError()
		h.logger.Error("Failed to upgrade websocket connection")
		return
	}
	client := NewClient(h, conn)
	client.reply(Frame{Type: FrameState, Data: h.sim.View()})
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// ReadPump pumps commands from the websocket connection into the engine.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.metrics.RecordWSError()
				c.hub.logger.Errorf("websocket read: %v", err)
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Warn("Failed to parse PlayerAction: " + err.Error())
			c.reply(Frame{Type: FrameAck, Data: Ack{Reason: "malformed frame"}})
			continue
		}
		c.reply(Frame{Type: FrameAck, Data: c.handlePlayerAction(action, time.Now())})
	}
}

func (c *Client) handlePlayerAction(action PlayerAction, now time.Time) Ack {
	ack := Ack{Type: action.Type}
	if !c.allow(now) {
		ack.Reason = "rate limited"
		return ack
	}
	cmd, err := action.Command()
	if err != nil {
		ack.Reason = "malformed payload"
		return ack
	}
	ack.Accepted = c.hub.sim.Apply(cmd)
	if !ack.Accepted {
		ack.Reason = "rejected"
	}
	return ack
}

// allow enforces the per-connection command budget over one-second windows.
func (c *Client) allow(now time.Time) bool {
	if c.hub.maxCommands <= 0 {
		return true
	}
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	if c.windowCount >= c.hub.maxCommands {
		return false
	}
	c.windowCount++
	return true
}

// reply queues a frame for this client only. It never blocks the read loop.
func (c *Client) reply(frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.hub.logger.Errorf("failed to serialize %s frame: %v", frame.Type, err)
		return
	}
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
		c.hub.metrics.RecordWSMessage(false)
	default:
		c.hub.metrics.RecordWSError()
	}
}

// WritePump pumps frames from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
