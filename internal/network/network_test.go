package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/JailbreakIdle/internal/engine"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
	"github.com/MRamiBalles/JailbreakIdle/internal/infra/storage"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/config"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/logger"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/metrics"
)

type testServer struct {
	eng    *engine.Engine
	hub    *Hub
	srv    *httptest.Server
	cancel context.CancelFunc
}

func newTestServer(t *testing.T, tuning config.Tuning, recaps Recapper) *testServer {
	t.Helper()
	eng := engine.New(engine.Options{Seed: 7, Clock: func() time.Time { return time.UnixMilli(1_700_000_000_000) }})
	hub := NewHub(eng, logger.Discard(), metrics.NewCollector(), tuning)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := chi.NewRouter()
	NewCommandBridge(hub).RegisterRoutes(r)
	NewReplayHandler(eng.Events(), recaps, "main", logger.Discard()).RegisterRoutes(r)
	srv := httptest.NewServer(r)

	ts := &testServer{eng: eng, hub: hub, srv: srv, cancel: cancel}
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return ts
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type rawFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// readUntil reads frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) rawFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var f rawFrame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("waiting for %s frame: %v", typ, err)
		}
		if f.Type == typ {
			return f
		}
	}
}

func TestWebSocketCommandRoundTrip(t *testing.T) {
	ts := newTestServer(t, config.Tuning{}, nil)
	conn := ts.dial(t)

	var view engine.View
	if err := json.Unmarshal(readUntil(t, conn, FrameState).Data, &view); err != nil {
		t.Fatal(err)
	}
	if view.Started {
		t.Fatal("fresh game reported as started")
	}

	if err := conn.WriteJSON(PlayerAction{Type: string(engine.CmdBegin)}); err != nil {
		t.Fatal(err)
	}
	var ack Ack
	if err := json.Unmarshal(readUntil(t, conn, FrameAck).Data, &ack); err != nil {
		t.Fatal(err)
	}
	if !ack.Accepted || ack.Type != "BEGIN" {
		t.Fatalf("unexpected ack %+v", ack)
	}
	if !ts.eng.View().Started {
		t.Fatal("BEGIN over the socket did not start the game")
	}

	conn.WriteJSON(PlayerAction{Type: string(engine.CmdBegin)})
	json.Unmarshal(readUntil(t, conn, FrameAck).Data, &ack)
	if ack.Accepted || ack.Reason != "rejected" {
		t.Fatalf("second BEGIN should be rejected, got %+v", ack)
	}
}

func TestMalformedFrameIsAcknowledged(t *testing.T) {
	ts := newTestServer(t, config.Tuning{}, nil)
	conn := ts.dial(t)
	conn.WriteMessage(websocket.TextMessage, []byte("{not json"))

	var ack Ack
	json.Unmarshal(readUntil(t, conn, FrameAck).Data, &ack)
	if ack.Accepted || ack.Reason != "malformed frame" {
		t.Fatalf("unexpected ack %+v", ack)
	}
}

func TestPollerForwardsMessages(t *testing.T) {
	ts := newTestServer(t, config.Tuning{}, nil)
	conn := ts.dial(t)
	readUntil(t, conn, FrameState)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ts.hub.StartPoller(ctx, 10*time.Millisecond)

	ts.eng.Begin()
	var msg events.GameEvent
	if err := json.Unmarshal(readUntil(t, conn, FrameMessage).Data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != events.EventTypeGameStarted {
		t.Fatalf("first forwarded message is %s", msg.Type)
	}
}

func TestPlayerActionPayload(t *testing.T) {
	action := PlayerAction{Type: "START_ACTION", Payload: json.RawMessage(`{"id":"work","type":"IGNORED"}`)}
	cmd, err := action.Command()
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Type != engine.CmdStartAction || cmd.ID != "work" {
		t.Fatalf("unexpected command %+v", cmd)
	}

	if _, err := (PlayerAction{Type: "CLICK_NODE", Payload: json.RawMessage(`[1]`)}).Command(); err == nil {
		t.Fatal("array payload accepted")
	}
}

func TestClientRateLimit(t *testing.T) {
	eng := engine.New(engine.Options{Seed: 1})
	hub := NewHub(eng, logger.Discard(), metrics.NewCollector(), config.Tuning{MaxCommandsPerSec: 2})
	c := &Client{hub: hub, send: make(chan []byte, 8)}

	now := time.Unix(100, 0)
	for i := 0; i < 2; i++ {
		if ack := c.handlePlayerAction(PlayerAction{Type: "TOGGLE_PAUSE"}, now); !ack.Accepted {
			t.Fatalf("command %d rejected: %+v", i, ack)
		}
	}
	if ack := c.handlePlayerAction(PlayerAction{Type: "TOGGLE_PAUSE"}, now.Add(500*time.Millisecond)); ack.Reason != "rate limited" {
		t.Fatalf("third command in a second should be limited, got %+v", ack)
	}
	if ack := c.handlePlayerAction(PlayerAction{Type: "TOGGLE_PAUSE"}, now.Add(time.Second)); !ack.Accepted {
		t.Fatalf("new window should accept, got %+v", ack)
	}
}

func TestCommandBridge(t *testing.T) {
	ts := newTestServer(t, config.Tuning{}, nil)

	post := func(body string) *http.Response {
		t.Helper()
		resp, err := http.Post(ts.srv.URL+"/api/command", "application/json", bytes.NewBufferString(body))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	if resp := post(`{"type":"BEGIN"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("BEGIN: status %d", resp.StatusCode)
	}
	if resp := post(`{"type":"BEGIN"}`); resp.StatusCode != http.StatusConflict {
		t.Fatalf("second BEGIN: status %d", resp.StatusCode)
	}
	if resp := post(`{}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing type: status %d", resp.StatusCode)
	}

	resp, err := http.Get(ts.srv.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var view engine.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if !view.Started {
		t.Fatal("state endpoint should report the started game")
	}
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func TestReplayMessages(t *testing.T) {
	ts := newTestServer(t, config.Tuning{}, nil)
	ts.eng.Begin()
	ts.eng.Apply(engine.Command{Type: engine.CmdImport, Data: "garbage"})

	var all ReplayResponse
	if code := getJSON(t, ts.srv.URL+"/api/messages", &all); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if all.TotalEvents != 2 || all.NextSeq != 2 {
		t.Fatalf("expected two messages, got %+v", all)
	}

	var invalid ReplayResponse
	getJSON(t, ts.srv.URL+"/api/messages?type=SAVE_INVALID", &invalid)
	if invalid.TotalEvents != 1 || invalid.Events[0].Type != events.EventTypeSaveInvalid {
		t.Fatalf("type filter returned %+v", invalid.Events)
	}

	var tail ReplayResponse
	getJSON(t, ts.srv.URL+"/api/messages?since=2", &tail)
	if tail.TotalEvents != 0 || tail.NextSeq != 2 {
		t.Fatalf("since past the end returned %+v", tail)
	}

	if code := getJSON(t, ts.srv.URL+"/api/messages?since=-1", nil); code != http.StatusBadRequest {
		t.Fatalf("negative since: status %d", code)
	}
	if code := getJSON(t, ts.srv.URL+"/api/recap", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("recap without storage: status %d", code)
	}
}

type stubRecapper struct {
	since time.Time
	err   error
}

func (s *stubRecapper) GenerateRecap(_ context.Context, slot string, since time.Time, maxEvents int) (*storage.Recap, error) {
	s.since = since
	if s.err != nil {
		return nil, s.err
	}
	return &storage.Recap{Slot: slot, Since: since, Captures: 2}, nil
}

func TestRecapEndpoint(t *testing.T) {
	stub := &stubRecapper{}
	ts := newTestServer(t, config.Tuning{}, stub)

	var recap storage.Recap
	before := time.Now()
	if code := getJSON(t, ts.srv.URL+"/api/recap?since=2h", &recap); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if recap.Slot != "main" || recap.Captures != 2 {
		t.Fatalf("unexpected recap %+v", recap)
	}
	if d := before.Sub(stub.since); d < 2*time.Hour-time.Minute || d > 2*time.Hour+time.Minute {
		t.Fatalf("duration since resolved to %v ago", d)
	}

	if code := getJSON(t, ts.srv.URL+"/api/recap?since=yesterday", nil); code != http.StatusBadRequest {
		t.Fatalf("bad since: status %d", code)
	}
	stub.err = errors.New("db down")
	if code := getJSON(t, ts.srv.URL+"/api/recap", nil); code != http.StatusInternalServerError {
		t.Fatalf("failing store: status %d", code)
	}
}
