package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/MRamiBalles/JailbreakIdle/internal/engine"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
	"github.com/MRamiBalles/JailbreakIdle/internal/infra/storage"
	"github.com/MRamiBalles/JailbreakIdle/internal/network"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/config"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/logger"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/metrics"
)

type fixture struct {
	eng      *engine.Engine
	saves    *storage.SQLSaveRepository
	messages *storage.SQLMessageRepository
	metrics  *metrics.Collector
	srv      *httptest.Server
	snapDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.OpenSQLite(context.Background(), filepath.Join(dir, "escape.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	m := metrics.NewCollector()
	eng := engine.New(engine.Options{Seed: 3, Metrics: m})
	eng.Begin()

	f := &fixture{
		eng:      eng,
		saves:    storage.NewSaveRepository(db),
		messages: storage.NewMessageRepository(db),
		metrics:  m,
		snapDir:  filepath.Join(dir, "snapshots"),
	}
	hub := network.NewHub(eng, logger.Discard(), m, config.Tuning{})
	f.srv = httptest.NewServer(newRouter(routerDeps{
		engine:    eng,
		hub:       hub,
		saves:     f.saves,
		recaps:    storage.NewReconstructor(f.messages),
		autosaver: engine.NewAutosaver(eng, &repoSink{repo: f.saves}, "main", f.snapDir, 3),
		slot:      "main",
		metrics:   m,
		logger:    logger.Discard(),
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestExportImportOverHTTP(t *testing.T) {
	f := newFixture(t)
	f.eng.Advance(5)

	resp := f.do(t, http.MethodGet, "/api/save", nil)
	var exported saveBody
	if err := json.NewDecoder(resp.Body).Decode(&exported); err != nil || exported.Data == "" {
		t.Fatalf("export: %v %+v", err, exported)
	}

	f.eng.HardReset()
	if resp := f.do(t, http.MethodPost, "/api/save", exported); resp.StatusCode != http.StatusOK {
		t.Fatalf("import: status %d", resp.StatusCode)
	}
	if got := f.eng.View().Playtime; got < 5 {
		t.Fatalf("imported playtime %v", got)
	}

	if resp := f.do(t, http.MethodPost, "/api/save", saveBody{Data: "not a save"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid import: status %d", resp.StatusCode)
	}
	if len(f.eng.Events().ByType(events.EventTypeSaveInvalid)) != 1 {
		t.Fatal("invalid import should post a notice")
	}
}

func TestCheckpointHistoryAndWipe(t *testing.T) {
	f := newFixture(t)
	f.eng.Advance(3725)

	if resp := f.do(t, http.MethodPost, "/api/save/checkpoint", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("checkpoint: status %d", resp.StatusCode)
	}

	var history []revisionView
	json.NewDecoder(f.do(t, http.MethodGet, "/api/history", nil).Body).Decode(&history)
	if len(history) != 1 {
		t.Fatalf("expected one revision, got %d", len(history))
	}
	if history[0].PlaytimeHR != "1 hour" || history[0].Size == "" || history[0].SavedAgo == "" {
		t.Fatalf("unexpected revision view %+v", history[0])
	}
	if f.metrics.SavesWritten != 1 || f.metrics.SnapshotsWritten != 1 {
		t.Fatalf("saves=%d snapshots=%d", f.metrics.SavesWritten, f.metrics.SnapshotsWritten)
	}

	if resp := f.do(t, http.MethodGet, "/api/history?limit=zero", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit: status %d", resp.StatusCode)
	}

	if resp := f.do(t, http.MethodDelete, "/api/save", nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("wipe: status %d", resp.StatusCode)
	}
	if _, err := f.saves.Latest(context.Background(), "main"); !errors.Is(err, storage.ErrNoSave) {
		t.Fatalf("slot survived the wipe: %v", err)
	}
	if f.eng.View().Started {
		t.Fatal("wipe should hard-reset the game")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	if resp := f.do(t, http.MethodGet, "/health", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("health: status %d", resp.StatusCode)
	}
	var snap map[string]any
	if err := json.NewDecoder(f.do(t, http.MethodGet, "/metrics", nil).Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if _, ok := snap["tick"]; !ok {
		t.Fatalf("metrics missing tick section: %v", snap)
	}
	if resp := f.do(t, http.MethodGet, "/metrics/prometheus", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("prometheus: status %d", resp.StatusCode)
	}
}

func TestRestorePrefersStoredSave(t *testing.T) {
	f := newFixture(t)
	f.eng.Advance(40)
	autosaver := engine.NewAutosaver(f.eng, &repoSink{repo: f.saves}, "main", "", 0)
	if err := autosaver.SaveNow(context.Background()); err != nil {
		t.Fatal(err)
	}

	fresh := engine.New(engine.Options{Seed: 9})
	restore(context.Background(), fresh, f.saves, config.Save{Slot: "main"}, logger.Discard())
	if got := fresh.View().Playtime; got < 40 {
		t.Fatalf("restored playtime %v", got)
	}
}

func TestRestoreFallsBackToSnapshot(t *testing.T) {
	f := newFixture(t)
	f.eng.Advance(12)
	snapshotOnly := engine.NewAutosaver(f.eng, nil, "main", f.snapDir, 2)
	if err := snapshotOnly.SaveNow(context.Background()); err != nil {
		t.Fatal(err)
	}

	fresh := engine.New(engine.Options{Seed: 9})
	restore(context.Background(), fresh, f.saves, config.Save{Slot: "main", SnapshotDir: f.snapDir}, logger.Discard())
	if got := fresh.View().Playtime; got < 12 {
		t.Fatalf("snapshot restore playtime %v", got)
	}

	empty := engine.New(engine.Options{Seed: 9})
	restore(context.Background(), empty, f.saves, config.Save{Slot: "other", SnapshotDir: f.snapDir}, logger.Discard())
	if empty.View().Started {
		t.Fatal("unknown slot should keep a fresh game")
	}
}

type failingPersister struct{ err error }

func (p failingPersister) Append(events.GameEvent) error { return p.err }

func TestMeteredPersisterCounts(t *testing.T) {
	m := metrics.NewCollector()
	ok := &meteredPersister{next: failingPersister{}, metrics: m}
	bad := &meteredPersister{next: failingPersister{err: errors.New("disk full")}, metrics: m}

	ok.Append(events.GameEvent{})
	if err := bad.Append(events.GameEvent{}); err == nil {
		t.Fatal("error swallowed")
	}
	if m.MessagesStored != 1 || m.MessageErrors != 1 {
		t.Fatalf("stored=%d errors=%d", m.MessagesStored, m.MessageErrors)
	}
}
