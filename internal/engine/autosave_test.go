package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/save"
)

type memorySink struct {
	stored []Checkpoint
	err    error
}

func (m *memorySink) Store(_ context.Context, _ string, cp Checkpoint) error {
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, cp)
	return nil
}

func TestAutosaverWritesSinkAndSnapshot(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) { s.Cash = 7 })

	sink := &memorySink{}
	dir := t.TempDir()
	a := NewAutosaver(e, sink, "main", dir, 2)

	for i := 0; i < 3; i++ {
		if err := a.SaveNow(context.Background()); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	if len(sink.stored) != 3 || sink.stored[0].Revision == sink.stored[1].Revision {
		t.Fatalf("expected three distinct revisions, got %+v", sink.stored)
	}

	path, err := save.LatestSnapshot(dir, "main")
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	h, encoded, err := save.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if h.Slot != "main" || encoded != sink.stored[2].Encoded {
		t.Errorf("snapshot does not match the last checkpoint: %+v", h)
	}

	restored := newTestEngine(t)
	if err := restored.Import(encoded); err != nil {
		t.Fatalf("import snapshot: %v", err)
	}
	if restored.View().Cash != 7 {
		t.Error("snapshot lost cash")
	}
}

func TestAutosaverReportsSinkErrors(t *testing.T) {
	e := newTestEngine(t)
	boom := errors.New("disk full")
	a := NewAutosaver(e, &memorySink{err: boom}, "main", "", 0)
	if err := a.SaveNow(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if e.metrics.Snapshot()["persistence"].(map[string]interface{})["save_failures"].(int64) != 1 {
		t.Error("failure not counted")
	}
}
