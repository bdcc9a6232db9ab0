package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/MRamiBalles/JailbreakIdle/internal/save"
)

// SaveSink durably stores checkpoints of one slot.
type SaveSink interface {
	Store(ctx context.Context, slot string, cp Checkpoint) error
}

// Autosaver periodically checkpoints the engine to a sink and, when a
// snapshot directory is set, to rotating compressed snapshot files.
type Autosaver struct {
	engine       *Engine
	sink         SaveSink
	slot         string
	snapshotDir  string
	snapshotKeep int
}

// NewAutosaver creates an autosaver. sink may be nil to write snapshots only.
func NewAutosaver(e *Engine, sink SaveSink, slot, snapshotDir string, keep int) *Autosaver {
	return &Autosaver{engine: e, sink: sink, slot: slot, snapshotDir: snapshotDir, snapshotKeep: keep}
}

// Run saves every interval until ctx is cancelled, then saves once more.
func (a *Autosaver) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := a.SaveNow(final); err != nil {
				a.engine.logger.Error("final save failed: " + err.Error())
			}
			cancel()
			return
		case <-t.C:
			if err := a.SaveNow(ctx); err != nil {
				a.engine.logger.Error("autosave failed: " + err.Error())
			}
		}
	}
}

// SaveNow writes one checkpoint.
func (a *Autosaver) SaveNow(ctx context.Context) error {
	cp, err := a.engine.Checkpoint()
	if err != nil {
		return err
	}

	if a.sink != nil {
		start := time.Now()
		err := a.sink.Store(ctx, a.slot, cp)
		a.engine.metrics.RecordSave(time.Since(start), err)
		if err != nil {
			return fmt.Errorf("store slot %s: %w", a.slot, err)
		}
	}

	if a.snapshotDir != "" {
		h := save.Header{
			Version:  save.SnapshotVersion,
			Slot:     a.slot,
			Revision: cp.Revision,
			SavedAt:  cp.SavedAt,
			Playtime: cp.Playtime,
		}
		if _, err := save.WriteSnapshot(a.snapshotDir, h, cp.Encoded, a.snapshotKeep); err != nil {
			return err
		}
		a.engine.metrics.RecordSnapshot()
	}
	return nil
}
