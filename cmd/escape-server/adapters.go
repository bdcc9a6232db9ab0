package main

import (
	"context"

	"github.com/MRamiBalles/JailbreakIdle/internal/engine"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
	"github.com/MRamiBalles/JailbreakIdle/internal/infra/storage"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/metrics"
)

// repoSink stores engine checkpoints as save revisions.
type repoSink struct {
	repo storage.SaveRepository
}

func (s *repoSink) Store(ctx context.Context, slot string, cp engine.Checkpoint) error {
	return s.repo.Put(ctx, storage.SaveRecord{
		Slot:       slot,
		Revision:   cp.Revision,
		Data:       cp.Encoded,
		Playtime:   cp.Playtime,
		Stage:      cp.Stage,
		ResetTimes: cp.ResetTimes,
		SavedAt:    cp.SavedAt,
	})
}

// meteredPersister counts message writes on their way to storage.
type meteredPersister struct {
	next    events.EventPersister
	metrics *metrics.Collector
}

func (p *meteredPersister) Append(e events.GameEvent) error {
	err := p.next.Append(e)
	p.metrics.RecordMessageWrite(err)
	return err
}
