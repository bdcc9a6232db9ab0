package storage

import (
	"context"
	"time"

	"github.com/MRamiBalles/JailbreakIdle/internal/events"
)

// EventPersister writes the in-memory message log through to a
// MessageRepository under one save slot.
type EventPersister struct {
	repo    MessageRepository
	slot    string
	timeout time.Duration
}

// NewEventPersister binds repo to slot.
func NewEventPersister(repo MessageRepository, slot string) *EventPersister {
	return &EventPersister{repo: repo, slot: slot, timeout: 5 * time.Second}
}

// Append implements events.EventPersister.
func (p *EventPersister) Append(e events.GameEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.repo.Append(ctx, MessageRecord{
		ID:        e.ID,
		Slot:      p.slot,
		Seq:       e.Seq,
		Timestamp: e.Timestamp,
		Type:      string(e.Type),
		Text:      e.Text,
		Playtime:  e.Playtime,
	})
}
