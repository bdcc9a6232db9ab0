// Package storage provides the SQL persistence layer for save slots and the
// message log. One implementation serves both SQLite and PostgreSQL; the
// dialect only changes placeholders and column types.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNoSave is returned when a slot has never been written.
var ErrNoSave = errors.New("no save in slot")

// SaveRecord is one stored revision of a save slot.
type SaveRecord struct {
	Slot       string    `json:"slot"`
	Revision   string    `json:"revision"`
	Data       string    `json:"data"` // encoded save
	Playtime   float64   `json:"playtime"`
	Stage      int       `json:"stage"`
	ResetTimes int       `json:"reset_times"`
	SavedAt    time.Time `json:"saved_at"`
}

// MessageRecord is one persisted message-log entry.
type MessageRecord struct {
	ID        string    `json:"id"`
	Slot      string    `json:"slot"`
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Playtime  float64   `json:"playtime"`
}

// SaveRepository stores save slots with a revision history.
type SaveRepository interface {
	// Put stores a new revision and makes it the slot's current one.
	Put(ctx context.Context, rec SaveRecord) error

	// Latest returns the current revision of a slot, or ErrNoSave.
	Latest(ctx context.Context, slot string) (*SaveRecord, error)

	// History returns up to limit revisions, newest first.
	History(ctx context.Context, slot string, limit int) ([]SaveRecord, error)

	// Delete drops a slot and its history.
	Delete(ctx context.Context, slot string) error
}

// MessageRepository stores the message log.
type MessageRepository interface {
	// Append adds a message.
	Append(ctx context.Context, msg MessageRecord) error

	// Since returns a slot's messages written at or after t, oldest first.
	Since(ctx context.Context, slot string, t time.Time) ([]MessageRecord, error)

	// ByType returns a slot's messages of one type, oldest first.
	ByType(ctx context.Context, slot, msgType string) ([]MessageRecord, error)
}
