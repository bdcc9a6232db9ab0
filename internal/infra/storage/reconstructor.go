package storage

import (
	"context"
	"fmt"
	"time"
)

// Recap summarises the message log of a slot since a point in time, for the
// "while you were away" view shown on reconnect.
type Recap struct {
	Slot     string         `json:"slot"`
	Since    time.Time      `json:"since"`
	Counts   map[string]int `json:"counts"`
	Captures int            `json:"captures"`
	Solved   int            `json:"strategies_solved"`
	Events   []RecapEvent   `json:"events"`
}

// RecapEvent is a simplified message for the recap screen.
type RecapEvent struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"`
	Impact    string `json:"impact"` // "POSITIVE", "NEGATIVE", "NEUTRAL"
}

// Reconstructor builds recaps from the message log.
type Reconstructor struct {
	messages MessageRepository
}

// NewReconstructor creates a recap builder.
func NewReconstructor(messages MessageRepository) *Reconstructor {
	return &Reconstructor{messages: messages}
}

// GenerateRecap collects slot's messages since t. At most maxEvents of the
// newest messages are listed; the counts cover all of them.
func (r *Reconstructor) GenerateRecap(ctx context.Context, slot string, since time.Time, maxEvents int) (*Recap, error) {
	msgs, err := r.messages.Since(ctx, slot, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	recap := &Recap{Slot: slot, Since: since, Counts: make(map[string]int)}
	for _, m := range msgs {
		recap.Counts[m.Type]++
		switch m.Type {
		case "EVASION_RESET":
			recap.Captures++
		case "STRATEGY_SOLVED":
			recap.Solved++
		}
	}

	if maxEvents > 0 && len(msgs) > maxEvents {
		msgs = msgs[len(msgs)-maxEvents:]
	}
	for _, m := range msgs {
		recap.Events = append(recap.Events, RecapEvent{
			Timestamp: m.Timestamp.Format(time.RFC3339),
			EventType: m.Type,
			Summary:   m.Text,
			Impact:    determineImpact(m.Type),
		})
	}
	return recap, nil
}

func determineImpact(msgType string) string {
	switch msgType {
	case "EVASION_RESET", "FATIGUE", "PUZZLE_FAILED", "SAVE_INVALID":
		return "NEGATIVE"
	case "PUZZLE_SOLVED", "STRATEGY_SOLVED", "VICTORY", "SCAVENGE":
		return "POSITIVE"
	default:
		return "NEUTRAL"
	}
}
