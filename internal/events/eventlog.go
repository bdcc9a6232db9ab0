// Package events provides the player-facing message log. The simulation
// appends a message on every notable transition; the network layer and
// storage read it back.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a message.
type EventType string

const (
	EventTypeGameStarted    EventType = "GAME_STARTED"
	EventTypeActionFinished EventType = "ACTION_FINISHED"
	EventTypeStory          EventType = "STORY"
	EventTypeScavenge       EventType = "SCAVENGE"
	EventTypeFatigue        EventType = "FATIGUE"
	EventTypeEvasionReset   EventType = "EVASION_RESET"
	EventTypePuzzleSolved   EventType = "PUZZLE_SOLVED"
	EventTypePuzzleFailed   EventType = "PUZZLE_FAILED"
	EventTypeStrategySolved EventType = "STRATEGY_SOLVED"
	EventTypeTrialStarted   EventType = "TRIAL_STARTED"
	EventTypeVictory        EventType = "VICTORY"
	EventTypeSaveLoaded     EventType = "SAVE_LOADED"
	EventTypeSaveInvalid    EventType = "SAVE_INVALID"
	EventTypeHardReset      EventType = "HARD_RESET"
)

// GameEvent is one immutable message.
type GameEvent struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Text      string    `json:"text"`
	Playtime  float64   `json:"playtime"`
}

// EventPersister defines how a message is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only message log. When a persister is
// attached, messages are written through in order by a single goroutine.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
	queue     chan GameEvent
	done      chan struct{}
	errMu     sync.Mutex
	onError   func(error)
	closeOnce sync.Once
}

// NewEventLog creates a message log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	el := &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
	if persister != nil {
		el.queue = make(chan GameEvent, 256)
		el.done = make(chan struct{})
		go el.drain()
	}
	return el
}

// OnPersistError registers a callback for write-through failures.
func (el *EventLog) OnPersistError(fn func(error)) {
	el.errMu.Lock()
	el.onError = fn
	el.errMu.Unlock()
}

func (el *EventLog) drain() {
	defer close(el.done)
	for e := range el.queue {
		if err := el.persister.Append(e); err != nil {
			el.errMu.Lock()
			fn := el.onError
			el.errMu.Unlock()
			if fn != nil {
				fn(err)
			}
		}
	}
}

// Push appends a message of the given type and returns it.
func (el *EventLog) Push(eventType EventType, text string, playtime float64) GameEvent {
	return el.Append(GameEvent{
		ID:        GenerateEventID(),
		Timestamp: time.Now(),
		Type:      eventType,
		Text:      text,
		Playtime:  playtime,
	})
}

// Append adds a message to the log, assigning its sequence number.
func (el *EventLog) Append(event GameEvent) GameEvent {
	el.mu.Lock()
	defer el.mu.Unlock()
	event.Seq = len(el.events)
	el.events = append(el.events, event)

	// Enqueued under the lock so persistence order matches Seq.
	if el.queue != nil {
		el.queue <- event
	}
	return event
}

// Since returns the messages with sequence numbers >= seq.
func (el *EventLog) Since(seq int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	if seq < 0 {
		seq = 0
	}
	if seq >= len(el.events) {
		return nil
	}
	out := make([]GameEvent, len(el.events)-seq)
	copy(out, el.events[seq:])
	return out
}

// ByType returns all messages of one type.
func (el *EventLog) ByType(eventType EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

// Last returns the most recent message and whether one exists.
func (el *EventLog) Last() (GameEvent, bool) {
	el.mu.RLock()
	defer el.mu.RUnlock()
	if len(el.events) == 0 {
		return GameEvent{}, false
	}
	return el.events[len(el.events)-1], true
}

// Len returns the number of messages.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// Replay returns a copy of the full history.
func (el *EventLog) Replay() []GameEvent {
	return el.Since(0)
}

// Close stops the write-through goroutine after flushing queued messages.
// No message may be appended afterwards.
func (el *EventLog) Close() {
	if el.queue == nil {
		return
	}
	el.closeOnce.Do(func() {
		close(el.queue)
		<-el.done
	})
}

// GenerateEventID creates a unique message identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
