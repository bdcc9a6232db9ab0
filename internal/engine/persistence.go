package engine

import (
	"fmt"
	"time"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
	"github.com/MRamiBalles/JailbreakIdle/internal/save"
	"github.com/google/uuid"
)

// Checkpoint is one encoded save together with the fields storage indexes.
type Checkpoint struct {
	Revision   string
	Encoded    string
	Playtime   float64
	Stage      int
	ResetTimes int
	SavedAt    time.Time
}

// Export encodes the current state.
func (e *Engine) Export() (string, error) {
	cp, err := e.Checkpoint()
	if err != nil {
		return "", err
	}
	return cp.Encoded, nil
}

// Checkpoint encodes the current state under a new revision id.
func (e *Engine) Checkpoint() (Checkpoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	encoded, err := save.Encode(e.state)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("encode state: %w", err)
	}
	return Checkpoint{
		Revision:   uuid.NewString(),
		Encoded:    encoded,
		Playtime:   e.state.Playtime,
		Stage:      e.state.Stage,
		ResetTimes: e.state.ResetTimes,
		SavedAt:    e.clock(),
	}, nil
}

// Import replaces the state with a decoded save. A save that fails to
// decode leaves the current state untouched and posts a notice.
func (e *Engine) Import(encoded string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := save.Decode(encoded, e.clock().UnixMilli())
	if err != nil {
		e.eventLog.Push(events.EventTypeSaveInvalid, "Your save was invalid.", e.state.Playtime)
		e.logger.Event("SAVE_INVALID", "import", err.Error())
		return err
	}

	s.Transient.Paused = e.state.Transient.Paused
	s.Transient.Won = rules.TrialProgress(s) >= 1
	e.state = s
	e.strategy.Regenerate(s)
	e.eventLog.Push(events.EventTypeSaveLoaded, "Save loaded.", s.Playtime)
	e.logger.Event("SAVE_LOADED", "import", fmt.Sprintf("stage=%d resets=%d", s.Stage, s.ResetTimes))
	return nil
}
