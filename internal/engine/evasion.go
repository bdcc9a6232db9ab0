package engine

import (
	"fmt"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
)

// EvasionSystem runs the police pressure once the player has escaped and
// performs the scoped reset when they are caught.
type EvasionSystem struct {
	systemDeps
}

// NewEvasionSystem creates the evasion mechanic.
func NewEvasionSystem(deps systemDeps) *EvasionSystem {
	return &EvasionSystem{systemDeps: deps}
}

// Update consumes evasion headroom and checks both capture conditions.
func (es *EvasionSystem) Update(s *game.State, diff float64) {
	if s.Stage < game.StageEscaped {
		return
	}
	s.EvasionPoints += rules.EvasionGen(s) * diff
	s.TimeSinceEscape += diff

	tired := rules.Exhausted(s)
	if tired {
		es.say(s, events.EventTypeFatigue, "You got too tired and then the police found you...")
	}
	if rules.EvadedPercent(s) <= 0 || tired {
		es.Reset(s)
	}
}

// Reset awards experience and wipes the run. Permanent upgrades survive.
func (es *EvasionSystem) Reset(s *game.State) {
	es.say(s, events.EventTypeEvasionReset, "The police caught up to you and sent you back to jail again. :( Better luck next time...")

	gain := rules.ExperienceGain(s)
	s.Experience += gain
	s.ResetTimes++
	s.ResetRun()
	s.Transient.Door.Close()
	s.Transient.Pin.Close()
	s.Transient.Particles = nil
	s.Transient.ParticleTimer = 0

	es.metrics.RecordEvasionReset()
	es.logger.Event("EVASION_RESET", "player", fmt.Sprintf("reset #%d, +%.3g experience", s.ResetTimes, gain))
}
