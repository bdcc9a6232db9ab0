package engine

import (
	"math"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
)

// TrialSystem applies the trial decay to work and manages evidence.
type TrialSystem struct {
	systemDeps
}

// NewTrialSystem creates the trial subsystem.
func NewTrialSystem(deps systemDeps) *TrialSystem {
	return &TrialSystem{systemDeps: deps}
}

// Update spawns and ages evidence, then decays work by the nerf rate
// computed from the updated trial time.
func (ts *TrialSystem) Update(s *game.State, diff float64) {
	if !s.StartedTrial {
		return
	}
	t := &s.Transient
	s.TrialTime += diff
	fx := rules.Trial(s)

	// At most one spawn per tick, so a long absence does not flood the screen.
	t.ParticleTimer += diff
	if t.ParticleTimer >= fx.MakeTime {
		t.ParticleTimer = 0
		t.Particles = append(t.Particles, game.Particle{
			Left:   ts.rng.Float64(),
			Top:    ts.rng.Float64(),
			Rotate: ts.rng.Float64(),
		})
	}

	live := t.Particles[:0]
	for _, p := range t.Particles {
		p.Age += diff
		if p.Age < fx.DisappearTime {
			live = append(live, p)
		}
	}
	t.Particles = live

	// The nerf overflows within minutes of a trial; both sides stay finite
	// so the state can still be saved.
	nerf := rules.Finite(math.Pow(fx.Nerf, diff), math.MaxFloat64)
	s.Work = rules.Finite(s.Work/nerf, 0)
	s.TotalNerf = rules.Finite(s.TotalNerf*nerf, math.MaxFloat64)
}

// Begin starts the trial.
func (ts *TrialSystem) Begin(s *game.State) bool {
	if !rules.CanBeginTrial(s) {
		return false
	}
	s.StartedTrial = true
	ts.say(s, events.EventTypeTrialStarted, "Your trial has begun. Collect evidence before it disappears!")
	ts.logger.Event("TRIAL_STARTED", "player", "")
	return true
}

// Collect picks up the particle at idx.
func (ts *TrialSystem) Collect(s *game.State, idx int) bool {
	t := &s.Transient
	if !s.StartedTrial || idx < 0 || idx >= len(t.Particles) {
		return false
	}
	t.Particles = append(t.Particles[:idx], t.Particles[idx+1:]...)
	s.Evidence += rules.Trial(s).BuffEvidence
	return true
}
