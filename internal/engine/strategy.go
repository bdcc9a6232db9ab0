package engine

import (
	"fmt"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/strategy"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
)

// StrategySystem drives the strategy board: the reroll cooldown, the
// budgeted depth-first auto-solver and manual traversal.
type StrategySystem struct {
	systemDeps
}

// NewStrategySystem creates the strategy board driver.
func NewStrategySystem(deps systemDeps) *StrategySystem {
	return &StrategySystem{systemDeps: deps}
}

// Regenerate draws a fresh graph at the current strategy size.
func (ss *StrategySystem) Regenerate(s *game.State) {
	g := strategy.Generate(s.StrategySize, rules.StrategyDensity(s), ss.rng)
	s.Transient.Board = strategy.NewBoard(g)
	ss.metrics.RecordRegeneration()
}

// Update runs the auto-solver for the whole steps this tick's budget
// allows, then the auto-restart rule.
func (ss *StrategySystem) Update(s *game.State, diff float64) {
	if !s.Owns(catalog.UpgStrategizing) {
		return
	}
	if s.Transient.Board == nil {
		ss.Regenerate(s)
	}
	t := &s.Transient
	t.Reroll = min(t.Reroll+diff, rules.RerollTime(s))

	n := t.Throttle.Take(diff, rules.AttemptsPerSecond(s))
	for i := 0; i < n && !t.Board.Exhausted(); i++ {
		if _, res := t.Board.Step(); res == strategy.StepTerminal {
			ss.solved(s, t.Board.Graph.Size)
		}
	}

	if t.Reroll >= rules.RerollTime(s) && t.Board.Exhausted() && s.Owns(catalog.UpgRestart) {
		ss.Regenerate(s)
		t.Reroll = 0
	}
}

// solved pays out a finished graph of the given side and replaces it.
func (ss *StrategySystem) solved(s *game.State, size int) {
	gain := rules.StrategyGain(s, size)
	s.Strategies += gain
	ss.Regenerate(s)
	ss.metrics.RecordStrategySolved()
	ss.say(s, events.EventTypeStrategySolved, fmt.Sprintf("You came up with a new strategy! (+%.3g)", gain))
	ss.logger.Event("STRATEGY_SOLVED", "board", fmt.Sprintf("size=%d gain=%.3g", size, gain))
}

// Reroll replaces the graph once the cooldown is full.
func (ss *StrategySystem) Reroll(s *game.State) bool {
	if !s.StrategiesUnlocked || s.Transient.Reroll < rules.RerollTime(s) {
		return false
	}
	ss.Regenerate(s)
	s.Transient.Reroll = 0
	return true
}

// Click moves the manual cursor to an adjacent node; reaching the terminal
// node pays out and replaces the graph.
func (ss *StrategySystem) Click(s *game.State, node int) bool {
	b := s.Transient.Board
	if !s.StrategiesUnlocked || b == nil {
		return false
	}
	moved, terminal := b.Move(node)
	if terminal {
		ss.solved(s, b.Graph.Size)
	}
	return moved
}

// Resize changes the size of future graphs by delta.
func (ss *StrategySystem) Resize(s *game.State, delta int) bool {
	next := s.StrategySize + delta
	if delta == 0 || next < strategy.MinSize || next > rules.MaxStrategySize(s) {
		return false
	}
	s.StrategySize = next
	return true
}
