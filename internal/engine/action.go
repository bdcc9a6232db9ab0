package engine

import (
	"fmt"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
)

// ActionSystem is the single-active-action state machine.
type ActionSystem struct {
	systemDeps
	puzzles *PuzzleSystem
}

// NewActionSystem creates the action machine.
func NewActionSystem(deps systemDeps, puzzles *PuzzleSystem) *ActionSystem {
	return &ActionSystem{systemDeps: deps, puzzles: puzzles}
}

// Start selects action id if the machine is idle and the action can run.
func (as *ActionSystem) Start(s *game.State, id catalog.ActionID) bool {
	if !s.Idle() {
		return false
	}
	a, ok := catalog.GetAction(id)
	if !ok || !rules.CanRun(s, a) {
		return false
	}
	s.Transient.Selected = a.ID
	as.begin(s, a)
	return true
}

// begin runs the one-time start effect of a newly selected action.
func (as *ActionSystem) begin(s *game.State, a *catalog.Action) {
	switch a.Start {
	case catalog.StartDoorPuzzle:
		as.puzzles.OpenDoor(s)
	case catalog.StartPinPuzzle:
		as.puzzles.OpenPin(s)
	}
}

// Update interrupts, advances or completes the running action.
func (as *ActionSystem) Update(s *game.State, diff float64) {
	if s.Idle() {
		return
	}

	a := rules.SelectedAction(s)
	if a == nil || !rules.CanRun(s, a) {
		// Interrupted: progress is kept for a later restart but nothing is awarded.
		s.Transient.Selected = ""
		return
	}

	p := min(s.Transient.Progress[a.ID]+rules.ActionSpeed(s)*diff, a.Duration)
	s.Transient.Progress[a.ID] = p
	if p < a.Duration {
		return
	}

	as.finish(s, a)
	s.Transient.Progress[a.ID] = 0
	s.Transient.Selected = ""
}

// finish is the central dispatcher of completion effects.
func (as *ActionSystem) finish(s *game.State, a *catalog.Action) {
	f := a.Finish
	switch f.Kind {
	case catalog.FinishProgress:
		for _, c := range f.Consume {
			s.Add(c.Resource, -c.Value)
		}
		if f.AdvanceState {
			s.Stage++
		}

	case catalog.FinishFirstRest:
		s.Energy = 100
		s.Stage++

	case catalog.FinishScavenge:
		base := rules.ScavengeBase(s, f.Yield)
		amount := base + as.rng.Float64()*base
		s.Add(f.Yield, amount)
		switch {
		case f.Yield == catalog.ResCash:
			as.say(s, events.EventTypeScavenge, fmt.Sprintf("You got $%.2f.", amount))
		case amount == 0:
			as.say(s, events.EventTypeScavenge, "You didn't find anything")
		default:
			as.say(s, events.EventTypeScavenge, fmt.Sprintf("You found %.2f junk.", amount))
		}

	case catalog.FinishMeal:
		s.Meals++

	case catalog.FinishRest:
		spend := rules.RestAmount(s)
		s.Energy += spend
		s.EnergySpent += spend

	case catalog.FinishUnlockResearch:
		s.ResearchUnlocked = true
	}

	if f.Message != "" {
		as.say(s, events.EventTypeActionFinished, f.Message)
	}
	as.logger.Event("ACTION_FINISHED", string(a.ID), fmt.Sprintf("stage=%d", s.Stage))
}
