package engine

import (
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
)

// PuzzleSystem runs the door-pry and PIN puzzles that gate the two escapes.
type PuzzleSystem struct {
	systemDeps
}

// NewPuzzleSystem creates the puzzle subsystem.
func NewPuzzleSystem(deps systemDeps) *PuzzleSystem {
	return &PuzzleSystem{systemDeps: deps}
}

// Update sweeps the door marker.
func (ps *PuzzleSystem) Update(s *game.State, diff float64) {
	s.Transient.Door.Advance(diff)
}

// OpenDoor arms the door puzzle, or solves it at once if it was solved in
// an earlier run.
func (ps *PuzzleSystem) OpenDoor(s *game.State) {
	if s.PuzzlesCompleted[0] {
		ps.say(s, events.EventTypeStory, "The door is still weak from the time you tried to pry it open, meaning it wasn't too difficult getting out of there.")
		ps.solveDoor(s)
		return
	}
	s.Transient.Door.Arm(ps.rng)
}

// OpenPin arms the PIN puzzle, or solves it at once if it was solved in an
// earlier run.
func (ps *PuzzleSystem) OpenPin(s *game.State) {
	if s.PuzzlesCompleted[1] {
		ps.say(s, events.EventTypeStory, "You remembered your PIN code this time.")
		ps.solvePin(s)
		return
	}
	s.Transient.Pin.Arm(ps.rng)
}

// Pry attempts one door pry.
func (ps *PuzzleSystem) Pry(s *game.State) bool {
	d := &s.Transient.Door
	if !d.Attempted {
		return false
	}
	hit, solved := d.Pry(ps.rng)
	switch {
	case solved:
		ps.solveDoor(s)
	case !hit:
		ps.say(s, events.EventTypePuzzleFailed, "The door didn't budge and you lost your grip.")
	}
	return true
}

// Guess submits a PIN guess.
func (ps *PuzzleSystem) Guess(s *game.State, code int) bool {
	p := &s.Transient.Pin
	accepted, solved := p.Guess(code)
	switch {
	case solved:
		ps.solvePin(s)
	case accepted && !p.Attempted:
		ps.say(s, events.EventTypePuzzleFailed, "You ran out of attempts at the PIN pad.")
	}
	return accepted
}

// Quit abandons any open puzzle.
func (ps *PuzzleSystem) Quit(s *game.State) bool {
	t := &s.Transient
	if !t.Door.Attempted && !t.Pin.Attempted {
		return false
	}
	t.Door.Close()
	t.Pin.Close()
	return true
}

func (ps *PuzzleSystem) solveDoor(s *game.State) {
	s.PuzzlesCompleted[0] = true
	s.Stage++
	s.ClearSelection()
	ps.say(s, events.EventTypePuzzleSolved, "You escaped the jail! Better get going though, they'll be looking for you soon.")
	ps.logger.Event("PUZZLE_SOLVED", "door", "")
}

func (ps *PuzzleSystem) solvePin(s *game.State) {
	s.PuzzlesCompleted[1] = true
	s.Stage++
	s.ClearSelection()
	s.LawyersUnlocked = true
	ps.say(s, events.EventTypePuzzleSolved, "You got your PIN number correct! When you landed, you saw an advertisement for lawyers. Maybe they could help you?")
	ps.logger.Event("PUZZLE_SOLVED", "pin", "")
}
