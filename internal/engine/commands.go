package engine

import (
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
)

// CommandType names an inbound player command.
type CommandType string

const (
	CmdBegin             CommandType = "BEGIN"
	CmdTogglePause       CommandType = "TOGGLE_PAUSE"
	CmdStartAction       CommandType = "START_ACTION"
	CmdPurchaseUpgrade   CommandType = "PURCHASE_UPGRADE"
	CmdHireLawyer        CommandType = "HIRE_LAWYER"
	CmdBuyMaxLawyers     CommandType = "BUY_MAX_LAWYERS"
	CmdChangeSize        CommandType = "CHANGE_STRATEGY_SIZE"
	CmdBeginTrial        CommandType = "BEGIN_TRIAL"
	CmdToggleAuto        CommandType = "TOGGLE_AUTO"
	CmdToggleAutoLawyers CommandType = "TOGGLE_AUTO_LAWYERS"
	CmdReroll            CommandType = "REROLL"
	CmdClickNode         CommandType = "CLICK_NODE"
	CmdCollectEvidence   CommandType = "COLLECT_EVIDENCE"
	CmdPryDoor           CommandType = "PRY_DOOR"
	CmdSubmitPin         CommandType = "SUBMIT_PIN"
	CmdQuitPuzzle        CommandType = "QUIT_PUZZLE"
	CmdEvasionReset      CommandType = "EVASION_RESET"
	CmdHardReset         CommandType = "HARD_RESET"
	CmdImport            CommandType = "IMPORT"
)

// Auto flag kinds for CmdToggleAuto.
const (
	AutoKindAction  = "action"
	AutoKindUpgrade = "upgrade"
)

// Command is one inbound player command. ID carries an action or upgrade
// id, Value a tier, size delta, node, PIN or particle index, and Data an
// encoded save.
type Command struct {
	Type  CommandType `json:"type"`
	ID    string      `json:"id,omitempty"`
	Kind  string      `json:"kind,omitempty"`
	Value int         `json:"value,omitempty"`
	Data  string      `json:"data,omitempty"`
}

// Apply dispatches a command. Rejected commands are no-ops and return false.
func (e *Engine) Apply(cmd Command) bool {
	switch cmd.Type {
	case CmdBegin:
		return e.Begin()
	case CmdTogglePause:
		return e.TogglePause()
	case CmdStartAction:
		return e.StartAction(catalog.ActionID(cmd.ID))
	case CmdPurchaseUpgrade:
		return e.PurchaseUpgrade(catalog.UpgradeID(cmd.ID))
	case CmdHireLawyer:
		return e.HireLawyer(cmd.Value)
	case CmdBuyMaxLawyers:
		return e.BuyMaxLawyers() > 0
	case CmdChangeSize:
		return e.ChangeStrategySize(cmd.Value)
	case CmdBeginTrial:
		return e.BeginTrial()
	case CmdToggleAuto:
		return e.ToggleAuto(cmd.Kind, cmd.ID)
	case CmdToggleAutoLawyers:
		return e.ToggleAutoLawyers()
	case CmdReroll:
		return e.Reroll()
	case CmdClickNode:
		return e.ClickNode(cmd.Value)
	case CmdCollectEvidence:
		return e.CollectEvidence(cmd.Value)
	case CmdPryDoor:
		return e.PryDoor()
	case CmdSubmitPin:
		return e.SubmitPin(cmd.Value)
	case CmdQuitPuzzle:
		return e.QuitPuzzle()
	case CmdEvasionReset:
		return e.EvasionReset()
	case CmdHardReset:
		e.HardReset()
		return true
	case CmdImport:
		return e.Import(cmd.Data) == nil
	}
	return false
}

func (e *Engine) locked(fn func(s *game.State) bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.state)
}

// Begin starts the game clock.
func (e *Engine) Begin() bool {
	return e.locked(func(s *game.State) bool {
		if s.Started {
			return false
		}
		s.Started = true
		s.LastTick = e.clock().UnixMilli()
		e.eventLog.Push(events.EventTypeGameStarted, "You'll need to look for an exit...", s.Playtime)
		e.logger.Event("GAME_STARTED", "player", "")
		return true
	})
}

// TogglePause flips the pause switch. Pausing has no effect once any
// evidence has been collected.
func (e *Engine) TogglePause() bool {
	return e.locked(func(s *game.State) bool {
		s.Transient.Paused = !s.Transient.Paused
		return true
	})
}

// StartAction selects an action; a no-op while another one runs.
func (e *Engine) StartAction(id catalog.ActionID) bool {
	return e.locked(func(s *game.State) bool {
		return e.actions.Start(s, id)
	})
}

// PurchaseUpgrade buys one level of an upgrade.
func (e *Engine) PurchaseUpgrade(id catalog.UpgradeID) bool {
	return e.locked(func(s *game.State) bool {
		u, ok := catalog.GetUpgrade(id)
		return ok && Purchase(s, u)
	})
}

// HireLawyer hires one lawyer of a tier.
func (e *Engine) HireLawyer(tier int) bool {
	return e.locked(func(s *game.State) bool {
		return s.Stage >= game.StageLawyers && e.lawyers.Hire(s, tier)
	})
}

// BuyMaxLawyers hires lawyers until none is affordable.
func (e *Engine) BuyMaxLawyers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Stage < game.StageLawyers {
		return 0
	}
	return e.lawyers.BuyMax(e.state)
}

// ChangeStrategySize moves the size of future graphs by delta.
func (e *Engine) ChangeStrategySize(delta int) bool {
	return e.locked(func(s *game.State) bool {
		return e.strategy.Resize(s, delta)
	})
}

// BeginTrial starts the trial.
func (e *Engine) BeginTrial() bool {
	return e.locked(func(s *game.State) bool {
		return e.trial.Begin(s)
	})
}

// ToggleAuto flips the automation flag of an action or upgrade.
func (e *Engine) ToggleAuto(kind, id string) bool {
	return e.locked(func(s *game.State) bool {
		switch kind {
		case AutoKindAction:
			if _, ok := catalog.GetAction(catalog.ActionID(id)); ok {
				aid := catalog.ActionID(id)
				s.Auto.Actions[aid] = !s.Auto.Actions[aid]
				return true
			}
		case AutoKindUpgrade:
			if _, ok := catalog.GetUpgrade(catalog.UpgradeID(id)); ok {
				uid := catalog.UpgradeID(id)
				s.Auto.Upgrades[uid] = !s.Auto.Upgrades[uid]
				return true
			}
		}
		return false
	})
}

// ToggleAutoLawyers flips the auto-lawyers switch.
func (e *Engine) ToggleAutoLawyers() bool {
	return e.locked(func(s *game.State) bool {
		s.AutoLawyers = !s.AutoLawyers
		return true
	})
}

// Reroll replaces the strategy graph once the cooldown is full.
func (e *Engine) Reroll() bool {
	return e.locked(func(s *game.State) bool {
		return e.strategy.Reroll(s)
	})
}

// ClickNode moves the manual strategy cursor.
func (e *Engine) ClickNode(node int) bool {
	return e.locked(func(s *game.State) bool {
		return e.strategy.Click(s, node)
	})
}

// CollectEvidence picks up an evidence particle.
func (e *Engine) CollectEvidence(idx int) bool {
	return e.locked(func(s *game.State) bool {
		return e.trial.Collect(s, idx)
	})
}

// PryDoor attempts one door pry.
func (e *Engine) PryDoor() bool {
	return e.locked(func(s *game.State) bool {
		return e.puzzles.Pry(s)
	})
}

// SubmitPin submits a PIN guess.
func (e *Engine) SubmitPin(code int) bool {
	return e.locked(func(s *game.State) bool {
		return e.puzzles.Guess(s, code)
	})
}

// QuitPuzzle abandons any open puzzle.
func (e *Engine) QuitPuzzle() bool {
	return e.locked(func(s *game.State) bool {
		return e.puzzles.Quit(s)
	})
}

// EvasionReset lets the player turn themselves in early.
func (e *Engine) EvasionReset() bool {
	return e.locked(func(s *game.State) bool {
		if s.Stage < game.StageEscaped {
			return false
		}
		e.evasion.Reset(s)
		return true
	})
}

// HardReset reinstates a brand-new game.
func (e *Engine) HardReset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	paused := e.state.Transient.Paused
	e.state = game.NewState(e.clock().UnixMilli())
	e.state.Transient.Paused = paused
	e.strategy.Regenerate(e.state)
	e.eventLog.Push(events.EventTypeHardReset, "Your progress was wiped.", 0)
	e.logger.Event("HARD_RESET", "player", "")
}
