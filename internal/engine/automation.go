package engine

import (
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
)

// AutomationSystem owns the per-tick rules that act on the player's behalf:
// action selection, unlock flags, the auto-purchase sweep and auto-rest.
type AutomationSystem struct {
	systemDeps
	actions *ActionSystem
}

// NewAutomationSystem creates the automation rules.
func NewAutomationSystem(deps systemDeps, actions *ActionSystem) *AutomationSystem {
	return &AutomationSystem{systemDeps: deps, actions: actions}
}

// UnlockFlags latches the flags implied by owned upgrades.
func (au *AutomationSystem) UnlockFlags(s *game.State) {
	if s.Owns(catalog.UpgPersuasion) {
		s.CorporationUnlocked = true
	}
	if s.Owns(catalog.UpgStrategizing) {
		s.StrategiesUnlocked = true
	}
}

// SelectAction starts the latest runnable action flagged for automation.
// Later actions win ties.
func (au *AutomationSystem) SelectAction(s *game.State) {
	if !s.Idle() || !s.Owns(catalog.UpgAutomated) {
		return
	}
	for i := len(catalog.Actions) - 1; i >= 0; i-- {
		a := &catalog.Actions[i]
		if s.Auto.Actions[a.ID] && rules.CanRun(s, a) {
			s.Transient.Selected = a.ID
			au.actions.begin(s, a)
			return
		}
	}
}

// BuyUpgrades sweeps the catalog from the end and buys every flagged,
// purchasable upgrade once.
func (au *AutomationSystem) BuyUpgrades(s *game.State) {
	if !s.Owns(catalog.UpgAutomated) {
		return
	}
	for i := len(catalog.Upgrades) - 1; i >= 0; i-- {
		u := &catalog.Upgrades[i]
		if s.Auto.Upgrades[u.ID] {
			Purchase(s, u)
		}
	}
}

// AutoRest forces the Rest action once energy runs out while the Floor is
// owned. The action machine drops it next tick if it cannot run.
func (au *AutomationSystem) AutoRest(s *game.State) {
	if s.Owns(catalog.UpgFloor) && s.Energy <= 0 {
		s.Transient.Selected = catalog.ActRest
	}
}

// Purchase buys one level of u if it is purchasable.
func Purchase(s *game.State, u *catalog.Upgrade) bool {
	if !rules.CanBuy(s, u) {
		return false
	}
	for _, c := range rules.UpgradeCosts(s, u) {
		s.Add(c.Resource, -c.Value)
	}
	s.Upgrades[u.ID]++
	return true
}
