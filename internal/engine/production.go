package engine

import (
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
)

// ProductionSystem integrates the passive energy, cash and xp rates.
type ProductionSystem struct{}

// NewProductionSystem creates the production integrator.
func NewProductionSystem() *ProductionSystem {
	return &ProductionSystem{}
}

// Update advances the passive resources by diff seconds. Rates are read
// before any resource moves so the step is linear in diff.
func (ps *ProductionSystem) Update(s *game.State, diff float64) {
	energy := rules.PassiveEnergy(s)
	cash := rules.PassiveCash(s)
	xp := rules.PassiveXP(s)

	s.Energy = min(max(s.Energy+energy*diff, 0), rules.EnergyCap(s))
	s.Cash += cash * diff
	s.TotalCash += cash * diff
	s.XP += xp * diff
}
