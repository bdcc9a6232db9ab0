package engine

import (
	"math"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
)

// LawyerSystem produces work through the lawyer tiers and hires lawyers.
type LawyerSystem struct {
	systemDeps
}

// NewLawyerSystem creates the lawyer economy.
func NewLawyerSystem(deps systemDeps) *LawyerSystem {
	return &LawyerSystem{systemDeps: deps}
}

// Update lets every tier produce, top tier first, so each tier's multiplier
// reads the output of the tier above from before this tick.
func (ls *LawyerSystem) Update(s *game.State, diff float64) {
	if s.Stage < game.StageLawyers {
		return
	}
	for tier := len(s.Lawyers) - 1; tier >= 0; tier-- {
		prod := float64(s.Lawyers[tier].Bought) * rules.LawyerMulti(s, tier) * diff
		prod = rules.Finite(prod, 0)
		if tier > 0 {
			s.Lawyers[tier].Produced = rules.Finite(s.Lawyers[tier].Produced+prod, math.MaxFloat64)
		} else {
			s.Work = rules.Finite(s.Work+prod, math.MaxFloat64)
		}
	}
}

// AutoHire runs BuyMax when auto-lawyers is owned and switched on.
func (ls *LawyerSystem) AutoHire(s *game.State) {
	if s.AutoLawyers && s.Owns(catalog.UpgAutoLawyers) && s.Stage >= game.StageLawyers {
		ls.BuyMax(s)
	}
}

// Hire buys one lawyer of the tier.
func (ls *LawyerSystem) Hire(s *game.State, tier int) bool {
	if !rules.CanHire(s, tier) {
		return false
	}
	s.Cash -= rules.LawyerCost(s, tier)
	s.Energy -= catalog.LawyerEnergyCost(tier)
	s.Lawyers[tier].Bought++
	return true
}

// BuyMax repeatedly hires the cheapest affordable tier. It returns the
// number of lawyers hired.
func (ls *LawyerSystem) BuyMax(s *game.State) int {
	hired := 0
	for {
		best, cost := -1, math.Inf(1)
		for tier := range s.Lawyers {
			if c := rules.LawyerCost(s, tier); rules.CanHire(s, tier) && c < cost {
				best, cost = tier, c
			}
		}
		if best < 0 || !ls.Hire(s, best) {
			return hired
		}
		hired++
	}
}
