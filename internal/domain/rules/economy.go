package rules

import (
	"math"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
)

// SelectedAction returns the running action, nil when idle.
func SelectedAction(s *game.State) *catalog.Action {
	if s.Idle() {
		return nil
	}
	a, ok := catalog.GetAction(s.Transient.Selected)
	if !ok {
		return nil
	}
	return a
}

// ActionRate is the per-second effect of action a on res at current levels.
func ActionRate(s *game.State, a *catalog.Action, res catalog.Resource) float64 {
	if a == nil {
		return 0
	}
	for _, r := range a.Rates {
		if r.Resource != res {
			continue
		}
		v := r.Base
		if r.Scaling == catalog.ScaleJobBonus {
			v *= math.Pow(r.Growth, float64(s.Level(catalog.UpgJobBonus)))
			if s.Owns(catalog.UpgNewMattress) {
				v *= 3
			}
		}
		return v
	}
	return 0
}

// ActionMult is the multiplier action a applies to res, 1 when absent.
func ActionMult(a *catalog.Action, res catalog.Resource) float64 {
	if a == nil {
		return 1
	}
	for _, m := range a.Mults {
		if m.Resource == res {
			return m.Factor
		}
	}
	return 1
}

// SelfBoost multiplies the player's own cash, xp and scavenging output.
func SelfBoost(s *game.State) float64 {
	boost := math.Pow(1.15, float64(s.Level(catalog.UpgBooks)))
	if s.Owns(catalog.UpgWornMattress) {
		boost *= 1.5
	}
	if s.Owns(catalog.UpgNewMattress) {
		boost *= 2
	}
	return boost
}

// WorkMulti is the worker boost from accumulated lawyer work.
func WorkMulti(s *game.State) float64 {
	prod := s.Work + 1
	return pow(prod, 0.05) * pow(SafeLog10(prod)+1, 0.8)
}

// WorkerProduction is the cash and xp each convinced worker yields per second.
func WorkerProduction(s *game.State) float64 {
	bonus := math.Pow(1.15, float64(s.Level(catalog.UpgProductivity)))
	bonus *= math.Pow(1.15, float64(s.Level(catalog.UpgProductivity2)))
	bonus *= math.Pow(1+0.01*float64(s.Level(catalog.UpgMultiplicative)), float64(s.Level(catalog.UpgConvince)))
	bonus *= WorkMulti(s)
	return 30 * bonus
}

// PassiveCash is cash gained per second.
func PassiveCash(s *game.State) float64 {
	a := SelectedAction(s)
	cash := ActionRate(s, a, catalog.ResCash) * ActionMult(a, catalog.ResCash)
	cash += float64(s.Level(catalog.UpgConvince)) * WorkerProduction(s)
	cash *= SelfBoost(s)
	cash *= math.Pow(1.25, float64(s.Level(catalog.UpgLearning)))
	return Finite(cash, 0)
}

// PassiveXP is xp gained per second.
func PassiveXP(s *game.State) float64 {
	a := SelectedAction(s)
	xp := ActionRate(s, a, catalog.ResXP)
	xp += float64(s.Level(catalog.UpgConvince)) * WorkerProduction(s)
	xp *= SelfBoost(s)
	return Finite(xp, 0)
}

// PassiveEnergy is energy gained per second, usually negative.
func PassiveEnergy(s *game.State) float64 {
	a := SelectedAction(s)
	return Finite(ActionRate(s, a, catalog.ResEnergy)*ActionMult(a, catalog.ResEnergy), 0)
}

// EnergyCap is the most energy that can be held at once.
func EnergyCap(s *game.State) float64 {
	return 100 + 40*float64(s.Level(catalog.UpgEnergized))
}

// RawEnergy is the total energy earned from meals and candy, softcapped
// beyond 2000 and again beyond 5000.
func RawEnergy(s *game.State) float64 {
	base := float64(s.Meals)*100 + float64(s.Level(catalog.UpgCandyBars))*20
	base *= math.Pow(1.1, float64(s.Level(catalog.UpgJars)))
	if base > 2000 {
		base = 2000 + (base-2000)/5
	}
	if base > 5000 {
		base = 5000 + (base-5000)/10
	}
	return base
}

// FreeEnergy is the part of RawEnergy not yet converted by resting.
func FreeEnergy(s *game.State) float64 {
	return RawEnergy(s) - s.EnergySpent
}

// ActionSpeed scales how fast action progress accrues.
func ActionSpeed(s *game.State) float64 {
	return 1 + 0.5*float64(s.Level(catalog.UpgSpeed))
}

// RestAmount is the energy one finished rest converts.
func RestAmount(s *game.State) float64 {
	return math.Max(math.Min(FreeEnergy(s), EnergyCap(s)-s.Energy), 0)
}

// ScavengeBase is the lower bound of a scavenging action's yield; the
// yield is drawn from [base, 2*base).
func ScavengeBase(s *game.State, res catalog.Resource) float64 {
	switch res {
	case catalog.ResCash:
		return float64(s.Level(catalog.UpgToolmaking)+1) * SelfBoost(s) / 10
	case catalog.ResJunk:
		return float64(s.Level(catalog.UpgShovel)+1) * SelfBoost(s) *
			math.Pow(1.2, float64(s.Level(catalog.UpgMetalDetectors)))
	}
	return 0
}
