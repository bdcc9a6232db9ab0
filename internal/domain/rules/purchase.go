package rules

import (
	"math"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
)

// Available reads a resource for requirement checks, including derived ones.
func Available(s *game.State, res catalog.Resource) float64 {
	if res == catalog.ResFreeEnergy {
		return FreeEnergy(s)
	}
	return s.Stored(res)
}

// Visible evaluates an unlock condition.
func Visible(s *game.State, v catalog.Visibility) bool {
	if !v.State.Contains(s.Stage) {
		return false
	}
	if v.Owns != "" && !s.Owns(v.Owns) {
		return false
	}
	if v.Flag != catalog.FlagNone && !s.Flag(v.Flag) {
		return false
	}
	if v.Unflag != catalog.FlagNone && s.Flag(v.Unflag) {
		return false
	}
	return s.ResetTimes >= v.MinResets
}

// CanRun is the runnability predicate of an action: visible, requirements
// met, gate open, and every resource it drains still positive.
func CanRun(s *game.State, a *catalog.Action) bool {
	if a == nil || !Visible(s, a.Show) {
		return false
	}
	return Sustainable(s, a) && requirementsMet(s, a)
}

// Sustainable reports whether every resource the action drains is positive.
// A running action is interrupted as soon as this fails.
func Sustainable(s *game.State, a *catalog.Action) bool {
	for _, r := range a.Rates {
		if ActionRate(s, a, r.Resource) < 0 && s.Stored(r.Resource) <= 0 {
			return false
		}
	}
	return true
}

func requirementsMet(s *game.State, a *catalog.Action) bool {
	for _, req := range a.Requires {
		if Available(s, req.Resource) < req.Min {
			return false
		}
	}
	switch a.Gate {
	case catalog.GateNeedsRest:
		return s.Energy < EnergyCap(s) && s.EnergySpent < RawEnergy(s)
	}
	return true
}

// CostAt evaluates one cost curve at an upgrade level.
func CostAt(s *game.State, c catalog.Cost, level int) float64 {
	l := float64(level)
	switch c.Curve {
	case catalog.CurveGeometric:
		return c.Base * math.Pow(c.Growth, l)
	case catalog.CurveStepped:
		return c.Base * math.Pow(c.Growth, math.Floor(l/10))
	case catalog.CurveQuadratic:
		return c.Base + c.Growth*l*l
	case catalog.CurveThinking:
		return c.Base * math.Pow(l+1, 0.8) * math.Pow(c.Growth, l)
	case catalog.CurveDiscounted:
		return c.Base * math.Pow(c.Growth, l*(1-0.05*float64(s.Level(catalog.UpgCheapism))))
	}
	return c.Base
}

// UpgradeCosts returns the price of the next level of u.
func UpgradeCosts(s *game.State, u *catalog.Upgrade) []catalog.Amount {
	level := s.Level(u.ID)
	out := make([]catalog.Amount, len(u.Costs))
	for i, c := range u.Costs {
		out[i] = catalog.Amount{Resource: c.Resource, Value: CostAt(s, c, level)}
	}
	return out
}

// CanBuy is the purchasability predicate of an upgrade: category gate open,
// visible, below its cap and every cost affordable.
func CanBuy(s *game.State, u *catalog.Upgrade) bool {
	if u == nil {
		return false
	}
	switch u.Category {
	case catalog.CatCorp:
		if !s.Owns(catalog.UpgPersuasion) {
			return false
		}
	case catalog.CatItem:
		if s.Stage < game.StageItems {
			return false
		}
	case catalog.CatLawyer:
		if s.Stage < game.StageLawyers {
			return false
		}
	}
	if !Visible(s, u.Show) || s.Level(u.ID) >= u.Max {
		return false
	}
	for _, c := range UpgradeCosts(s, u) {
		if s.Stored(c.Resource) < c.Value {
			return false
		}
	}
	return true
}
