package rules

import (
	"math"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
)

// cashPenaltyFloor is the passive cash rate above which evasion speeds up.
const cashPenaltyFloor = 1e4

// CashPenalty is sqrt(passiveCash/1e4) once passive cash reaches 1e4, else 1.
func CashPenalty(s *game.State) float64 {
	cash := PassiveCash(s)
	if cash < cashPenaltyFloor {
		return 1
	}
	return math.Sqrt(cash / cashPenaltyFloor)
}

// EvasionGen is the per-second rate at which the police close in. It grows
// with the time since the escape and doubles for every full 30 seconds.
func EvasionGen(s *game.State) float64 {
	d := s.TimeSinceEscape
	gen := d * math.Pow(2, math.Floor(d/30))
	gen /= math.Pow(2, float64(s.Level(catalog.UpgPoliceBribes)))
	gen *= ActionMult(SelectedAction(s), catalog.ResEvasion)
	gen /= math.Pow(2, float64(s.Level(catalog.UpgSneaky)))
	gen *= CashPenalty(s)
	return Finite(gen, math.MaxFloat64)
}

// MaxEvaded is the evaded fraction at the start of a run.
func MaxEvaded(s *game.State) float64 {
	return 1 + 0.1*float64(s.Level(catalog.UpgSneakier))
}

// MaxEvasionPoints is the cap of the evasion pool.
func MaxEvasionPoints(s *game.State) float64 {
	return math.Pow(MaxEvaded(s), 4) * 1e4
}

// EvasionHeadroom is the part of the pool not yet consumed.
func EvasionHeadroom(s *game.State) float64 {
	return math.Max(MaxEvasionPoints(s)-s.EvasionPoints, 0)
}

// EvadedPercent is the displayed evaded fraction; reaching 0 means capture.
func EvadedPercent(s *game.State) float64 {
	return math.Pow(EvasionHeadroom(s), 0.25) / 10
}

// Exhausted reports the fatigue capture condition: every bit of raw energy
// converted and none left.
func Exhausted(s *game.State) bool {
	return s.EnergySpent >= RawEnergy(s) && s.Energy == 0
}

// ExperienceGain is the experience an evasion reset awards. It grows with
// total cash, the Experienced upgrade and owned strategies, and is zero
// until the first strategy is earned.
func ExperienceGain(s *game.State) float64 {
	gain := pow(s.TotalCash, 0.6)
	gain *= math.Pow(2, float64(s.Level(catalog.UpgExperienced)))
	gain *= math.Sqrt(math.Max(s.Strategies, 0))
	return Finite(gain, math.MaxFloat64)
}
