package rules

import (
	"math"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/strategy"
)

// Trial constants: work needed to begin, and the progress span in orders of
// magnitude past that point.
const (
	TrialStartWork       = catalog.Year * 1e20
	TrialRequire         = 1e10
	TrialStartStrategies = 3e6
)

// LawyerCost is the cash price of the next hire in a tier.
func LawyerCost(s *game.State, tier int) float64 {
	t := catalog.LawyerTiers[tier]
	return t.BaseCost * math.Pow(t.Growth, float64(s.Lawyers[tier].Bought))
}

// CanHire reports whether one lawyer of the tier is affordable.
func CanHire(s *game.State, tier int) bool {
	if tier < 0 || tier >= len(catalog.LawyerTiers) || tier >= len(s.Lawyers) {
		return false
	}
	return s.Cash >= LawyerCost(s, tier) && s.Energy >= catalog.LawyerEnergyCost(tier)
}

// StrategyEffect is the lawyer boost from owned strategies.
func StrategyEffect(s *game.State) float64 {
	st := math.Max(s.Strategies, 0)
	return pow(math.Log10(st+1)+1, 0.8) * pow(st/2+1, 0.4)
}

// LawyerMulti is the per-lawyer output of a tier. Tier 0 is divided by the
// accumulated trial nerf.
func LawyerMulti(s *game.State, tier int) float64 {
	multi := 1.0
	if tier < len(s.Lawyers)-1 {
		multi *= 1 + s.Lawyers[tier+1].Produced
	}
	if tier == 0 {
		if s.TotalNerf > 0 {
			multi /= s.TotalNerf
		}
		multi *= math.Pow(3, float64(s.Level(catalog.UpgWorkExperience)))
	}
	multi /= float64(tier + 1)
	multi *= StrategyEffect(s)
	multi *= math.Pow(1.15, float64(s.Lawyers[tier].Bought))
	return multi
}

// StrategyDensity is the expected edges per node of new graphs.
func StrategyDensity(s *game.State) float64 {
	return 0.8 + 0.2*float64(s.Level(catalog.UpgQuality))
}

// RerollTime is the cooldown before a graph may be rerolled.
func RerollTime(s *game.State) float64 {
	return 5 * math.Pow(0.9, float64(s.Level(catalog.UpgRerollSpeed)))
}

// MaxStrategySize is the largest graph side the player may choose.
func MaxStrategySize(s *game.State) int {
	return strategy.MinSize + s.Level(catalog.UpgComplexity)
}

// AttemptsPerSecond is the auto-solver's step rate.
func AttemptsPerSecond(s *game.State) float64 {
	return float64(s.Level(catalog.UpgThinking)) * math.Pow(1.15, float64(s.Level(catalog.UpgAttemptSpeed)))
}

// StrategyGain is the payout for solving a graph of the given side.
func StrategyGain(s *game.State, size int) float64 {
	gain := strategy.Reward(size)
	gain *= Trial(s).BuffLawyers
	gain *= math.Pow(2, float64(s.Level(catalog.UpgBetterStrategies)))
	return Finite(gain, math.MaxFloat64)
}

// TrialEffects are the evidence-driven trial modifiers.
type TrialEffects struct {
	Nerf          float64 // per-second divisor of work
	BuffLawyers   float64 // strategy payout multiplier
	BuffEvidence  float64 // evidence per collected particle
	MakeTime      float64 // seconds between particle spawns
	DisappearTime float64 // particle lifetime
}

// Trial computes the trial modifiers from trial time and evidence.
func Trial(s *game.State) TrialEffects {
	e := math.Max(s.Evidence, 0)
	lg := math.Log10(e+1) + 1
	return TrialEffects{
		Nerf:          math.Sqrt(2*math.Max(s.TrialTime, 0) + 1),
		BuffLawyers:   (e + 1) * pow(1.1, pow(e, 0.6)),
		BuffEvidence:  pow(lg, 3) * pow(e+1, 1.0/3),
		MakeTime:      4 / pow(lg, 1.4),
		DisappearTime: 3 / pow(lg, 0.4),
	}
}

// TrialProgress is how far the trial is won, in [0, 1].
func TrialProgress(s *game.State) float64 {
	return clamp(SafeLog10(s.Work/TrialStartWork)/SafeLog10(TrialRequire), 0, 1)
}

// CanBeginTrial reports whether the trial may be started.
func CanBeginTrial(s *game.State) bool {
	return !s.StartedTrial && s.Work >= TrialStartWork && s.Strategies >= TrialStartStrategies
}
