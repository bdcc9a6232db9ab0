package rules

import (
	"math"
	"testing"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestSafeLog10ClampsBadInputs(t *testing.T) {
	for _, x := range []float64{0, -5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := SafeLog10(x); got != 0 {
			t.Errorf("SafeLog10(%v) = %v, want 0", x, got)
		}
	}
	if got := SafeLog10(1000); !approx(got, 3) {
		t.Errorf("SafeLog10(1000) = %v", got)
	}
}

func TestRawEnergySoftcaps(t *testing.T) {
	s := game.NewState(0)
	cases := []struct {
		meals int
		want  float64
	}{
		{5, 500},
		{20, 2000},
		{30, 2200},  // 2000 + 1000/5
		{270, 5200}, // 27000 -> 7000 -> 5200
	}
	for _, tc := range cases {
		s.Meals = tc.meals
		if got := RawEnergy(s); !approx(got, tc.want) {
			t.Errorf("meals=%d: RawEnergy = %v, want %v", tc.meals, got, tc.want)
		}
	}
}

func TestCostCurves(t *testing.T) {
	s := game.NewState(0)
	cases := []struct {
		name  string
		cost  catalog.Cost
		level int
		want  float64
	}{
		{"flat", catalog.Cost{Curve: catalog.CurveFlat, Base: 100}, 3, 100},
		{"geometric", catalog.Cost{Curve: catalog.CurveGeometric, Base: 10, Growth: 4}, 2, 160},
		{"stepped", catalog.Cost{Curve: catalog.CurveStepped, Base: 0.2, Growth: 2}, 25, 0.8},
		{"quadratic", catalog.Cost{Curve: catalog.CurveQuadratic, Base: 10, Growth: 2}, 3, 28},
		{"thinking", catalog.Cost{Curve: catalog.CurveThinking, Base: 2, Growth: 1.3}, 0, 2},
		{"discounted", catalog.Cost{Curve: catalog.CurveDiscounted, Base: 10000, Growth: 1.15}, 1, 11500},
	}
	for _, tc := range cases {
		if got := CostAt(s, tc.cost, tc.level); !approx(got, tc.want) {
			t.Errorf("%s: CostAt = %v, want %v", tc.name, got, tc.want)
		}
	}

	s.Upgrades[catalog.UpgCheapism] = 4
	disc := catalog.Cost{Curve: catalog.CurveDiscounted, Base: 10000, Growth: 1.15}
	if got, want := CostAt(s, disc, 10), 10000*math.Pow(1.15, 8); !approx(got, want) {
		t.Errorf("cheapism discount: got %v, want %v", got, want)
	}
}

func TestCanBuyGates(t *testing.T) {
	s := game.NewState(0)
	floor, _ := catalog.GetUpgrade(catalog.UpgFloor)
	s.Cash = 1000

	if CanBuy(s, floor) {
		t.Fatal("items must not be buyable before stage 8")
	}
	s.Stage = game.StageItems
	if !CanBuy(s, floor) {
		t.Fatal("floor should be buyable at stage 8 with cash")
	}
	s.Upgrades[catalog.UpgFloor] = 1
	if CanBuy(s, floor) {
		t.Fatal("capped upgrade must not be buyable")
	}

	convince, _ := catalog.GetUpgrade(catalog.UpgConvince)
	s.Cash, s.XP = 1e9, 1e9
	if CanBuy(s, convince) {
		t.Fatal("corp upgrades require Persuasion")
	}
	s.Upgrades[catalog.UpgPersuasion] = 1
	if !CanBuy(s, convince) {
		t.Fatal("convince should be buyable with Persuasion")
	}
}

func TestCanRunRespectsDrains(t *testing.T) {
	s := game.NewState(0)
	s.Stage = 2
	work, _ := catalog.GetAction(catalog.ActJailWork)
	if CanRun(s, work) {
		t.Fatal("jail work drains energy and must not start at 0 energy")
	}
	s.Energy = 1
	if !CanRun(s, work) {
		t.Fatal("jail work should be runnable with energy")
	}
	s.Stage = 6
	if CanRun(s, work) {
		t.Fatal("jail work hidden after stage 5")
	}
}

func TestRestGate(t *testing.T) {
	s := game.NewState(0)
	s.Stage = 2
	rest, _ := catalog.GetAction(catalog.ActRest)
	if CanRun(s, rest) {
		t.Fatal("rest needs unspent raw energy")
	}
	s.Meals = 1
	if !CanRun(s, rest) {
		t.Fatal("rest should run with a meal eaten")
	}
	if got := RestAmount(s); got != 100 {
		t.Errorf("RestAmount = %v, want 100", got)
	}
	s.Energy = EnergyCap(s)
	if CanRun(s, rest) {
		t.Fatal("rest must not run at full energy")
	}
}

func TestEvasionStartsFullyEvaded(t *testing.T) {
	s := game.NewState(0)
	if got := EvadedPercent(s); !approx(got, 1) {
		t.Fatalf("EvadedPercent = %v, want 1", got)
	}
	s.EvasionPoints = MaxEvasionPoints(s)
	if EvadedPercent(s) != 0 {
		t.Fatal("exhausted headroom must read as 0 evaded")
	}
}

func TestEvasionGenDoublesEveryThirtySeconds(t *testing.T) {
	s := game.NewState(0)
	s.TimeSinceEscape = 29
	if got := EvasionGen(s); !approx(got, 29) {
		t.Errorf("gen at 29s = %v", got)
	}
	s.TimeSinceEscape = 30
	if got := EvasionGen(s); !approx(got, 60) {
		t.Errorf("gen at 30s = %v", got)
	}
	s.Upgrades[catalog.UpgSneaky] = 1
	s.Upgrades[catalog.UpgPoliceBribes] = 1
	if got := EvasionGen(s); !approx(got, 15) {
		t.Errorf("gen with sneaky and bribes = %v", got)
	}
}

func TestExperienceGainMonotonic(t *testing.T) {
	s := game.NewState(0)
	s.TotalCash = 1e6
	if got := ExperienceGain(s); got != 0 {
		t.Fatalf("gain without strategies = %v, want 0", got)
	}
	s.Strategies = 1
	base := ExperienceGain(s)
	if !approx(base, math.Pow(1e6, 0.6)) {
		t.Fatalf("gain with one strategy = %v", base)
	}
	s.Strategies = 9
	if got := ExperienceGain(s); !approx(got, base*3) {
		t.Errorf("gain with 9 strategies = %v, want %v", got, base*3)
	}
	s.Upgrades[catalog.UpgExperienced] = 1
	if got := ExperienceGain(s); !approx(got, base*6) {
		t.Errorf("gain with Experienced = %v, want %v", got, base*6)
	}
	s.TotalCash = 4e6
	if got := ExperienceGain(s); got <= base*6 {
		t.Errorf("gain must grow with total cash, got %v", got)
	}
}

func TestTrialProgressClamped(t *testing.T) {
	s := game.NewState(0)
	if TrialProgress(s) != 0 {
		t.Fatal("no work must mean zero progress")
	}
	s.Work = TrialStartWork * 1e5
	if got := TrialProgress(s); !approx(got, 0.5) {
		t.Errorf("progress halfway = %v", got)
	}
	s.Work = math.Inf(1)
	if got := TrialProgress(s); got != 0 && got != 1 {
		t.Errorf("infinite work produced %v", got)
	}
	s.Work = TrialStartWork * 1e11
	if TrialProgress(s) != 1 {
		t.Error("progress must clamp at 1")
	}
}

func TestStrategyGainUsesBuffs(t *testing.T) {
	s := game.NewState(0)
	if got := StrategyGain(s, 5); got != 1 {
		t.Fatalf("base gain for size 5 = %v, want 1", got)
	}
	s.Upgrades[catalog.UpgBetterStrategies] = 2
	s.Evidence = 1
	want := 1 * 2 * math.Pow(1.1, 1) * 4
	if got := StrategyGain(s, 5); !approx(got, want) {
		t.Errorf("buffed gain = %v, want %v", got, want)
	}
}

func TestLawyerMultiDividesByNerf(t *testing.T) {
	s := game.NewState(0)
	before := LawyerMulti(s, 0)
	s.TotalNerf = 4
	if got := LawyerMulti(s, 0); !approx(got, before/4) {
		t.Errorf("tier 0 multi = %v, want %v", got, before/4)
	}
	if got := LawyerMulti(s, 1); !approx(got, 0.5) {
		t.Errorf("tier 1 multi = %v, want 0.5", got)
	}
}
