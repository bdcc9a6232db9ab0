// Package test holds headless simulation scenarios. Each one drives an
// engine through a scripted run and checks the outcome, so the same
// scenarios back both the sim-runner binary and the package tests.
package test

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
	"github.com/MRamiBalles/JailbreakIdle/internal/engine"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/logger"
)

// Options control a scenario run.
type Options struct {
	Seed     int64
	Step     float64 // seconds per tick
	Duration float64 // simulated seconds
	Log      *logger.Logger
}

// DefaultOptions simulates ten minutes in half-second ticks.
func DefaultOptions() Options {
	return Options{Seed: 1, Step: 0.5, Duration: 600}
}

// Result captures the outcome of one scenario.
type Result struct {
	Name     string
	Passed   bool
	Reason   string
	Ticks    int
	Messages int
	Elapsed  time.Duration
	Final    engine.View
}

// Scenario is one scripted run.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, opts Options) Result
}

// All returns every scenario in a stable order.
func All() []Scenario {
	return []Scenario{
		{Name: "offline-catchup", Run: OfflineCatchUp},
		{Name: "scripted-escape", Run: ScriptedEscape},
		{Name: "capture", Run: Capture},
		{Name: "save-roundtrip", Run: SaveRoundTrip},
	}
}

// RunAll runs the scenarios in order and stops early if ctx is cancelled.
func RunAll(ctx context.Context, opts Options) []Result {
	var results []Result
	for _, sc := range All() {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		r := sc.Run(ctx, opts)
		r.Name = sc.Name
		r.Elapsed = time.Since(start)
		if opts.Log != nil {
			opts.Log.Event("SCENARIO", sc.Name, fmt.Sprintf("passed=%v %s", r.Passed, r.Reason))
		}
		results = append(results, r)
	}
	return results
}

var epoch = time.UnixMilli(1_700_000_000_000)

func newEngine(opts Options) *engine.Engine {
	lg := opts.Log
	if lg == nil {
		lg = logger.Discard()
	}
	e := engine.New(engine.Options{Seed: opts.Seed, Clock: func() time.Time { return epoch }, Log: lg})
	e.Begin()
	return e
}

func finish(e *engine.Engine, ticks int, passed bool, reason string) Result {
	return Result{
		Passed:   passed,
		Reason:   reason,
		Ticks:    ticks,
		Messages: e.Events().Len(),
		Final:    e.View(),
	}
}

func agree(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Abs(b))
}

// OfflineCatchUp integrates the same passive economy once in a single
// long tick and once in many short ones; both must agree.
func OfflineCatchUp(ctx context.Context, opts Options) Result {
	setup := func(s *game.State) {
		s.Stage = 2
		s.Upgrades[catalog.UpgConvince] = 3
		s.Upgrades[catalog.UpgBooks] = 2
	}
	away, live := newEngine(opts), newEngine(opts)
	away.WithState(setup)
	live.WithState(setup)

	away.Advance(opts.Duration)
	ticks := int(opts.Duration / opts.Step)
	for i := 0; i < ticks; i++ {
		if ctx.Err() != nil {
			return finish(live, i, false, "cancelled")
		}
		live.Advance(opts.Step)
	}
	if rest := opts.Duration - float64(ticks)*opts.Step; rest > 0 {
		live.Advance(rest)
		ticks++
	}

	a, b := away.View(), live.View()
	if !agree(a.Cash, b.Cash) || !agree(a.XP, b.XP) || !agree(a.Playtime, b.Playtime) {
		return finish(live, ticks, false, fmt.Sprintf("catch-up cash=%g xp=%g, live cash=%g xp=%g", a.Cash, a.XP, b.Cash, b.XP))
	}
	return finish(live, ticks, true, fmt.Sprintf("%d ticks matched one %gs catch-up", ticks, opts.Duration))
}

// ScriptedEscape plays like an eager player: whenever idle it starts the
// most advanced runnable action and it buys everything affordable. The
// run fails if any observable value leaves its valid range.
func ScriptedEscape(ctx context.Context, opts Options) Result {
	e := newEngine(opts)
	ticks := int(opts.Duration / opts.Step)
	for i := 0; i < ticks; i++ {
		if ctx.Err() != nil {
			return finish(e, i, false, "cancelled")
		}
		v := e.View()
		for _, id := range v.Buyable {
			e.PurchaseUpgrade(id)
		}
		if v.Selected == "" && len(v.Runnable) > 0 {
			e.StartAction(v.Runnable[len(v.Runnable)-1])
		}
		if v.Door.Attempted {
			e.PryDoor()
		}

		e.Advance(opts.Step)
		if reason := checkInvariants(e.View()); reason != "" {
			return finish(e, i+1, false, fmt.Sprintf("tick %d: %s", i+1, reason))
		}
	}
	final := e.View()
	return finish(e, ticks, true, fmt.Sprintf("reached stage %d after %d resets", final.Stage, final.ResetTimes))
}

func checkInvariants(v engine.View) string {
	for name, x := range map[string]float64{
		"cash": v.Cash, "xp": v.XP, "energy": v.Energy, "junk": v.Junk,
		"work": v.Work, "strategies": v.Strategies, "experience": v.Experience,
	} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return name + " is not finite"
		}
	}
	if v.Energy < 0 {
		return fmt.Sprintf("energy is negative (%g)", v.Energy)
	}
	if v.EvadedPercent < 0 {
		return fmt.Sprintf("evaded percent %g is negative", v.EvadedPercent)
	}
	if v.Progress < 0 || v.Progress > 1 {
		return fmt.Sprintf("action progress %g out of range", v.Progress)
	}
	return ""
}

// Capture exhausts the escaped player's energy and expects exactly one
// capture that keeps experience and permanent upgrades.
func Capture(ctx context.Context, opts Options) Result {
	e := newEngine(opts)
	e.WithState(func(s *game.State) {
		s.Stage = game.StageEscaped
		s.TotalCash = 1e6
		s.Strategies = 4
		s.Meals = 3
		s.EnergySpent = rules.RawEnergy(s)
		s.Energy = 0
		s.Upgrades[catalog.UpgAutomated] = 1
	})
	e.Advance(opts.Step)

	v := e.View()
	captures := len(e.Events().ByType(events.EventTypeEvasionReset))
	switch {
	case captures != 1:
		return finish(e, 1, false, fmt.Sprintf("%d capture messages", captures))
	case v.ResetTimes != 1 || v.Stage != 0:
		return finish(e, 1, false, fmt.Sprintf("resetTimes=%d stage=%d", v.ResetTimes, v.Stage))
	case v.Experience <= 0:
		return finish(e, 1, false, "no experience awarded")
	case v.Upgrades[catalog.UpgAutomated] != 1:
		return finish(e, 1, false, "permanent upgrade lost")
	}
	return finish(e, 1, true, fmt.Sprintf("captured with %.3g experience", v.Experience))
}

// SaveRoundTrip exports a played game and imports it into a fresh engine.
func SaveRoundTrip(ctx context.Context, opts Options) Result {
	played := newEngine(opts)
	played.WithState(func(s *game.State) {
		s.Stage = 2
		s.Upgrades[catalog.UpgConvince] = 1
	})
	played.Advance(opts.Duration)

	encoded, err := played.Export()
	if err != nil {
		return finish(played, 1, false, "export: "+err.Error())
	}
	fresh := newEngine(Options{Seed: opts.Seed + 1, Log: opts.Log})
	if err := fresh.Import(encoded); err != nil {
		return finish(fresh, 0, false, "import: "+err.Error())
	}

	a, b := played.View(), fresh.View()
	if a.Stage != b.Stage || !agree(a.Cash, b.Cash) || !agree(a.Playtime, b.Playtime) {
		return finish(fresh, 0, false, fmt.Sprintf("stage %d/%d cash %g/%g", a.Stage, b.Stage, a.Cash, b.Cash))
	}
	return finish(fresh, 1, true, fmt.Sprintf("%d byte save restored", len(encoded)))
}
