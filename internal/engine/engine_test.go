package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/strategy"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
	"github.com/MRamiBalles/JailbreakIdle/internal/save"
)

var epoch = time.UnixMilli(1_700_000_000_000)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(Options{Seed: 42, Clock: func() time.Time { return epoch }})
	if !e.Begin() {
		t.Fatal("begin rejected")
	}
	return e
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func countType(e *Engine, typ events.EventType) int {
	return len(e.Events().ByType(typ))
}

// directGraph is a 5x5 graph whose only edge joins the start and the terminal.
func directGraph() *strategy.Graph {
	g := &strategy.Graph{Size: 5, Adj: make([][]int, 25)}
	g.Adj[0] = []int{24}
	g.Adj[24] = []int{0}
	return g
}

func TestBeginOnlyOnce(t *testing.T) {
	e := newTestEngine(t)
	if e.Begin() {
		t.Fatal("second begin accepted")
	}
	if countType(e, events.EventTypeGameStarted) != 1 {
		t.Fatal("expected one start message")
	}
}

func TestZeroDiffTickIsNoop(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = 2
		s.Energy = 50
		s.Meals = 2
		s.Upgrades[catalog.UpgAutomated] = 1
		s.Upgrades[catalog.UpgStrategizing] = 1
		s.Upgrades[catalog.UpgThinking] = 1
		s.Auto.Actions[catalog.ActEat] = true
	})
	before := e.View()

	e.Tick() // the test clock never moves
	e.Advance(0)

	after := e.View()
	if after.Cash != before.Cash || after.Energy != before.Energy || after.Selected != before.Selected {
		t.Fatalf("zero diff changed resources or selection: %+v -> %+v", before, after)
	}
	if len(after.Board.Stack) != len(before.Board.Stack) || after.Board.Searched != before.Board.Searched {
		t.Fatal("zero diff moved the search frontier")
	}
}

func TestProductionIsLinear(t *testing.T) {
	setup := func(s *game.State) {
		s.Stage = 2
		s.Upgrades[catalog.UpgConvince] = 3
		s.Upgrades[catalog.UpgBooks] = 2
	}
	one, many := newTestEngine(t), newTestEngine(t)
	one.WithState(setup)
	many.WithState(setup)

	one.Advance(10)
	for i := 0; i < 10; i++ {
		many.Advance(1)
	}

	a, b := one.View(), many.View()
	if a.Cash <= 0 {
		t.Fatal("expected passive cash")
	}
	if !near(a.Cash, b.Cash) || !near(a.XP, b.XP) || !near(a.Energy, b.Energy) {
		t.Errorf("one step %+v vs ten steps %+v", a.Rates, b.Rates)
	}
}

func TestActionExclusivity(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = 2
		s.Energy = 50
	})
	if !e.StartAction(catalog.ActJailWork) {
		t.Fatal("jail work should start")
	}
	if e.StartAction(catalog.ActEat) {
		t.Fatal("second action accepted while one runs")
	}
	if got := e.View().Selected; got != catalog.ActJailWork {
		t.Fatalf("selected = %q", got)
	}
}

func TestActionCompletesOnce(t *testing.T) {
	e := newTestEngine(t)
	if !e.StartAction(catalog.ActWakeUp) {
		t.Fatal("wake up should start")
	}
	e.Advance(1)
	if v := e.View(); v.Stage != 0 || v.Progress != 0.5 {
		t.Fatalf("half way: stage=%d progress=%v", v.Stage, v.Progress)
	}
	e.Advance(5)
	v := e.View()
	if v.Stage != 1 || v.Selected != "" {
		t.Fatalf("after finish: stage=%d selected=%q", v.Stage, v.Selected)
	}
	if countType(e, events.EventTypeActionFinished) != 1 {
		t.Error("expected one completion message")
	}
	e.Advance(5)
	if e.View().Stage != 1 {
		t.Error("completion fired twice")
	}
}

func TestActionInterruptedWhenDrainRunsOut(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = 2
		s.Energy = 5
	})
	e.StartAction(catalog.ActJailWork)
	e.Advance(1)

	v := e.View()
	if v.Selected != "" {
		t.Fatal("action should be interrupted at zero energy")
	}
	if v.Cash != 0 || countType(e, events.EventTypeScavenge) != 0 {
		t.Error("interrupted action must not pay out")
	}
}

func TestAutomationPrefersLaterActions(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = 2
		s.Energy = 50
		s.Upgrades[catalog.UpgAutomated] = 1
		s.Auto.Actions[catalog.ActJailWork] = true
		s.Auto.Actions[catalog.ActEat] = true
		s.Auto.Actions[catalog.ActFindJunk] = true
	})
	e.Advance(0.01)
	if got := e.View().Selected; got != catalog.ActFindJunk {
		t.Fatalf("auto selected %q, want %q", got, catalog.ActFindJunk)
	}
}

func TestAutoSelectedActionStartsNextTick(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = 2
		s.Energy = 50
		s.Upgrades[catalog.UpgAutomated] = 1
		s.Auto.Actions[catalog.ActFindJunk] = true
	})

	e.Advance(1)
	if v := e.View(); v.Selected != catalog.ActFindJunk || v.Progress != 0 {
		t.Fatalf("picked tick: selected=%q progress=%v", v.Selected, v.Progress)
	}
	e.Advance(1)
	if v := e.View(); !near(v.Progress, 1.0/3) {
		t.Fatalf("progress = %v, want 1/3", v.Progress)
	}
}

func TestAutomationBuysFlaggedUpgrades(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = game.StageItems
		s.Meals = 1
		s.Energy = 100
		s.Cash = 1000
		s.Upgrades[catalog.UpgAutomated] = 1
		s.Auto.Upgrades[catalog.UpgFloor] = true
	})
	e.Advance(0.01)
	e.WithState(func(s *game.State) {
		if !s.Owns(catalog.UpgFloor) {
			t.Fatal("floor not bought")
		}
		if s.Cash > 901 {
			t.Errorf("floor cost not paid, cash=%v", s.Cash)
		}
	})
}

func TestEvasionResetKeepsPermanentUpgrades(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = game.StageEscaped
		s.TotalCash = 1e6
		s.Strategies = 4
		s.Cash = 500
		for id := range s.Upgrades {
			s.Upgrades[id] = 1
		}
	})
	if !e.EvasionReset() {
		t.Fatal("reset rejected")
	}

	e.WithState(func(s *game.State) {
		for _, u := range catalog.Upgrades {
			want := 0
			if u.Category.Permanent() {
				want = 1
			}
			if s.Upgrades[u.ID] != want {
				t.Errorf("%s: level %d, want %d", u.ID, s.Upgrades[u.ID], want)
			}
		}
		if s.ResetTimes != 1 || s.Stage != 0 || s.Cash != 0 {
			t.Errorf("resetTimes=%d stage=%d cash=%v", s.ResetTimes, s.Stage, s.Cash)
		}
		if s.Experience <= 0 {
			t.Error("reset should award experience")
		}
	})
	if countType(e, events.EventTypeEvasionReset) != 1 {
		t.Error("expected a reset message")
	}
}

func TestEnergyExhaustionTriggersReset(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = game.StageEscaped
		s.Meals = 3
		s.EnergySpent = rules.RawEnergy(s)
		s.Energy = 0
	})
	e.Advance(1)

	if countType(e, events.EventTypeFatigue) != 1 || countType(e, events.EventTypeEvasionReset) != 1 {
		t.Fatal("expected fatigue and reset messages")
	}
	e.WithState(func(s *game.State) {
		if s.ResetTimes != 1 || s.Stage != 0 {
			t.Errorf("resetTimes=%d stage=%d", s.ResetTimes, s.Stage)
		}
	})
}

func TestEvasionHeadroomTriggersReset(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = game.StageEscaped
		s.Meals = 5
		s.Energy = 100
		s.TimeSinceEscape = 10
		s.EvasionPoints = rules.MaxEvasionPoints(s) - 1
	})
	e.Advance(1)
	if e.View().ResetTimes != 1 {
		t.Fatal("exhausted headroom should reset")
	}
	if countType(e, events.EventTypeFatigue) != 0 {
		t.Error("capture was not caused by fatigue")
	}
}

func TestAutoSolverReachesTerminal(t *testing.T) {
	e := newTestEngine(t)
	var old *strategy.Board
	e.WithState(func(s *game.State) {
		s.Stage = 2
		s.Upgrades[catalog.UpgStrategizing] = 1
		s.Upgrades[catalog.UpgThinking] = 1
		s.Transient.Board = strategy.NewBoard(directGraph())
		old = s.Transient.Board
	})

	e.Advance(1)
	e.WithState(func(s *game.State) {
		if s.Transient.Board != old || s.Strategies != 0 {
			t.Fatal("first step should only expand node 0")
		}
		if len(old.Stack) != 1 || old.Stack[0] != 24 {
			t.Fatalf("stack after first step: %v", old.Stack)
		}
	})

	e.Advance(1)
	e.WithState(func(s *game.State) {
		if s.Transient.Board == old {
			t.Fatal("terminal pop should regenerate the graph")
		}
		if want := rules.StrategyGain(s, 5); s.Strategies != want || want != 1 {
			t.Errorf("strategies = %v, want %v", s.Strategies, want)
		}
	})
	if countType(e, events.EventTypeStrategySolved) != 1 {
		t.Error("expected a solved message")
	}
}

func TestManualTraversal(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.StrategiesUnlocked = true
		s.Transient.Board = strategy.NewBoard(directGraph())
	})
	if e.ClickNode(3) {
		t.Fatal("non-adjacent node accepted")
	}
	if !e.ClickNode(24) {
		t.Fatal("adjacent terminal rejected")
	}
	if got := e.View().Strategies; got != 1 {
		t.Errorf("strategies = %v, want 1", got)
	}
}

func TestRerollNeedsFullCooldown(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) { s.StrategiesUnlocked = true })
	if e.Reroll() {
		t.Fatal("reroll accepted with empty cooldown")
	}
	e.WithState(func(s *game.State) { s.Transient.Reroll = rules.RerollTime(s) })
	if !e.Reroll() {
		t.Fatal("reroll rejected with full cooldown")
	}
	if e.View().Reroll != 0 {
		t.Error("reroll should reset the cooldown")
	}
}

func TestStrategySizeBounds(t *testing.T) {
	e := newTestEngine(t)
	if e.ChangeStrategySize(1) {
		t.Fatal("size above cap accepted")
	}
	e.WithState(func(s *game.State) { s.Upgrades[catalog.UpgComplexity] = 2 })
	if !e.ChangeStrategySize(1) || !e.ChangeStrategySize(1) || e.ChangeStrategySize(1) {
		t.Fatal("size should grow to 7 and stop")
	}
	if !e.ChangeStrategySize(-2) || e.ChangeStrategySize(-1) {
		t.Fatal("size should shrink to 5 and stop")
	}
}

func TestTrialDecayIsMonotonic(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = 2
		s.StartedTrial = true
		s.Work = 1000
	})

	e.Advance(1)
	first := e.View()
	if !near(first.Work, 1000/math.Sqrt(3)) || !near(first.TotalNerf, math.Sqrt(3)) {
		t.Fatalf("after one second: work=%v nerf=%v", first.Work, first.TotalNerf)
	}

	e.Advance(1)
	second := e.View()
	if second.Work >= first.Work || second.TotalNerf <= first.TotalNerf {
		t.Fatal("work must keep falling and nerf keep rising")
	}
	if !near(second.TotalNerf, math.Sqrt(3)*math.Sqrt(5)) {
		t.Errorf("second nerf should use trial time 2, got total %v", second.TotalNerf)
	}
}

func TestLongTrialStaysExportable(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = 2
		s.StartedTrial = true
		s.Work = 1e30
	})

	check := func(when string) {
		t.Helper()
		v := e.View()
		if math.IsInf(v.TotalNerf, 0) || math.IsNaN(v.TotalNerf) || math.IsInf(v.Work, 0) || math.IsNaN(v.Work) {
			t.Fatalf("%s: work=%v nerf=%v", when, v.Work, v.TotalNerf)
		}
		if v.TotalNerf < 1 || v.Work < 0 {
			t.Fatalf("%s: work=%v nerf=%v out of range", when, v.Work, v.TotalNerf)
		}
		if _, err := e.Export(); err != nil {
			t.Fatalf("%s: export: %v", when, err)
		}
	}

	for i := 0; i < 16000; i++ { // 320s of 20ms ticks
		e.Advance(0.02)
	}
	check("after 320s")

	e.Advance(86400)
	check("after a day offline")
}

func TestOfflineSolverStopsOnExhaustedBoard(t *testing.T) {
	e := newTestEngine(t)
	var board *strategy.Board
	e.WithState(func(s *game.State) {
		s.Stage = 2
		s.Upgrades[catalog.UpgStrategizing] = 1
		s.Upgrades[catalog.UpgThinking] = 1
		s.Transient.Board = strategy.NewBoard(&strategy.Graph{Size: 5, Adj: make([][]int, 25)})
		board = s.Transient.Board
	})

	e.Advance(100 * 365 * 86400)
	e.WithState(func(s *game.State) {
		if s.Transient.Board != board || !board.Exhausted() || board.SearchedCount() != 1 {
			t.Fatalf("unexpected board after long gap: searched=%d", board.SearchedCount())
		}
		if s.Strategies != 0 || s.Transient.Throttle.Pending >= 1 {
			t.Errorf("strategies=%v pending=%v", s.Strategies, s.Transient.Throttle.Pending)
		}
	})
	if _, err := e.Export(); err != nil {
		t.Fatal(err)
	}
}

func TestCollectEvidence(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.StartedTrial = true
		s.Transient.Particles = []game.Particle{{Left: 0.5}}
	})
	if !e.CollectEvidence(0) {
		t.Fatal("collect rejected")
	}
	if got := e.View().Evidence; got != 1 {
		t.Errorf("evidence = %v, want 1", got)
	}
	if e.CollectEvidence(0) {
		t.Error("collected a particle twice")
	}
}

func TestEvidenceSpawnsAndExpires(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = 2
		s.StartedTrial = true
	})
	// With no evidence a particle spawns every 4s and lives 3s.
	e.Advance(3)
	e.Advance(1)
	if n := len(e.View().Particles); n != 1 {
		t.Fatalf("particles = %d, want 1", n)
	}
	e.Advance(2.5)
	if n := len(e.View().Particles); n != 0 {
		t.Fatalf("expired particle still present (%d)", n)
	}
}

func TestVictoryFiresOnce(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) { s.Work = rules.TrialStartWork * rules.TrialRequire * 10 })
	e.Advance(1)
	e.Advance(1)
	v := e.View()
	if !v.Won || v.EndTime != 2 || v.Playtime != 0 {
		t.Fatalf("won=%v endTime=%v playtime=%v", v.Won, v.EndTime, v.Playtime)
	}
	if countType(e, events.EventTypeVictory) != 1 {
		t.Error("victory must fire once")
	}
}

func TestPauseHaltsUntilEvidence(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) { s.Upgrades[catalog.UpgConvince] = 1 })
	e.TogglePause()
	e.Advance(5)
	if e.View().Cash != 0 {
		t.Fatal("paused game advanced")
	}
	e.WithState(func(s *game.State) { s.Evidence = 1 })
	e.Advance(5)
	if e.View().Cash == 0 {
		t.Fatal("pause must not hold once evidence exists")
	}
}

func TestLawyerBuyMaxLimitedByEnergy(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = game.StageLawyers
		s.Cash = 1e8
		s.Energy = 100
	})
	if n := e.BuyMaxLawyers(); n != 2 {
		t.Fatalf("hired %d, want 2", n)
	}
	v := e.View()
	if v.Lawyers[0].Bought != 2 || v.Energy != 0 || !near(v.Cash, 1e8-2e7-3e7) {
		t.Errorf("lawyers=%+v energy=%v cash=%v", v.Lawyers, v.Energy, v.Cash)
	}
}

func TestDoorPuzzleSolvesAndRemembers(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) { s.Stage = 6 })
	if !e.StartAction(catalog.ActPryDoor) {
		t.Fatal("pry door should start")
	}
	for i := 0; i < 5; i++ {
		e.WithState(func(s *game.State) { s.Transient.Door.Marker = s.Transient.Door.Pos })
		if !e.PryDoor() {
			t.Fatalf("pry %d rejected", i)
		}
	}
	v := e.View()
	if v.Stage != game.StageEscaped || v.Selected != "" {
		t.Fatalf("stage=%d selected=%q", v.Stage, v.Selected)
	}

	e.WithState(func(s *game.State) { s.Stage = 6 })
	e.StartAction(catalog.ActPryDoor)
	if e.View().Stage != game.StageEscaped {
		t.Fatal("a solved door should open at once")
	}
	if countType(e, events.EventTypePuzzleSolved) != 2 || countType(e, events.EventTypeStory) != 1 {
		t.Error("unexpected puzzle messages")
	}
}

func TestPinPuzzleUnlocksLawyers(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = game.StageItems
		s.Upgrades[catalog.UpgPlaneTickets] = 1
	})
	if !e.StartAction(catalog.ActLeave) {
		t.Fatal("leave should start")
	}
	var code int
	e.WithState(func(s *game.State) { code = s.Transient.Pin.Code })
	if !e.SubmitPin(code) {
		t.Fatal("guess rejected")
	}
	e.WithState(func(s *game.State) {
		if s.Stage != game.StageLawyers || !s.LawyersUnlocked || !s.PuzzlesCompleted[1] {
			t.Errorf("stage=%d lawyers=%v", s.Stage, s.LawyersUnlocked)
		}
	})
}

func TestImportInvalidLeavesStateUntouched(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) { s.Cash = 42 })

	err := e.Import("definitely not a save")
	if !errors.Is(err, save.ErrInvalidSave) {
		t.Fatalf("expected ErrInvalidSave, got %v", err)
	}
	if e.View().Cash != 42 {
		t.Fatal("failed import changed the state")
	}
	if last, _ := e.Events().Last(); last.Type != events.EventTypeSaveInvalid {
		t.Errorf("last message %q", last.Type)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	e.WithState(func(s *game.State) {
		s.Stage = 3
		s.Cash = 10
		s.Upgrades[catalog.UpgBooks] = 2
	})
	blob, err := e.Export()
	if err != nil {
		t.Fatal(err)
	}

	e.HardReset()
	if v := e.View(); v.Stage != 0 || v.Started {
		t.Fatal("hard reset should restore defaults")
	}

	if err := e.Import(blob); err != nil {
		t.Fatalf("import: %v", err)
	}
	v := e.View()
	if v.Stage != 3 || v.Cash != 10 || v.Upgrades[catalog.UpgBooks] != 2 || !v.Started {
		t.Errorf("round trip lost data: %+v", v)
	}
	if v.Board == nil {
		t.Error("import should build a board")
	}
}

func TestApplyDispatches(t *testing.T) {
	e := newTestEngine(t)
	if e.Apply(Command{Type: "NOPE"}) {
		t.Fatal("unknown command accepted")
	}
	if !e.Apply(Command{Type: CmdToggleAuto, Kind: AutoKindAction, ID: string(catalog.ActEat)}) {
		t.Fatal("toggle auto rejected")
	}
	if e.Apply(Command{Type: CmdToggleAuto, Kind: AutoKindUpgrade, ID: "missing"}) {
		t.Fatal("unknown upgrade toggled")
	}
	if !e.Apply(Command{Type: CmdStartAction, ID: string(catalog.ActWakeUp)}) {
		t.Fatal("start action rejected")
	}
	e.WithState(func(s *game.State) {
		if !s.Auto.Actions[catalog.ActEat] {
			t.Error("auto flag not set")
		}
	})
}
