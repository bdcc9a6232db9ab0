package engine

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
	"github.com/MRamiBalles/JailbreakIdle/internal/events"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/logger"
	"github.com/MRamiBalles/JailbreakIdle/internal/platform/metrics"
)

// Options configures a new Engine. Zero fields get defaults.
type Options struct {
	Seed    int64 // 0 seeds from the clock
	Clock   func() time.Time
	Log     *logger.Logger
	Events  *events.EventLog
	Metrics *metrics.Collector
	Paused  bool
}

// Engine is the central orchestrator: it owns the game state and runs the
// simulation systems in a fixed order on every tick.
type Engine struct {
	mu       sync.Mutex
	state    *game.State
	rng      *rand.Rand
	clock    func() time.Time
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector

	// Sub-systems, in tick order
	production *ProductionSystem
	actions    *ActionSystem
	automation *AutomationSystem
	puzzles    *PuzzleSystem
	evasion    *EvasionSystem
	lawyers    *LawyerSystem
	strategy   *StrategySystem
	trial      *TrialSystem
}

// New initializes the core game systems around a fresh state.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.Log == nil {
		opts.Log = logger.Discard()
	}
	if opts.Events == nil {
		opts.Events = events.NewEventLog(nil)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}

	e := &Engine{
		rng:      rand.New(rand.NewSource(opts.Seed)),
		clock:    opts.Clock,
		eventLog: opts.Events,
		logger:   opts.Log,
		metrics:  opts.Metrics,
	}
	sys := systemDeps{eventLog: e.eventLog, logger: e.logger, metrics: e.metrics, rng: e.rng}

	e.production = NewProductionSystem()
	e.puzzles = NewPuzzleSystem(sys)
	e.actions = NewActionSystem(sys, e.puzzles)
	e.automation = NewAutomationSystem(sys, e.actions)
	e.evasion = NewEvasionSystem(sys)
	e.lawyers = NewLawyerSystem(sys)
	e.strategy = NewStrategySystem(sys)
	e.trial = NewTrialSystem(sys)

	e.state = game.NewState(e.clock().UnixMilli())
	e.state.Transient.Paused = opts.Paused
	e.strategy.Regenerate(e.state)
	return e
}

// systemDeps are the collaborators every system may use.
type systemDeps struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
	rng      *rand.Rand
}

func (d systemDeps) say(s *game.State, t events.EventType, text string) {
	d.eventLog.Push(t, text, s.Playtime)
}

// Events exposes the message log.
func (e *Engine) Events() *events.EventLog { return e.eventLog }

// Tick integrates the wall-clock time elapsed since the last tick.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	now := e.clock().UnixMilli()
	diff := float64(now-e.state.LastTick) / 1000
	e.state.LastTick = now
	diff = e.advance(diff)
	e.metrics.RecordTick(time.Since(start), diff)
}

// Advance runs one tick of diff seconds without consulting the clock.
func (e *Engine) Advance(diff float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.advance(diff)
}

// advance returns the diff it actually integrated.
func (e *Engine) advance(diff float64) float64 {
	if diff <= 0 || math.IsNaN(diff) {
		return 0
	}
	s := e.state
	if !s.Started || (s.Transient.Paused && s.Evidence == 0) {
		return 0
	}

	if rules.TrialProgress(s) >= 1 {
		s.Transient.EndTime += diff
		if !s.Transient.Won {
			s.Transient.Won = true
			e.eventLog.Push(events.EventTypeVictory, "You overturned your jail sentence and finally escaped jail!", s.Playtime)
			e.logger.Event("VICTORY", "trial", "trial progress reached 100%")
			e.metrics.RecordVictory()
		}
		return diff
	}

	s.Playtime += diff
	e.production.Update(s, diff)
	wasIdle := s.Idle()
	e.actions.Update(s, diff)
	if wasIdle {
		e.automation.SelectAction(s)
	}
	e.automation.UnlockFlags(s)
	e.puzzles.Update(s, diff)
	e.automation.BuyUpgrades(s)
	e.evasion.Update(s, diff)
	e.lawyers.Update(s, diff)
	e.automation.AutoRest(s)
	e.strategy.Update(s, diff)
	e.lawyers.AutoHire(s)
	e.trial.Update(s, diff)
	return diff
}

// WithState runs fn with exclusive access to the state. fn must not retain s.
func (e *Engine) WithState(fn func(s *game.State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
}
