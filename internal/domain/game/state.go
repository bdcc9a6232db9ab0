// Package game defines the single mutable aggregate of a play-through.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package game

import (
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/strategy"
)

// Story stages the rest of the code branches on.
const (
	StageEscaped = 7 // evasion pressure starts
	StageItems   = 8 // items purchasable
	StageLawyers = 9 // lawyers, strategies and trial
)

// Lawyer is the hire count and accumulated output of one lawyer tier.
type Lawyer struct {
	Bought   int     `json:"bought"`
	Produced float64 `json:"produced"`
}

// AutoFlags marks which actions and upgrades automation may manage.
type AutoFlags struct {
	Actions  map[catalog.ActionID]bool  `json:"actions"`
	Upgrades map[catalog.UpgradeID]bool `json:"upgrades"`
}

// State is the persisted game aggregate. Field tags form the save layout.
type State struct {
	Started         bool    `json:"started"`
	LastTick        int64   `json:"lastTick"` // unix milliseconds
	Playtime        float64 `json:"playtime"`
	TimeSinceEscape float64 `json:"timeSinceEscape"`
	Stage           int     `json:"state"`

	EvasionPoints float64 `json:"evasionPoints"`
	Cash          float64 `json:"cash"`
	XP            float64 `json:"xp"`
	EnergySpent   float64 `json:"energySpent"`
	Energy        float64 `json:"energy"`
	TotalCash     float64 `json:"totalCash"`

	Upgrades         map[catalog.UpgradeID]int `json:"upgrades"`
	PuzzlesCompleted [2]bool                   `json:"puzzlesCompleted"`
	ResetTimes       int                       `json:"resetTimes"`

	CorporationUnlocked bool `json:"corporationUnlocked"`
	ResearchUnlocked    bool `json:"researchUnlocked"`
	LawyersUnlocked     bool `json:"lawyersUnlocked"`
	StrategiesUnlocked  bool `json:"strategiesUnlocked"`

	Experience float64   `json:"experience"`
	Auto       AutoFlags `json:"auto"`

	Work    float64  `json:"work"`
	Meals   int      `json:"meals"`
	Junk    float64  `json:"junk"`
	Tools   float64  `json:"tools"`
	Lawyers []Lawyer `json:"lawyers"`

	Strategies   float64 `json:"strategies"`
	StrategySize int     `json:"strategySize"`
	StartedTrial bool    `json:"startedTrial"`
	AutoLawyers  bool    `json:"autoLawyers"`
	TrialTime    float64 `json:"trialTime"`
	Evidence     float64 `json:"evidence"`
	TotalNerf    float64 `json:"totalNerf"`

	// Transient survives ticks but is never saved.
	Transient Transient `json:"-"`
}

// Transient is the per-session state that is rebuilt on load.
type Transient struct {
	Selected catalog.ActionID // empty when idle
	Progress map[catalog.ActionID]float64

	Board    *strategy.Board
	Throttle strategy.Throttle
	Reroll   float64

	Particles     []Particle
	ParticleTimer float64

	Door DoorPuzzle
	Pin  PinPuzzle

	Paused  bool
	EndTime float64
	Won     bool
}

// Particle is one collectible piece of evidence.
type Particle struct {
	Age    float64 `json:"age"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Rotate float64 `json:"rotate"`
}

// NewState returns the state of a fresh game started at now (unix ms).
func NewState(now int64) *State {
	s := &State{
		LastTick:     now,
		Upgrades:     make(map[catalog.UpgradeID]int, len(catalog.Upgrades)),
		StrategySize: strategy.MinSize,
		TotalNerf:    1,
		Auto: AutoFlags{
			Actions:  make(map[catalog.ActionID]bool, len(catalog.Actions)),
			Upgrades: make(map[catalog.UpgradeID]bool, len(catalog.Upgrades)),
		},
		Lawyers: make([]Lawyer, len(catalog.LawyerTiers)),
	}
	for _, u := range catalog.Upgrades {
		s.Upgrades[u.ID] = 0
		s.Auto.Upgrades[u.ID] = false
	}
	for _, a := range catalog.Actions {
		s.Auto.Actions[a.ID] = false
	}
	s.Transient = NewTransient()
	return s
}

// NewTransient returns an idle transient block without a strategy board.
func NewTransient() Transient {
	return Transient{Progress: make(map[catalog.ActionID]float64, len(catalog.Actions))}
}

// Level returns the owned level of an upgrade.
func (s *State) Level(id catalog.UpgradeID) int { return s.Upgrades[id] }

// Owns reports whether at least one level of an upgrade is owned.
func (s *State) Owns(id catalog.UpgradeID) bool { return s.Upgrades[id] >= 1 }

// Idle reports whether no action is selected.
func (s *State) Idle() bool { return s.Transient.Selected == "" }

// Flag reads an unlock flag. FlagNone is always set.
func (s *State) Flag(f catalog.Flag) bool {
	switch f {
	case catalog.FlagNone:
		return true
	case catalog.FlagResearch:
		return s.ResearchUnlocked
	case catalog.FlagCorporation:
		return s.CorporationUnlocked
	case catalog.FlagLawyers:
		return s.LawyersUnlocked
	case catalog.FlagStrategies:
		return s.StrategiesUnlocked
	}
	return false
}

// Stored returns a stored resource. Derived resources read as 0 here.
func (s *State) Stored(r catalog.Resource) float64 {
	switch r {
	case catalog.ResCash:
		return s.Cash
	case catalog.ResXP:
		return s.XP
	case catalog.ResEnergy:
		return s.Energy
	case catalog.ResJunk:
		return s.Junk
	case catalog.ResWork:
		return s.Work
	case catalog.ResStrategies:
		return s.Strategies
	case catalog.ResExperience:
		return s.Experience
	case catalog.ResEvasion:
		return s.EvasionPoints
	}
	return 0
}

// Add changes a stored resource by delta. Unknown resources are ignored.
func (s *State) Add(r catalog.Resource, delta float64) {
	switch r {
	case catalog.ResCash:
		s.Cash += delta
	case catalog.ResXP:
		s.XP += delta
	case catalog.ResEnergy:
		s.Energy += delta
	case catalog.ResJunk:
		s.Junk += delta
	case catalog.ResWork:
		s.Work += delta
	case catalog.ResStrategies:
		s.Strategies += delta
	case catalog.ResExperience:
		s.Experience += delta
	case catalog.ResEvasion:
		s.EvasionPoints += delta
	}
}

// ClearSelection returns the action machine to idle and drops all progress.
func (s *State) ClearSelection() {
	s.Transient.Selected = ""
	for id := range s.Transient.Progress {
		delete(s.Transient.Progress, id)
	}
}

// ResetRun zeroes every run-scoped field after an evasion. Upgrades whose
// category is permanent keep their level; experience and resetTimes are left
// for the caller.
func (s *State) ResetRun() {
	s.TimeSinceEscape = 0
	s.Stage = 0
	s.EvasionPoints = 0
	s.Cash = 0
	s.XP = 0
	s.EnergySpent = 0
	s.Energy = 0
	s.TotalCash = 0
	s.Work = 0
	s.Meals = 0
	s.Junk = 0
	s.Tools = 0
	s.Lawyers = make([]Lawyer, len(catalog.LawyerTiers))
	s.Strategies = 0
	s.StrategySize = strategy.MinSize
	s.StartedTrial = false
	s.TrialTime = 0
	s.Evidence = 0
	s.TotalNerf = 1

	for id := range s.Upgrades {
		u, ok := catalog.GetUpgrade(id)
		if !ok || !u.Category.Permanent() {
			s.Upgrades[id] = 0
		}
	}
	s.ClearSelection()
}
