package engine

import (
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/catalog"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/game"
	"github.com/MRamiBalles/JailbreakIdle/internal/domain/rules"
)

// View is a read-only copy of the state plus the derived values a client
// renders. It is safe to marshal after the lock is released.
type View struct {
	Started  bool    `json:"started"`
	Paused   bool    `json:"paused"`
	Stage    int     `json:"stage"`
	Playtime float64 `json:"playtime"`

	Cash        float64 `json:"cash"`
	XP          float64 `json:"xp"`
	Energy      float64 `json:"energy"`
	EnergyCap   float64 `json:"energy_cap"`
	RawEnergy   float64 `json:"raw_energy"`
	EnergySpent float64 `json:"energy_spent"`
	Junk        float64 `json:"junk"`
	Meals       int     `json:"meals"`
	Work        float64 `json:"work"`
	Strategies  float64 `json:"strategies"`
	Experience  float64 `json:"experience"`
	ResetTimes  int     `json:"reset_times"`

	Rates Rates `json:"rates"`

	Selected catalog.ActionID          `json:"selected,omitempty"`
	Progress float64                   `json:"progress"` // fraction of the selected action
	Runnable []catalog.ActionID        `json:"runnable"`
	Buyable  []catalog.UpgradeID       `json:"buyable"`
	Upgrades map[catalog.UpgradeID]int `json:"upgrades"`

	EvadedPercent float64 `json:"evaded_percent"`

	Lawyers     []game.Lawyer `json:"lawyers"`
	AutoLawyers bool          `json:"auto_lawyers"`

	Board        *BoardView `json:"board,omitempty"`
	StrategySize int        `json:"strategy_size"`
	Reroll       float64    `json:"reroll"`
	RerollTime   float64    `json:"reroll_time"`

	StartedTrial  bool            `json:"started_trial"`
	TrialProgress float64         `json:"trial_progress"`
	Evidence      float64         `json:"evidence"`
	TotalNerf     float64         `json:"total_nerf"`
	Particles     []game.Particle `json:"particles"`
	Won           bool            `json:"won"`
	EndTime       float64         `json:"end_time"`

	Door game.DoorPuzzle `json:"door"`
	Pin  PinView         `json:"pin"`
}

// Rates are the current passive per-second rates.
type Rates struct {
	Cash    float64 `json:"cash"`
	XP      float64 `json:"xp"`
	Energy  float64 `json:"energy"`
	Evasion float64 `json:"evasion"`
}

// BoardView is the strategy graph as a client draws it.
type BoardView struct {
	Size     int     `json:"size"`
	Adj      [][]int `json:"adj"`
	Selected int     `json:"selected"`
	Stack    []int   `json:"stack"`
	Searched int     `json:"searched"`
}

// PinView hides the code but exposes per-guess hints.
type PinView struct {
	Attempted bool     `json:"attempted"`
	Guesses   []int    `json:"guesses"`
	Hints     [][4]int `json:"hints"`
}

// View snapshots the state.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	t := &s.Transient

	v := View{
		Started:  s.Started,
		Paused:   t.Paused && s.Evidence == 0,
		Stage:    s.Stage,
		Playtime: s.Playtime,

		Cash:        s.Cash,
		XP:          s.XP,
		Energy:      s.Energy,
		EnergyCap:   rules.EnergyCap(s),
		RawEnergy:   rules.RawEnergy(s),
		EnergySpent: s.EnergySpent,
		Junk:        s.Junk,
		Meals:       s.Meals,
		Work:        s.Work,
		Strategies:  s.Strategies,
		Experience:  s.Experience,
		ResetTimes:  s.ResetTimes,

		Rates: Rates{
			Cash:   rules.PassiveCash(s),
			XP:     rules.PassiveXP(s),
			Energy: rules.PassiveEnergy(s),
		},

		Selected: t.Selected,
		Upgrades: make(map[catalog.UpgradeID]int, len(s.Upgrades)),

		Lawyers:     append([]game.Lawyer(nil), s.Lawyers...),
		AutoLawyers: s.AutoLawyers,

		StrategySize: s.StrategySize,
		Reroll:       t.Reroll,
		RerollTime:   rules.RerollTime(s),

		StartedTrial:  s.StartedTrial,
		TrialProgress: rules.TrialProgress(s),
		Evidence:      s.Evidence,
		TotalNerf:     s.TotalNerf,
		Particles:     append([]game.Particle(nil), t.Particles...),
		Won:           t.Won,
		EndTime:       t.EndTime,

		Door: t.Door,
		Pin: PinView{
			Attempted: t.Pin.Attempted,
			Guesses:   append([]int(nil), t.Pin.Guesses...),
		},
	}

	if s.Stage >= game.StageEscaped {
		v.Rates.Evasion = rules.EvasionGen(s)
		v.EvadedPercent = rules.EvadedPercent(s)
	}
	if a := rules.SelectedAction(s); a != nil && a.Duration > 0 {
		v.Progress = t.Progress[a.ID] / a.Duration
	}
	for i := range catalog.Actions {
		if a := &catalog.Actions[i]; rules.CanRun(s, a) {
			v.Runnable = append(v.Runnable, a.ID)
		}
	}
	for i := range catalog.Upgrades {
		u := &catalog.Upgrades[i]
		v.Upgrades[u.ID] = s.Upgrades[u.ID]
		if rules.CanBuy(s, u) {
			v.Buyable = append(v.Buyable, u.ID)
		}
	}
	for _, g := range t.Pin.Guesses {
		v.Pin.Hints = append(v.Pin.Hints, t.Pin.Hint(g))
	}
	if b := t.Board; b != nil {
		bv := &BoardView{
			Size:     b.Graph.Size,
			Adj:      make([][]int, len(b.Graph.Adj)),
			Selected: b.Selected,
			Stack:    append([]int(nil), b.Stack...),
			Searched: b.SearchedCount(),
		}
		for i, adj := range b.Graph.Adj {
			bv.Adj[i] = append([]int(nil), adj...)
		}
		v.Board = bv
	}
	return v
}
