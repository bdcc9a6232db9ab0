package catalog

// ActionID is the stable identifier of an action.
type ActionID string

const (
	ActWakeUp      ActionID = "wake_up"
	ActFirstRest   ActionID = "first_rest"
	ActJailWork    ActionID = "jail_work"
	ActEat         ActionID = "eat"
	ActFindJunk    ActionID = "find_junk"
	ActRest        ActionID = "rest"
	ActResearch    ActionID = "research"
	ActCrowbar     ActionID = "crowbar"
	ActDestruction ActionID = "destruction"
	ActBribery     ActionID = "bribery"
	ActEscape      ActionID = "escape"
	ActPryDoor     ActionID = "pry_door"
	ActWork        ActionID = "work"
	ActExplore     ActionID = "explore"
	ActLeave       ActionID = "leave"
)

// Gate is an extra runnability check that cannot be expressed as a
// resource threshold.
type Gate int

const (
	GateNone Gate = iota
	// GateNeedsRest holds while energy is below cap and total energy remains.
	GateNeedsRest
)

// RateScaling selects how a per-second modifier is scaled.
type RateScaling int

const (
	ScaleFlat RateScaling = iota
	// ScaleJobBonus multiplies by Growth^JobBonus and triples with the New Mattress.
	ScaleJobBonus
)

// PerSecond is one entry of an action's per-second effect table.
type PerSecond struct {
	Resource Resource
	Base     float64
	Scaling  RateScaling
	Growth   float64
}

// Multiplier is one entry of an action's multiplier table.
type Multiplier struct {
	Resource Resource
	Factor   float64
}

// StartKind is the one-time side effect of entering an action.
type StartKind int

const (
	StartNone StartKind = iota
	StartDoorPuzzle
	StartPinPuzzle
)

// FinishKind selects the completion effect of an action.
type FinishKind int

const (
	FinishNone FinishKind = iota
	// FinishProgress advances the story: consumes Consume and, if
	// AdvanceState, increments the state.
	FinishProgress
	// FinishFirstRest sets energy to 100 and advances the state.
	FinishFirstRest
	// FinishScavenge grants a random amount of Yield in [base, 2*base).
	FinishScavenge
	FinishMeal
	// FinishRest converts total energy into energy up to the cap.
	FinishRest
	FinishUnlockResearch
)

// Finish is the tagged completion effect of an action.
type Finish struct {
	Kind         FinishKind
	AdvanceState bool
	Consume      []Amount
	Yield        Resource
	Message      string
}

// Action describes one timed player action.
type Action struct {
	ID       ActionID
	Name     string
	Duration float64 // seconds at action speed 1
	Show     Visibility
	Requires []Requirement
	Gate     Gate
	Rates    []PerSecond
	Mults    []Multiplier
	Start    StartKind
	Finish   Finish
}

var drain10 = []PerSecond{{Resource: ResEnergy, Base: -10}}

// Actions is ordered from earliest to latest game stage. Automation scans it
// from the end, so later entries take priority.
var Actions = []Action{
	{
		ID: ActWakeUp, Name: "Wake up", Duration: 2,
		Show:   Visibility{State: StateIs(0)},
		Finish: Finish{Kind: FinishProgress, AdvanceState: true, Message: "You seem to be in a jail."},
	},
	{
		ID: ActFirstRest, Name: "Rest", Duration: 5,
		Show:   Visibility{State: StateIs(1)},
		Finish: Finish{Kind: FinishFirstRest, Message: "That felt better..."},
	},
	{
		ID: ActJailWork, Name: "Work", Duration: 3,
		Show:   Visibility{State: StateBetween(2, 5)},
		Rates:  drain10,
		Finish: Finish{Kind: FinishScavenge, Yield: ResCash},
	},
	{
		ID: ActEat, Name: "Eat", Duration: 3,
		Show:   Visibility{State: StateBetween(2, 5)},
		Finish: Finish{Kind: FinishMeal},
	},
	{
		ID: ActFindJunk, Name: "Find junk", Duration: 3,
		Show:   Visibility{State: StateBetween(2, 5)},
		Rates:  drain10,
		Finish: Finish{Kind: FinishScavenge, Yield: ResJunk},
	},
	{
		ID: ActRest, Name: "Rest", Duration: 3,
		Show:   Visibility{State: StateAtLeast(2)},
		Gate:   GateNeedsRest,
		Finish: Finish{Kind: FinishRest},
	},
	{
		ID: ActResearch, Name: "Research", Duration: 5,
		Show:     Visibility{State: StateAtLeast(2), Unflag: FlagResearch},
		Requires: []Requirement{{Resource: ResCash, Min: 2}, {Resource: ResJunk, Min: 40}},
		Finish:   Finish{Kind: FinishUnlockResearch},
	},
	{
		ID: ActCrowbar, Name: "Crowbar", Duration: 5,
		Show:     Visibility{State: StateIs(2)},
		Requires: []Requirement{{Resource: ResJunk, Min: 100}},
		Rates:    drain10,
		Finish: Finish{
			Kind: FinishProgress, AdvanceState: true,
			Consume: []Amount{{Resource: ResJunk, Value: 100}},
		},
	},
	{
		ID: ActDestruction, Name: "Destruction", Duration: 5,
		Show:   Visibility{State: StateIs(3)},
		Rates:  drain10,
		Finish: Finish{Kind: FinishProgress, AdvanceState: true, Message: "Somehow no one noticed...?"},
	},
	{
		ID: ActBribery, Name: "Bribery", Duration: 5,
		Show:     Visibility{State: StateIs(4)},
		Requires: []Requirement{{Resource: ResCash, Min: 5}},
		Finish: Finish{
			Kind: FinishProgress, AdvanceState: true,
			Consume: []Amount{{Resource: ResCash, Value: 5}},
			Message: "You have no idea why that worked, but now you can escape!",
		},
	},
	{
		ID: ActEscape, Name: "Escape", Duration: 5,
		Show:     Visibility{State: StateIs(5)},
		Requires: []Requirement{{Resource: ResFreeEnergy, Min: 1000}},
		Rates:    []PerSecond{{Resource: ResEnergy, Base: -20}},
		Finish:   Finish{Kind: FinishProgress, AdvanceState: true, Message: "The exit seems to be guarded by a pin pad..."},
	},
	{
		ID: ActPryDoor, Name: "Escape", Duration: 30,
		Show:  Visibility{State: StateIs(6)},
		Start: StartDoorPuzzle,
	},
	{
		ID: ActWork, Name: "Work", Duration: 3,
		Show: Visibility{State: StateAtLeast(7)},
		Rates: []PerSecond{
			{Resource: ResEnergy, Base: -5, Scaling: ScaleJobBonus, Growth: 1.5},
			{Resource: ResCash, Base: 1, Scaling: ScaleJobBonus, Growth: 2},
			{Resource: ResXP, Base: 1, Scaling: ScaleJobBonus, Growth: 2},
		},
	},
	{
		ID: ActExplore, Name: "Explore", Duration: 5,
		Show:     Visibility{State: StateIs(7)},
		Requires: []Requirement{{Resource: ResCash, Min: 300}},
		Rates:    drain10,
		Mults:    []Multiplier{{Resource: ResEvasion, Factor: 2}},
		Finish: Finish{
			Kind: FinishProgress, AdvanceState: true,
			Consume: []Amount{{Resource: ResCash, Value: 300}},
			Message: "You found a bunch of stuff that you could buy, but you'll need some money...",
		},
	},
	{
		ID: ActLeave, Name: "Leave", Duration: 90,
		Show:  Visibility{State: StateIs(8), Owns: UpgPlaneTickets},
		Start: StartPinPuzzle,
	},
}

var actionIndex = func() map[ActionID]int {
	m := make(map[ActionID]int, len(Actions))
	for i, a := range Actions {
		m[a.ID] = i
	}
	return m
}()

// GetAction returns the descriptor for an action ID.
func GetAction(id ActionID) (*Action, bool) {
	i, ok := actionIndex[id]
	if !ok {
		return nil, false
	}
	return &Actions[i], true
}
