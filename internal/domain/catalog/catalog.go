// Package catalog defines the static action, upgrade and lawyer descriptors.
// This package is PURE data: descriptors carry tagged fields that the rules
// and engine packages interpret, never executable callbacks.
package catalog

import "math"

// Resource names a scalar quantity a cost, requirement or rate refers to.
type Resource string

const (
	ResCash       Resource = "cash"
	ResXP         Resource = "xp"
	ResEnergy     Resource = "energy"
	ResJunk       Resource = "junk"
	ResWork       Resource = "work"
	ResStrategies Resource = "strategies"
	ResExperience Resource = "experience"
	ResEvasion    Resource = "evasionPoints"

	// ResFreeEnergy is derived: rawEnergy - energySpent.
	ResFreeEnergy Resource = "freeEnergy"
)

// Flag names a boolean unlock flag on the game state.
type Flag string

const (
	FlagNone        Flag = ""
	FlagResearch    Flag = "researchUnlocked"
	FlagCorporation Flag = "corporationUnlocked"
	FlagLawyers     Flag = "lawyersUnlocked"
	FlagStrategies  Flag = "strategiesUnlocked"
)

// Year is one game year in seconds of work.
const Year = 3600 * 24 * 365.25

// Unlimited marks an upgrade without a level cap.
const Unlimited = math.MaxInt32

// StateRange bounds the story state. The zero value matches any state.
type StateRange struct {
	Min    int
	Max    int
	Capped bool
}

// Contains reports whether state lies inside the range.
func (r StateRange) Contains(state int) bool {
	if state < r.Min {
		return false
	}
	return !r.Capped || state <= r.Max
}

func StateIs(n int) StateRange           { return StateRange{Min: n, Max: n, Capped: true} }
func StateBetween(lo, hi int) StateRange { return StateRange{Min: lo, Max: hi, Capped: true} }
func StateAtLeast(n int) StateRange      { return StateRange{Min: n} }

// Visibility is the unlock condition of an action or upgrade.
// Every populated field must hold; the zero value is always visible.
type Visibility struct {
	State     StateRange
	Owns      UpgradeID // level >= 1 required
	Flag      Flag      // must be set
	Unflag    Flag      // must be unset
	MinResets int
}

// Requirement is a "have at least Min of Resource" check.
type Requirement struct {
	Resource Resource
	Min      float64
}

// Amount is a fixed quantity of a resource.
type Amount struct {
	Resource Resource
	Value    float64
}
