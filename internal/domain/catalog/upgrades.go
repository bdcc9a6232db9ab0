package catalog

// UpgradeID is the stable identifier of an upgrade.
type UpgradeID string

const (
	UpgFloor            UpgradeID = "floor"
	UpgJobBonus         UpgradeID = "job_bonus"
	UpgWornMattress     UpgradeID = "worn_mattress"
	UpgSneaky           UpgradeID = "sneaky"
	UpgSneakier         UpgradeID = "sneakier"
	UpgSpeed            UpgradeID = "speed"
	UpgNewMattress      UpgradeID = "new_mattress"
	UpgPersuasion       UpgradeID = "persuasion"
	UpgConvince         UpgradeID = "convince"
	UpgProductivity     UpgradeID = "productivity"
	UpgCheapism         UpgradeID = "cheapism"
	UpgPlaneTickets     UpgradeID = "plane_tickets"
	UpgStrategizing     UpgradeID = "strategizing"
	UpgThinking         UpgradeID = "thinking"
	UpgComplexity       UpgradeID = "complexity"
	UpgAttemptSpeed     UpgradeID = "attempt_efficiency"
	UpgRerollSpeed      UpgradeID = "reroll_speed"
	UpgCandyBars        UpgradeID = "candy_bars"
	UpgShovel           UpgradeID = "shovel"
	UpgToolmaking       UpgradeID = "toolmaking"
	UpgJars             UpgradeID = "jars"
	UpgBooks            UpgradeID = "books"
	UpgPoliceBribes     UpgradeID = "police_bribes"
	UpgMetalDetectors   UpgradeID = "metal_detectors"
	UpgExperienced      UpgradeID = "experienced"
	UpgLearning         UpgradeID = "learning"
	UpgAutomated        UpgradeID = "automated"
	UpgMultiplicative   UpgradeID = "multiplicative"
	UpgProductivity2    UpgradeID = "productivity_squared"
	UpgEnergized        UpgradeID = "energized"
	UpgWorkExperience   UpgradeID = "work_experience"
	UpgQuality          UpgradeID = "quality"
	UpgRestart          UpgradeID = "restart"
	UpgBetterStrategies UpgradeID = "better_strategies"
	UpgAutoLawyers      UpgradeID = "auto_lawyers"
)

// Category groups upgrades by purchase gate and reset behavior.
type Category int

const (
	CatPlain    Category = iota
	CatItem              // requires state >= 8
	CatCorp              // requires Persuasion
	CatLawyer            // requires state >= 9
	CatEvasion           // survives evasion resets
	CatResearch          // survives evasion resets
)

// Permanent reports whether levels in this category survive an evasion reset.
func (c Category) Permanent() bool {
	return c == CatEvasion || c == CatResearch
}

// CostCurve selects how a cost grows with the upgrade level L.
type CostCurve int

const (
	// CurveFlat costs Base.
	CurveFlat CostCurve = iota
	// CurveGeometric costs Base * Growth^L.
	CurveGeometric
	// CurveStepped costs Base * Growth^floor(L/10).
	CurveStepped
	// CurveQuadratic costs Base + Growth * L^2.
	CurveQuadratic
	// CurveThinking costs Base * (L+1)^0.8 * Growth^L.
	CurveThinking
	// CurveDiscounted costs Base * Growth^(L * (1 - 0.05*Cheapism)).
	CurveDiscounted
)

// Cost is one resource cost of an upgrade level.
type Cost struct {
	Resource Resource
	Curve    CostCurve
	Base     float64
	Growth   float64
}

// Upgrade describes one purchasable upgrade.
type Upgrade struct {
	ID       UpgradeID
	Name     string
	Category Category
	Max      int
	Show     Visibility
	Costs    []Cost
}

func flat(r Resource, v float64) Cost { return Cost{Resource: r, Curve: CurveFlat, Base: v} }
func geo(r Resource, base, growth float64) Cost {
	return Cost{Resource: r, Curve: CurveGeometric, Base: base, Growth: growth}
}

var (
	always     = Visibility{}
	earlyJail  = Visibility{State: StateBetween(2, 5)}
	escaped    = Visibility{State: StateAtLeast(7)}
	afterReset = Visibility{MinResets: 1}
	corpOpen   = Visibility{Flag: FlagCorporation}
	stratOpen  = Visibility{Flag: FlagStrategies}
	lawyerOpen = Visibility{Owns: UpgStrategizing}
)

// Upgrades is ordered from earliest to latest game stage. Automation scans it
// from the end.
var Upgrades = []Upgrade{
	{ID: UpgFloor, Name: "Floor", Category: CatItem, Max: 1, Show: always, Costs: []Cost{flat(ResCash, 100)}},
	{ID: UpgJobBonus, Name: "Job Bonus", Max: 5, Show: escaped, Costs: []Cost{geo(ResXP, 10, 4)}},
	{ID: UpgWornMattress, Name: "Worn-out Mattress", Category: CatItem, Max: 1, Show: always, Costs: []Cost{flat(ResCash, 200)}},
	{ID: UpgSneaky, Name: "Sneaky", Category: CatEvasion, Max: Unlimited, Show: always, Costs: []Cost{geo(ResExperience, 3, 6)}},
	{ID: UpgSneakier, Name: "Sneakier", Category: CatEvasion, Max: Unlimited, Show: always, Costs: []Cost{geo(ResExperience, 3, 4)}},
	{ID: UpgSpeed, Name: "Speed", Category: CatEvasion, Max: Unlimited, Show: always, Costs: []Cost{geo(ResExperience, 3, 2)}},
	{ID: UpgNewMattress, Name: "New Mattress", Category: CatItem, Max: 1, Show: always, Costs: []Cost{flat(ResCash, 1000)}},
	{
		ID: UpgPersuasion, Name: "Persuasion", Max: 1,
		Show:  Visibility{Owns: UpgNewMattress},
		Costs: []Cost{flat(ResCash, 20000), flat(ResXP, 10000)},
	},
	{
		ID: UpgConvince, Name: "Convince", Category: CatCorp, Max: Unlimited, Show: always,
		Costs: []Cost{
			{Resource: ResCash, Curve: CurveDiscounted, Base: 10000, Growth: 1.15},
			{Resource: ResXP, Curve: CurveDiscounted, Base: 2000, Growth: 1.2},
		},
	},
	{
		ID: UpgProductivity, Name: "Productivity", Category: CatCorp, Max: Unlimited, Show: always,
		Costs: []Cost{geo(ResCash, 1e5, 2.5), geo(ResXP, 5e4, 2.5)},
	},
	{ID: UpgCheapism, Name: "Cheapism", Category: CatCorp, Max: 4, Show: always, Costs: []Cost{geo(ResCash, 1e5, 5)}},
	{
		ID: UpgPlaneTickets, Name: "Escape", Max: 1,
		Show:  Visibility{Owns: UpgPersuasion},
		Costs: []Cost{flat(ResCash, 5e7)},
	},
	{
		ID: UpgStrategizing, Name: "Strategizing", Category: CatLawyer, Max: 1,
		Show:  Visibility{Owns: UpgPlaneTickets},
		Costs: []Cost{flat(ResWork, Year*20)},
	},
	{
		ID: UpgThinking, Name: "Thinking...", Category: CatLawyer, Max: Unlimited, Show: lawyerOpen,
		Costs: []Cost{{Resource: ResStrategies, Curve: CurveThinking, Base: 2, Growth: 1.3}},
	},
	{ID: UpgComplexity, Name: "Complexity", Category: CatLawyer, Max: Unlimited, Show: lawyerOpen, Costs: []Cost{geo(ResWork, Year*1e6, 40)}},
	{ID: UpgAttemptSpeed, Name: "Efficiency", Category: CatLawyer, Max: Unlimited, Show: lawyerOpen, Costs: []Cost{geo(ResWork, Year*1e4, 100)}},
	{ID: UpgRerollSpeed, Name: "Speeeed", Category: CatLawyer, Max: Unlimited, Show: lawyerOpen, Costs: []Cost{geo(ResWork, Year*1e3, 10)}},
	{
		ID: UpgCandyBars, Name: "Candy bars", Max: Unlimited, Show: earlyJail,
		Costs: []Cost{{Resource: ResCash, Curve: CurveStepped, Base: 0.2, Growth: 2}},
	},
	{
		ID: UpgShovel, Name: "Shovel", Max: Unlimited, Show: earlyJail,
		Costs: []Cost{{Resource: ResCash, Curve: CurveQuadratic, Base: 0.5, Growth: 0.1}},
	},
	{
		ID: UpgToolmaking, Name: "Toolmaking", Max: Unlimited, Show: earlyJail,
		Costs: []Cost{{Resource: ResJunk, Curve: CurveQuadratic, Base: 10, Growth: 2}},
	},
	{ID: UpgJars, Name: "Jars", Category: CatResearch, Max: Unlimited, Show: always, Costs: []Cost{geo(ResJunk, 40, 1.5)}},
	{ID: UpgBooks, Name: "Efficiency", Category: CatResearch, Max: Unlimited, Show: always, Costs: []Cost{geo(ResCash, 1, 4)}},
	{ID: UpgPoliceBribes, Name: "Bribery", Max: Unlimited, Show: escaped, Costs: []Cost{geo(ResCash, 100, 8)}},
	{
		ID: UpgMetalDetectors, Name: "Metal Detectors", Category: CatResearch, Max: Unlimited, Show: afterReset,
		Costs: []Cost{geo(ResExperience, 3, 10), geo(ResJunk, 50, 4)},
	},
	{ID: UpgExperienced, Name: "Experienced", Category: CatResearch, Max: Unlimited, Show: afterReset, Costs: []Cost{geo(ResXP, 500, 7)}},
	{ID: UpgLearning, Name: "Learning", Max: Unlimited, Show: escaped, Costs: []Cost{geo(ResXP, 100, 4)}},
	{
		ID: UpgAutomated, Name: "Automated", Category: CatResearch, Max: 1, Show: corpOpen,
		Costs: []Cost{flat(ResCash, 2e5), flat(ResXP, 2e5)},
	},
	{ID: UpgMultiplicative, Name: "Multiplicative", Category: CatCorp, Max: 2, Show: always, Costs: []Cost{geo(ResXP, 1e6, 10)}},
	{
		ID: UpgProductivity2, Name: "Productivity^2", Category: CatResearch, Max: Unlimited, Show: corpOpen,
		Costs: []Cost{geo(ResJunk, 1000, 3), geo(ResXP, 50000, 3), geo(ResExperience, 10000, 2)},
	},
	{ID: UpgEnergized, Name: "Energized", Category: CatResearch, Max: 5, Show: corpOpen, Costs: []Cost{geo(ResCash, 1e5, 3)}},
	{
		ID: UpgWorkExperience, Name: "Work Experience", Category: CatResearch, Max: Unlimited,
		Show:  Visibility{Flag: FlagLawyers},
		Costs: []Cost{geo(ResCash, 1e8, 5), geo(ResXP, 1e7, 5), geo(ResExperience, 1e7, 4)},
	},
	{ID: UpgQuality, Name: "Quality", Category: CatResearch, Max: 3, Show: stratOpen, Costs: []Cost{geo(ResStrategies, 5, 10)}},
	{ID: UpgRestart, Name: "Restart", Category: CatResearch, Max: 1, Show: stratOpen, Costs: []Cost{flat(ResStrategies, 5000)}},
	{
		ID: UpgBetterStrategies, Name: "Better Strategies", Category: CatResearch, Max: Unlimited, Show: stratOpen,
		Costs: []Cost{geo(ResWork, Year*1e4, 100)},
	},
	{ID: UpgAutoLawyers, Name: "Automatic Lawyers", Category: CatResearch, Max: 1, Show: stratOpen, Costs: []Cost{flat(ResWork, Year*1e12)}},
}

var upgradeIndex = func() map[UpgradeID]int {
	m := make(map[UpgradeID]int, len(Upgrades))
	for i, u := range Upgrades {
		m[u.ID] = i
	}
	return m
}()

// GetUpgrade returns the descriptor for an upgrade ID.
func GetUpgrade(id UpgradeID) (*Upgrade, bool) {
	i, ok := upgradeIndex[id]
	if !ok {
		return nil, false
	}
	return &Upgrades[i], true
}
