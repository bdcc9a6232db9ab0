package catalog

// LawyerTier describes one tier of hireable lawyers. Tier 0 produces work;
// every higher tier produces the multiplier of the tier below it.
type LawyerTier struct {
	Name     string
	BaseCost float64
	Growth   float64
}

// LawyerTiers is ordered from the work-producing tier upwards.
var LawyerTiers = []LawyerTier{
	{Name: "Lawyer", BaseCost: 2e7, Growth: 1.5},
	{Name: "Assistant", BaseCost: 1e9, Growth: 2},
	{Name: "Attorney", BaseCost: 1e10, Growth: 2.5},
	{Name: "Judge", BaseCost: 3e11, Growth: 3},
}

// LawyerEnergyCost is the energy spent hiring one lawyer of the given tier.
func LawyerEnergyCost(tier int) float64 {
	return 50 * float64(tier+1)
}
