package emissions

import (
	"sort"

	"github.com/saviobatista/eco-flight/internal/types"
)

// RankByEmissions returns a copy of flights ordered by ascending CO2 estimate.
// Equal estimates keep their input order.
func RankByEmissions(flights []types.RankedFlight) []types.RankedFlight {
	ranked := make([]types.RankedFlight, len(flights))
	copy(ranked, flights)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Eco.CO2EmissionKg < ranked[j].Eco.CO2EmissionKg
	})
	return ranked
}
