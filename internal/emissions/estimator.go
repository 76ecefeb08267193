package emissions

import (
	"fmt"
	"math"
	"strings"

	"github.com/saviobatista/eco-flight/internal/types"
)

const (
	// CO2PerKgFuel is kg of CO2 emitted per kg of jet fuel burnt
	CO2PerKgFuel = 3.16

	// UnknownAircraft labels estimates for flights without an aircraft code
	UnknownAircraft = "Unknown"
)

// Round rounds half to even. Distances and CO2 totals both go through it so that
// ranking near .5 boundaries is deterministic.
func Round(v float64) int {
	return int(math.RoundToEven(v))
}

// SimpleMetrics applies the route model: CO2 = distance * factor, each rounded on its own
func SimpleMetrics(code string, distanceNM float64, resolved bool, factor float64, source types.FactorSource) types.EcoMetrics {
	if math.IsNaN(distanceNM) || math.IsInf(distanceNM, 0) || distanceNM < 0 {
		distanceNM = 0
		resolved = false
	}

	model := strings.TrimSpace(code)
	if model == "" {
		model = UnknownAircraft
	}

	return types.EcoMetrics{
		DistanceNM:          Round(distanceNM),
		CO2EmissionKg:       Round(distanceNM * factor),
		AircraftModel:       model,
		EmissionFactorPerNM: factor,
		FactorSource:        source,
		DistanceResolved:    resolved,
	}
}

// DetailedFromRecord applies the fuel-burn model to a matched record. The result is
// an intensity per km; no route distance is involved.
func DetailedFromRecord(code string, record *types.FuelConsumptionRecord) types.DetailedEstimate {
	est := types.DetailedEstimate{AircraftCode: strings.TrimSpace(code)}

	switch {
	case est.AircraftCode == "":
		est.Reason = "no aircraft code"
		return est
	case record == nil:
		est.Reason = "aircraft not found in fuel consumption table"
		return est
	}

	est.AircraftName = record.RawName
	est.MaxPassengers = record.MaxPassengers
	est.FuelBurnKgPerKm = record.FuelBurnKgPerKm

	if record.FuelBurnKgPerKm <= 0 || math.IsNaN(record.FuelBurnKgPerKm) {
		est.Reason = fmt.Sprintf("fuel consumption missing for %s", record.RawName)
		return est
	}

	est.Available = true
	est.TotalCO2PerKm = record.FuelBurnKgPerKm * CO2PerKgFuel
	if record.MaxPassengers > 0 {
		est.CO2PerPassengerPerKm = est.TotalCO2PerKm / float64(record.MaxPassengers)
	}
	return est
}
