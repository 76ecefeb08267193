package testutils

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/saviobatista/eco-flight/internal/types"
)

// SampleAirports returns a small airport registry fixture
func SampleAirports() []types.Airport {
	return []types.Airport{
		{Code: "SFO", Name: "San Francisco International", Latitude: 37.6189, Longitude: -122.3750},
		{Code: "JFK", Name: "John F Kennedy International", Latitude: 40.6413, Longitude: -73.7781},
		{Code: "LHR", Name: "London Heathrow", Latitude: 51.4700, Longitude: -0.4543},
		{Code: "LAX", Name: "Los Angeles International", Latitude: 33.9416, Longitude: -118.4085},
	}
}

// SampleEmissionFactors returns an ordered emission factor mapping fixture
func SampleEmissionFactors() []types.EmissionFactor {
	return []types.EmissionFactor{
		{AircraftCode: "A320", FactorPerNM: 18.5},
		{AircraftCode: "A321", FactorPerNM: 21.0},
		{AircraftCode: "A350", FactorPerNM: 28.0},
		{AircraftCode: "B737", FactorPerNM: 19.5},
		{AircraftCode: "B777", FactorPerNM: 35.0},
	}
}

// SampleFuelRecords returns a fuel consumption table fixture
func SampleFuelRecords() []types.FuelConsumptionRecord {
	return []types.FuelConsumptionRecord{
		{RawName: "Airbus A320", MaxPassengers: 180, FuelBurnKgPerKm: 2.9},
		{RawName: "Airbus A320neo", MaxPassengers: 194, FuelBurnKgPerKm: 2.5},
		{RawName: "Airbus A350-900", MaxPassengers: 440, FuelBurnKgPerKm: 6.0},
		{RawName: "Boeing 737-800", MaxPassengers: 189, FuelBurnKgPerKm: 3.1},
		{RawName: "Boeing 777-300ER", MaxPassengers: 0, FuelBurnKgPerKm: 7.5},
		{RawName: "Embraer E190"},
	}
}

// SampleReferenceData bundles the fixtures
func SampleReferenceData() *types.ReferenceData {
	return &types.ReferenceData{
		Airports:        SampleAirports(),
		EmissionFactors: SampleEmissionFactors(),
		FuelRecords:     SampleFuelRecords(),
	}
}

// MockFlight creates a flight candidate between SFO and JFK with the given aircraft code.
// An empty code produces a flight without an aircraft block.
func MockFlight(flightIATA, aircraftCode string) types.FlightCandidate {
	airline, number := "", flightIATA
	if len(flightIATA) > 2 {
		airline, number = flightIATA[:2], flightIATA[2:]
	}

	f := types.FlightCandidate{
		FlightDate:   "2023-10-25",
		FlightStatus: "scheduled",
		Departure:    &types.FlightEndpoint{Airport: "San Francisco International", IATA: "SFO"},
		Arrival:      &types.FlightEndpoint{Airport: "John F Kennedy International", IATA: "JFK"},
		Airline:      &types.Airline{Name: "Test Airways", IATA: airline},
		Flight:       &types.FlightInfo{Number: number, IATA: flightIATA},
	}
	if aircraftCode != "" {
		f.Aircraft = &types.AircraftInfo{IATA: aircraftCode}
	}
	return f
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(condition func() bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for condition")
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// IsIntegrationTest returns true if container-backed tests are enabled
func IsIntegrationTest() bool {
	return os.Getenv("INTEGRATION_TESTS") != ""
}
