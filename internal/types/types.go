package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Coordinate is a position in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Valid reports whether the coordinate lies within the latitude/longitude ranges
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Airport represents a single entry of the airport registry
type Airport struct {
	Code      string  `json:"iata"`
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Coordinate returns the airport position
func (a Airport) Coordinate() Coordinate {
	return Coordinate{Latitude: a.Latitude, Longitude: a.Longitude}
}

// EmissionFactor maps an aircraft code fragment to kg CO2 per nautical mile
type EmissionFactor struct {
	AircraftCode string  `json:"aircraft_code"`
	FactorPerNM  float64 `json:"factor_per_nm"`
}

// FuelConsumptionRecord is one row of the aircraft fuel consumption table.
// Zero MaxPassengers or FuelBurnKgPerKm means the value was missing in the source.
type FuelConsumptionRecord struct {
	RawName         string  `json:"raw_name"`
	NormalizedName  string  `json:"normalized_name"`
	MaxPassengers   int     `json:"max_passengers,omitempty"`
	FuelBurnKgPerKm float64 `json:"fuel_burn_kg_per_km,omitempty"`
}

// ReferenceData bundles the datasets loaded at startup
type ReferenceData struct {
	Airports        []Airport               `json:"airports"`
	EmissionFactors []EmissionFactor        `json:"emission_factors"`
	FuelRecords     []FuelConsumptionRecord `json:"fuel_records"`
}

// FlightEndpoint is the departure or arrival block of a flight record
type FlightEndpoint struct {
	Airport   string `json:"airport,omitempty"`
	IATA      string `json:"iata,omitempty"`
	ICAO      string `json:"icao,omitempty"`
	Scheduled string `json:"scheduled,omitempty"`
}

// Airline identifies the operating carrier
type Airline struct {
	Name string `json:"name,omitempty"`
	IATA string `json:"iata,omitempty"`
	ICAO string `json:"icao,omitempty"`
}

// FlightInfo holds the flight number block
type FlightInfo struct {
	Number string `json:"number,omitempty"`
	IATA   string `json:"iata,omitempty"`
	ICAO   string `json:"icao,omitempty"`
}

// AircraftInfo holds the aircraft type codes of a flight
type AircraftInfo struct {
	IATA         string `json:"iata,omitempty"`
	ICAO         string `json:"icao,omitempty"`
	Registration string `json:"registration,omitempty"`
}

// FlightCandidate is a flight record as returned by the flight data provider.
// A decoded candidate keeps its raw provider record and marshals back to it
// unchanged, so fields without a typed counterpart survive a round trip.
type FlightCandidate struct {
	FlightDate   string          `json:"flight_date,omitempty"`
	FlightStatus string          `json:"flight_status,omitempty"`
	Departure    *FlightEndpoint `json:"departure,omitempty"`
	Arrival      *FlightEndpoint `json:"arrival,omitempty"`
	Airline      *Airline        `json:"airline,omitempty"`
	Flight       *FlightInfo     `json:"flight,omitempty"`
	Aircraft     *AircraftInfo   `json:"aircraft,omitempty"`

	raw json.RawMessage
}

// flightCandidateFields has the fields of FlightCandidate without its JSON methods
type flightCandidateFields FlightCandidate

// UnmarshalJSON decodes the typed blocks and keeps a copy of the record
func (f *FlightCandidate) UnmarshalJSON(data []byte) error {
	var fields flightCandidateFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*f = FlightCandidate(fields)
	if trimmed := bytes.TrimSpace(data); !bytes.Equal(trimmed, []byte("null")) {
		f.raw = append(json.RawMessage(nil), trimmed...)
	}
	return nil
}

// MarshalJSON emits the raw provider record when there is one, else the typed fields
func (f FlightCandidate) MarshalJSON() ([]byte, error) {
	if len(f.raw) > 0 {
		return f.raw, nil
	}
	return json.Marshal(flightCandidateFields(f))
}

// Raw returns the provider record the candidate was decoded from, or nil
func (f FlightCandidate) Raw() json.RawMessage {
	return f.raw
}

// AircraftCode returns the aircraft IATA type code, or "" when absent
func (f FlightCandidate) AircraftCode() string {
	if len(f.raw) > 0 {
		return strings.TrimSpace(gjson.GetBytes(f.raw, "aircraft.iata").String())
	}
	if f.Aircraft == nil {
		return ""
	}
	return strings.TrimSpace(f.Aircraft.IATA)
}

// FlightSummary is a flattened view of a flight candidate
type FlightSummary struct {
	Date         string `json:"date"`
	Status       string `json:"status"`
	Airline      string `json:"airline"`
	FlightNumber string `json:"flight_number"`
	DepAirport   string `json:"dep_airport"`
	DepTime      string `json:"dep_time"`
	ArrAirport   string `json:"arr_airport"`
	ArrTime      string `json:"arr_time"`
	Aircraft     string `json:"aircraft"`
}

// Summary flattens the nested provider blocks, tolerating missing ones
func (f FlightCandidate) Summary() FlightSummary {
	s := FlightSummary{
		Date:     f.FlightDate,
		Status:   f.FlightStatus,
		Aircraft: f.AircraftCode(),
	}

	var airlineIATA, number string
	if f.Airline != nil {
		s.Airline = f.Airline.Name
		airlineIATA = f.Airline.IATA
	}
	if f.Flight != nil {
		number = f.Flight.Number
	}
	s.FlightNumber = fmt.Sprintf("%s%s", airlineIATA, number)

	if f.Departure != nil {
		s.DepAirport = f.Departure.IATA
		s.DepTime = f.Departure.Scheduled
	}
	if f.Arrival != nil {
		s.ArrAirport = f.Arrival.IATA
		s.ArrTime = f.Arrival.Scheduled
	}
	return s
}

// FactorSource tells how an emission factor was obtained
type FactorSource string

const (
	FactorSourceExact   FactorSource = "exact"
	FactorSourcePartial FactorSource = "partial"
	FactorSourceDefault FactorSource = "default"
)

// EcoMetrics is the simple-model estimate attached to a flight candidate
type EcoMetrics struct {
	DistanceNM          int          `json:"distanceNM"`
	CO2EmissionKg       int          `json:"co2EmissionKg"`
	AircraftModel       string       `json:"aircraftModel"`
	EmissionFactorPerNM float64      `json:"emissionFactorPerNM"`
	FactorSource        FactorSource `json:"factorSource"`
	DistanceResolved    bool         `json:"distanceResolved"`
}

// Defaulted reports whether the estimate fell back on default inputs
func (m EcoMetrics) Defaulted() bool {
	return m.FactorSource == FactorSourceDefault || !m.DistanceResolved
}

// DetailedEstimate is the fuel-burn based emissions intensity of an aircraft type.
// It reports per-km intensity, not a route total.
type DetailedEstimate struct {
	Available            bool    `json:"available"`
	Reason               string  `json:"reason,omitempty"`
	AircraftCode         string  `json:"aircraftCode"`
	AircraftName         string  `json:"aircraftName,omitempty"`
	MaxPassengers        int     `json:"maxPassengers,omitempty"`
	FuelBurnKgPerKm      float64 `json:"fuelBurnKgPerKm,omitempty"`
	TotalCO2PerKm        float64 `json:"totalCo2PerKm"`
	CO2PerPassengerPerKm float64 `json:"co2PerPassengerPerKm"`
}

// RankedFlight pairs a flight candidate with its estimate
type RankedFlight struct {
	Flight FlightCandidate `json:"flight"`
	Eco    EcoMetrics      `json:"eco"`
}

// SearchRequest asks for the emissions ranking of candidates on one route
type SearchRequest struct {
	Origin      string            `json:"origin"`
	Destination string            `json:"destination"`
	Flights     []FlightCandidate `json:"flights"`
}

// Route describes the searched route
type Route struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DistanceNM  int    `json:"distanceNM"`
	Resolved    bool   `json:"resolved"`
}

// SearchResponse is the ranked result of a route search
type SearchResponse struct {
	SearchID string         `json:"searchId"`
	Route    Route          `json:"route"`
	Results  []RankedFlight `json:"results"`
}

// RefdataUpdate announces that a reference data store was rewritten
type RefdataUpdate struct {
	Target          string    `json:"target"`
	Airports        int       `json:"airports"`
	EmissionFactors int       `json:"emissionFactors"`
	FuelRecords     int       `json:"fuelRecords"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
