package aircraft

import (
	"strings"

	"github.com/saviobatista/eco-flight/internal/types"
)

// FactorLookup resolves an aircraft code against the coarse factor mapping
type FactorLookup interface {
	Lookup(code string) (types.EmissionFactor, types.FactorSource, bool)
}

// FuelLookup resolves an aircraft code against the fuel consumption table
type FuelLookup interface {
	Match(code string) (types.FuelConsumptionRecord, bool)
}

// Match is the result of matching one aircraft code against both datasets
type Match struct {
	Code         string
	Factor       *types.EmissionFactor
	FactorSource types.FactorSource
	Fuel         *types.FuelConsumptionRecord
}

// Matcher resolves aircraft codes against both reference datasets
type Matcher struct {
	factors FactorLookup
	fuel    FuelLookup
}

// NewMatcher creates a matcher. A nil lookup behaves as an empty dataset.
func NewMatcher(factors FactorLookup, fuel FuelLookup) *Matcher {
	return &Matcher{factors: factors, fuel: fuel}
}

// MatchFactor resolves code against the factor mapping
func (m *Matcher) MatchFactor(code string) (types.EmissionFactor, types.FactorSource, bool) {
	code = strings.TrimSpace(code)
	if m.factors == nil || code == "" {
		return types.EmissionFactor{}, types.FactorSourceDefault, false
	}
	return m.factors.Lookup(code)
}

// MatchFuel resolves code against the fuel consumption table
func (m *Matcher) MatchFuel(code string) (types.FuelConsumptionRecord, bool) {
	if m.fuel == nil || strings.TrimSpace(code) == "" {
		return types.FuelConsumptionRecord{}, false
	}
	return m.fuel.Match(code)
}

// Match resolves code against both datasets
func (m *Matcher) Match(code string) Match {
	result := Match{Code: strings.TrimSpace(code), FactorSource: types.FactorSourceDefault}

	if f, source, ok := m.MatchFactor(code); ok {
		result.Factor = &f
		result.FactorSource = source
	}
	if r, ok := m.MatchFuel(code); ok {
		result.Fuel = &r
	}
	return result
}
