package refdata

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/saviobatista/eco-flight/internal/types"
)

// ParseAirports decodes an airports JSON array ([{"iata", "lat", "lon"}]).
// Entries without a code or with out-of-range coordinates are skipped.
func ParseAirports(r io.Reader) ([]types.Airport, error) {
	var raw []types.Airport
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode airports: %w", err)
	}

	airports := make([]types.Airport, 0, len(raw))
	for _, a := range raw {
		a.Code = strings.TrimSpace(a.Code)
		if a.Code == "" || !a.Coordinate().Valid() {
			continue
		}
		airports = append(airports, a)
	}
	return airports, nil
}

// ParseEmissionFactors decodes a {"code": factor} JSON object keeping document
// order, which decides partial-match precedence. A repeated key keeps its first
// position and takes the last value. Non-numeric values are skipped.
func ParseEmissionFactors(data []byte) ([]types.EmissionFactor, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid emission factors JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("emission factors must be a JSON object, got %s", doc.Type)
	}

	var factors []types.EmissionFactor
	index := make(map[string]int)
	doc.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number {
			return true
		}
		code := key.String()
		if i, ok := index[code]; ok {
			factors[i].FactorPerNM = value.Float()
			return true
		}
		index[code] = len(factors)
		factors = append(factors, types.EmissionFactor{
			AircraftCode: code,
			FactorPerNM:  value.Float(),
		})
		return true
	})
	return factors, nil
}
