package aircraft

import (
	"strings"

	"github.com/saviobatista/eco-flight/internal/types"
)

// familyOverrides maps ambiguous type code prefixes to the model number used in
// the fuel table names. Boeing codes encode the variant in the last digit
// (B738 is a 737-800), so only the family is searched.
var familyOverrides = []struct {
	prefix string
	term   string
}{
	{"b73", "737"},
	{"b74", "747"},
	{"b77", "777"},
	{"b78", "787"},
}

var exactOverrides = map[string]string{
	"a20n": "a320neo",
	"a21n": "a321neo",
}

// FuelTable holds fuel consumption records keyed by free-text aircraft names
type FuelTable struct {
	records []types.FuelConsumptionRecord
}

// NewFuelTable builds a table from records, dropping rows without a name and
// deriving each record's normalized name.
func NewFuelTable(records []types.FuelConsumptionRecord) *FuelTable {
	t := &FuelTable{records: make([]types.FuelConsumptionRecord, 0, len(records))}
	for _, r := range records {
		r.RawName = strings.TrimSpace(r.RawName)
		if r.RawName == "" {
			continue
		}
		r.NormalizedName = NormalizeName(r.RawName)
		t.records = append(t.records, r)
	}
	return t
}

// Match returns the first record whose normalized name contains the search term
// derived from code. First wins; there is no scoring between candidates.
func (t *FuelTable) Match(code string) (types.FuelConsumptionRecord, bool) {
	if t == nil {
		return types.FuelConsumptionRecord{}, false
	}
	term := SearchTerm(code)
	if term == "" {
		return types.FuelConsumptionRecord{}, false
	}
	for _, r := range t.records {
		if strings.Contains(r.NormalizedName, term) {
			return r, true
		}
	}
	return types.FuelConsumptionRecord{}, false
}

// Len returns the number of records
func (t *FuelTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of the records in table order
func (t *FuelTable) Records() []types.FuelConsumptionRecord {
	if t == nil {
		return nil
	}
	out := make([]types.FuelConsumptionRecord, len(t.records))
	copy(out, t.records)
	return out
}

// SearchTerm normalizes an aircraft type code and applies the family overrides
func SearchTerm(code string) string {
	term := NormalizeName(code)
	if override, ok := exactOverrides[term]; ok {
		return override
	}
	for _, o := range familyOverrides {
		if strings.HasPrefix(term, o.prefix) {
			return o.term
		}
	}
	return term
}

// NormalizeName lowercases s and keeps only ASCII letters and digits
func NormalizeName(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
