package aircraft

import (
	"strings"

	"github.com/saviobatista/eco-flight/internal/types"
)

// FactorTable is the coarse aircraft code -> emission factor mapping.
// Entry order is significant: partial lookups return the first matching entry.
type FactorTable struct {
	entries []types.EmissionFactor
	exact   map[string]int
}

// NewFactorTable builds a table preserving the given order. Empty codes are skipped;
// a repeated code keeps its first position and takes the later value.
func NewFactorTable(entries []types.EmissionFactor) *FactorTable {
	t := &FactorTable{
		entries: make([]types.EmissionFactor, 0, len(entries)),
		exact:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.AircraftCode == "" {
			continue
		}
		if i, exists := t.exact[e.AircraftCode]; exists {
			t.entries[i].FactorPerNM = e.FactorPerNM
			continue
		}
		t.exact[e.AircraftCode] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t
}

// Exact returns the entry whose code equals code
func (t *FactorTable) Exact(code string) (types.EmissionFactor, bool) {
	if t == nil {
		return types.EmissionFactor{}, false
	}
	i, ok := t.exact[code]
	if !ok {
		return types.EmissionFactor{}, false
	}
	return t.entries[i], true
}

// Partial returns the first entry, in table order, whose code is a substring of code.
// Matching is case-sensitive.
func (t *FactorTable) Partial(code string) (types.EmissionFactor, bool) {
	if t == nil || code == "" {
		return types.EmissionFactor{}, false
	}
	for _, e := range t.entries {
		if strings.Contains(code, e.AircraftCode) {
			return e, true
		}
	}
	return types.EmissionFactor{}, false
}

// Lookup tries an exact match and then a partial one
func (t *FactorTable) Lookup(code string) (types.EmissionFactor, types.FactorSource, bool) {
	if code == "" {
		return types.EmissionFactor{}, types.FactorSourceDefault, false
	}
	if e, ok := t.Exact(code); ok {
		return e, types.FactorSourceExact, true
	}
	if e, ok := t.Partial(code); ok {
		return e, types.FactorSourcePartial, true
	}
	return types.EmissionFactor{}, types.FactorSourceDefault, false
}

// Len returns the number of entries
func (t *FactorTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the entries in table order
func (t *FactorTable) Entries() []types.EmissionFactor {
	if t == nil {
		return nil
	}
	out := make([]types.EmissionFactor, len(t.entries))
	copy(out, t.entries)
	return out
}
