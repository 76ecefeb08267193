package emissions

import (
	"strings"

	"github.com/saviobatista/eco-flight/internal/types"
)

// DefaultFactorPerNM is used when an aircraft has no emission factor, kg CO2 per NM
const DefaultFactorPerNM = 20.0

// FactorMatcher resolves aircraft codes against the coarse factor mapping
type FactorMatcher interface {
	MatchFactor(code string) (types.EmissionFactor, types.FactorSource, bool)
}

// ResolveFactor returns the per-NM emission factor for an aircraft code and how it
// was obtained: an exact mapping key, then the first key contained in the code,
// then DefaultFactorPerNM. It never fails.
func ResolveFactor(m FactorMatcher, code string) (float64, types.FactorSource) {
	code = strings.TrimSpace(code)
	if code == "" || m == nil {
		return DefaultFactorPerNM, types.FactorSourceDefault
	}
	if f, source, ok := m.MatchFactor(code); ok {
		return f.FactorPerNM, source
	}
	return DefaultFactorPerNM, types.FactorSourceDefault
}
