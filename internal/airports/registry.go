package airports

import (
	"strings"

	"github.com/saviobatista/eco-flight/internal/types"
)

// Registry maps airport codes to coordinates. It is read-only after New.
type Registry struct {
	coords map[string]types.Coordinate
}

// New builds a registry from airport entries. Codes are matched case-insensitively;
// the first entry for a code wins and empty codes are skipped.
func New(entries []types.Airport) *Registry {
	r := &Registry{coords: make(map[string]types.Coordinate, len(entries))}
	for _, a := range entries {
		code := normalizeCode(a.Code)
		if code == "" {
			continue
		}
		if _, exists := r.coords[code]; exists {
			continue
		}
		r.coords[code] = a.Coordinate()
	}
	return r
}

// Resolve returns the coordinate of an airport code
func (r *Registry) Resolve(code string) (types.Coordinate, bool) {
	if r == nil {
		return types.Coordinate{}, false
	}
	c, ok := r.coords[normalizeCode(code)]
	return c, ok
}

// Len returns the number of airports in the registry
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.coords)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
